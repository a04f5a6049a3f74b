// Package history keeps the append-only audit trail of aggregation events.
// Writing a record is always best-effort: a failed append must never fail
// the aggregation that produced it.
package history

import (
	"context"
	"time"
)

// Record describes one successful aggregation.
type Record struct {
	Timestamp      time.Time      `json:"timestamp"`
	ID             string         `json:"id"`
	ModelName      string         `json:"model_name"`
	NumUpdates     int            `json:"num_updates"`
	ContributorIDs []string       `json:"contributor_ids"`
	Round          uint64         `json:"round"`
	Config         ConfigSnapshot `json:"config"`
}

// ConfigSnapshot captures the coordinator settings in force at aggregation
// time. Privacy parameters are deliberately absent: they never travel next
// to weights.
type ConfigSnapshot struct {
	LearningRate  float64 `json:"learning_rate"`
	MaxRetries    uint    `json:"max_retries"`
	BackupEnabled bool    `json:"backup_enabled"`
}

// Page is one page of records for a model.
type Page struct {
	Offset  uint64   `json:"offset"`
	Limit   uint64   `json:"limit"`
	Total   uint64   `json:"total"`
	Records []Record `json:"records"`
}

// Sink is the destination for audit records.
type Sink interface {
	Append(ctx context.Context, rec Record) error
	List(ctx context.Context, modelName string, offset, limit uint64) (Page, error)
}
