// Package coordinator implements the read-merge-write cycle that folds one
// contributor update into the shared global model held by the relay store.
package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/absmach/fedrelay/pkg/history"
	"github.com/absmach/fedrelay/pkg/privacy"
	"github.com/absmach/fedrelay/pkg/weights"
)

var (
	// ErrStorageWrite is returned once every persist attempt has been
	// exhausted. It is the only fatal storage condition.
	ErrStorageWrite = errors.New("failed to persist global model state")

	// ErrInvalidSubmission covers malformed submissions rejected before any
	// storage interaction.
	ErrInvalidSubmission = errors.New("invalid submission")

	// ErrCorruptBaseline is returned when the stored global state cannot be
	// decoded. A corrupt baseline is surfaced rather than silently replaced.
	ErrCorruptBaseline = errors.New("stored global model state is malformed")
)

// Submission is one contributor update. The payload carries the wire format
// of pkg/weights and is consumed exactly once; it is never durably stored in
// raw form.
type Submission struct {
	ModelID       string    `json:"model_id"`
	Round         uint64    `json:"round"`
	ContributorID string    `json:"contributor_id"`
	Payload       []byte    `json:"payload"`
	SubmittedAt   time.Time `json:"submitted_at,omitempty"`
}

func (s Submission) Validate() error {
	if s.ModelID == "" {
		return errors.Join(ErrInvalidSubmission, errors.New("model id is required"))
	}
	if s.Round < 1 {
		return errors.Join(ErrInvalidSubmission, errors.New("round must be at least 1"))
	}
	if s.ContributorID == "" {
		return errors.Join(ErrInvalidSubmission, errors.New("contributor id is required"))
	}
	if len(s.Payload) == 0 {
		return errors.Join(ErrInvalidSubmission, weights.ErrEmptyVector)
	}

	return nil
}

// Receipt acknowledges a successfully persisted aggregation. Location is the
// relay store key now holding the global state.
type Receipt struct {
	ModelID    string    `json:"model_id"`
	Round      uint64    `json:"round"`
	Location   string    `json:"location"`
	NumUpdates int       `json:"num_updates"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GlobalModel is the shared model state re-fetched from the relay store on
// every read; the coordinator never caches it.
type GlobalModel struct {
	ModelID   string         `json:"model_id"`
	Weights   weights.Vector `json:"weights"`
	Round     uint64         `json:"round"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type Service interface {
	// SubmitUpdate merges one contributor update into the global model and
	// persists the result. Baseline read failures degrade to a first
	// contribution; write failures after retry exhaustion are fatal.
	SubmitUpdate(ctx context.Context, sub Submission) (Receipt, error)

	// SubmitUpdateCBOR accepts a CBOR-encoded Submission, for embedded
	// contributors that cannot afford JSON.
	SubmitUpdateCBOR(ctx context.Context, data []byte) (Receipt, error)

	// GetModel fetches the current global model state from the relay store.
	GetModel(ctx context.Context, modelID string) (GlobalModel, error)

	// History lists audit records for a model.
	History(ctx context.Context, modelID string, offset, limit uint64) (history.Page, error)

	// EstimatePrivacyCost reports the heuristic composed privacy cost of
	// repeated participation. Guidance only, not a guarantee.
	EstimatePrivacyCost(ctx context.Context, epsilon, delta float64, iterations int, sampleRate float64) (privacy.Cost, error)
}
