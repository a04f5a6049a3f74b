package history

import (
	"context"
	"log/slog"
)

type slogSink struct {
	logger *slog.Logger
}

// NewSlogSink logs records instead of persisting them, for deployments
// without a data directory. List always returns an empty page.
func NewSlogSink(logger *slog.Logger) Sink {
	return &slogSink{logger: logger}
}

func (s *slogSink) Append(ctx context.Context, rec Record) error {
	s.logger.InfoContext(ctx, "Aggregation completed",
		slog.String("record_id", rec.ID),
		slog.String("model", rec.ModelName),
		slog.Uint64("round", rec.Round),
		slog.Int("num_updates", rec.NumUpdates),
		slog.Any("contributors", rec.ContributorIDs),
	)

	return nil
}

func (s *slogSink) List(_ context.Context, _ string, offset, limit uint64) (Page, error) {
	return Page{Offset: offset, Limit: limit}, nil
}
