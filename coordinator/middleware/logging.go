package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/fedrelay/coordinator"
	"github.com/absmach/fedrelay/pkg/history"
	"github.com/absmach/fedrelay/pkg/privacy"
)

var _ coordinator.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    coordinator.Service
}

func Logging(logger *slog.Logger, svc coordinator.Service) coordinator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) SubmitUpdate(ctx context.Context, sub coordinator.Submission) (resp coordinator.Receipt, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("submission",
				slog.String("model_id", sub.ModelID),
				slog.Uint64("round", sub.Round),
				slog.String("contributor_id", sub.ContributorID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Submit update failed", args...)

			return
		}
		lm.logger.Info("Submit update completed successfully", args...)
	}(time.Now())

	return lm.svc.SubmitUpdate(ctx, sub)
}

func (lm *loggingMiddleware) SubmitUpdateCBOR(ctx context.Context, data []byte) (resp coordinator.Receipt, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("payload_bytes", len(data)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Submit CBOR update failed", args...)

			return
		}
		lm.logger.Info("Submit CBOR update completed successfully", args...)
	}(time.Now())

	return lm.svc.SubmitUpdateCBOR(ctx, data)
}

func (lm *loggingMiddleware) GetModel(ctx context.Context, modelID string) (resp coordinator.GlobalModel, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("model",
				slog.String("id", modelID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get model failed", args...)

			return
		}
		lm.logger.Info("Get model completed successfully", args...)
	}(time.Now())

	return lm.svc.GetModel(ctx, modelID)
}

func (lm *loggingMiddleware) History(ctx context.Context, modelID string, offset, limit uint64) (resp history.Page, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("model",
				slog.String("id", modelID),
			),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List history failed", args...)

			return
		}
		lm.logger.Info("List history completed successfully", args...)
	}(time.Now())

	return lm.svc.History(ctx, modelID, offset, limit)
}

func (lm *loggingMiddleware) EstimatePrivacyCost(ctx context.Context, epsilon, delta float64, iterations int, sampleRate float64) (resp privacy.Cost, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Float64("epsilon", epsilon),
			slog.Int("iterations", iterations),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Estimate privacy cost failed", args...)

			return
		}
		lm.logger.Info("Estimate privacy cost completed successfully", args...)
	}(time.Now())

	return lm.svc.EstimatePrivacyCost(ctx, epsilon, delta, iterations, sampleRate)
}
