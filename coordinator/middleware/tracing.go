package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/absmach/fedrelay/coordinator"
	"github.com/absmach/fedrelay/pkg/history"
	"github.com/absmach/fedrelay/pkg/privacy"
)

var _ coordinator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    coordinator.Service
}

func Tracing(tracer trace.Tracer, svc coordinator.Service) coordinator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) SubmitUpdate(ctx context.Context, sub coordinator.Submission) (coordinator.Receipt, error) {
	ctx, span := tm.tracer.Start(ctx, "submit-update", trace.WithAttributes(
		attribute.String("model_id", sub.ModelID),
		attribute.Int64("round", int64(sub.Round)),
		attribute.String("contributor_id", sub.ContributorID),
	))
	defer span.End()

	return tm.svc.SubmitUpdate(ctx, sub)
}

func (tm *tracing) SubmitUpdateCBOR(ctx context.Context, data []byte) (coordinator.Receipt, error) {
	ctx, span := tm.tracer.Start(ctx, "submit-update-cbor", trace.WithAttributes(
		attribute.Int("payload_bytes", len(data)),
	))
	defer span.End()

	return tm.svc.SubmitUpdateCBOR(ctx, data)
}

func (tm *tracing) GetModel(ctx context.Context, modelID string) (coordinator.GlobalModel, error) {
	ctx, span := tm.tracer.Start(ctx, "get-model", trace.WithAttributes(
		attribute.String("model_id", modelID),
	))
	defer span.End()

	return tm.svc.GetModel(ctx, modelID)
}

func (tm *tracing) History(ctx context.Context, modelID string, offset, limit uint64) (history.Page, error) {
	ctx, span := tm.tracer.Start(ctx, "list-history", trace.WithAttributes(
		attribute.String("model_id", modelID),
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.History(ctx, modelID, offset, limit)
}

func (tm *tracing) EstimatePrivacyCost(ctx context.Context, epsilon, delta float64, iterations int, sampleRate float64) (privacy.Cost, error) {
	ctx, span := tm.tracer.Start(ctx, "estimate-privacy-cost", trace.WithAttributes(
		attribute.Float64("epsilon", epsilon),
		attribute.Int("iterations", iterations),
	))
	defer span.End()

	return tm.svc.EstimatePrivacyCost(ctx, epsilon, delta, iterations, sampleRate)
}
