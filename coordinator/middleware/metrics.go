package middleware

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/absmach/fedrelay/coordinator"
	"github.com/absmach/fedrelay/pkg/history"
	"github.com/absmach/fedrelay/pkg/privacy"
)

var _ coordinator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     coordinator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc coordinator.Service) coordinator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) SubmitUpdate(ctx context.Context, sub coordinator.Submission) (coordinator.Receipt, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "submit-update").Add(1)
		mm.latency.With("method", "submit-update").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SubmitUpdate(ctx, sub)
}

func (mm *metricsMiddleware) SubmitUpdateCBOR(ctx context.Context, data []byte) (coordinator.Receipt, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "submit-update-cbor").Add(1)
		mm.latency.With("method", "submit-update-cbor").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SubmitUpdateCBOR(ctx, data)
}

func (mm *metricsMiddleware) GetModel(ctx context.Context, modelID string) (coordinator.GlobalModel, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-model").Add(1)
		mm.latency.With("method", "get-model").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetModel(ctx, modelID)
}

func (mm *metricsMiddleware) History(ctx context.Context, modelID string, offset, limit uint64) (history.Page, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-history").Add(1)
		mm.latency.With("method", "list-history").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.History(ctx, modelID, offset, limit)
}

func (mm *metricsMiddleware) EstimatePrivacyCost(ctx context.Context, epsilon, delta float64, iterations int, sampleRate float64) (privacy.Cost, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "estimate-privacy-cost").Add(1)
		mm.latency.With("method", "estimate-privacy-cost").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.EstimatePrivacyCost(ctx, epsilon, delta, iterations, sampleRate)
}
