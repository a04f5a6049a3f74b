package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/absmach/fedrelay/coordinator"
	"github.com/absmach/fedrelay/pkg/history"
	"github.com/absmach/fedrelay/pkg/privacy"
)

// Service is a mock implementation of the coordinator.Service interface.
type Service struct {
	mock.Mock
}

func (m *Service) SubmitUpdate(ctx context.Context, sub coordinator.Submission) (coordinator.Receipt, error) {
	args := m.Called(ctx, sub)

	return args.Get(0).(coordinator.Receipt), args.Error(1)
}

func (m *Service) SubmitUpdateCBOR(ctx context.Context, data []byte) (coordinator.Receipt, error) {
	args := m.Called(ctx, data)

	return args.Get(0).(coordinator.Receipt), args.Error(1)
}

func (m *Service) GetModel(ctx context.Context, modelID string) (coordinator.GlobalModel, error) {
	args := m.Called(ctx, modelID)

	return args.Get(0).(coordinator.GlobalModel), args.Error(1)
}

func (m *Service) History(ctx context.Context, modelID string, offset, limit uint64) (history.Page, error) {
	args := m.Called(ctx, modelID, offset, limit)

	return args.Get(0).(history.Page), args.Error(1)
}

func (m *Service) EstimatePrivacyCost(ctx context.Context, epsilon, delta float64, iterations int, sampleRate float64) (privacy.Cost, error) {
	args := m.Called(ctx, epsilon, delta, iterations, sampleRate)

	return args.Get(0).(privacy.Cost), args.Error(1)
}
