package api

import (
	"context"
	"errors"

	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"

	"github.com/absmach/fedrelay/coordinator"
	pkgerrors "github.com/absmach/fedrelay/pkg/errors"
)

func submitUpdateEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(submitUpdateReq)
		if !ok {
			return receiptResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return receiptResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		receipt, err := svc.SubmitUpdate(ctx, req.Submission)
		if err != nil {
			return receiptResponse{}, err
		}

		return receiptResponse{
			Receipt: receipt,
		}, nil
	}
}

func submitUpdateCBOREndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(submitUpdateCBORReq)
		if !ok {
			return receiptResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return receiptResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		receipt, err := svc.SubmitUpdateCBOR(ctx, req.data)
		if err != nil {
			return receiptResponse{}, err
		}

		return receiptResponse{
			Receipt: receipt,
		}, nil
	}
}

func getModelEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return modelResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return modelResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		model, err := svc.GetModel(ctx, req.id)
		if err != nil {
			return modelResponse{}, err
		}

		return modelResponse{
			GlobalModel: model,
		}, nil
	}
}

func listHistoryEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(historyReq)
		if !ok {
			return historyResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return historyResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		page, err := svc.History(ctx, req.id, req.offset, req.limit)
		if err != nil {
			return historyResponse{}, err
		}

		return historyResponse{
			Page: page,
		}, nil
	}
}

func estimateCostEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(estimateCostReq)
		if !ok {
			return costResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return costResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		cost, err := svc.EstimatePrivacyCost(ctx, req.Epsilon, req.Delta, req.Iterations, req.SampleRate)
		if err != nil {
			return costResponse{}, err
		}

		return costResponse{
			Cost: cost,
		}, nil
	}
}
