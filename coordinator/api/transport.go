package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/absmach/fedrelay/coordinator"
	"github.com/absmach/fedrelay/pkg/api"
)

const maxPayloadSize = 1024 * 1024 * 64

func MakeHandler(svc coordinator.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route("/models", func(r chi.Router) {
		r.Route("/{modelID}", func(r chi.Router) {
			r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
				getModelEndpoint(svc),
				decodeEntityReq("modelID"),
				api.EncodeResponse,
				opts...,
			), "get-model").ServeHTTP)
			r.Post("/updates", otelhttp.NewHandler(kithttp.NewServer(
				submitUpdateEndpoint(svc),
				decodeSubmitUpdateReq,
				api.EncodeResponse,
				opts...,
			), "submit-update").ServeHTTP)
			r.Post("/updates/cbor", otelhttp.NewHandler(kithttp.NewServer(
				submitUpdateCBOREndpoint(svc),
				decodeSubmitUpdateCBORReq,
				api.EncodeResponse,
				opts...,
			), "submit-update-cbor").ServeHTTP)
			r.Get("/history", otelhttp.NewHandler(kithttp.NewServer(
				listHistoryEndpoint(svc),
				decodeHistoryReq,
				api.EncodeResponse,
				opts...,
			), "list-history").ServeHTTP)
		})
	})

	mux.Post("/privacy/estimate", otelhttp.NewHandler(kithttp.NewServer(
		estimateCostEndpoint(svc),
		decodeEstimateCostReq,
		api.EncodeResponse,
		opts...,
	), "estimate-privacy-cost").ServeHTTP)

	mux.Get("/health", supermq.Health("coordinator", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeEntityReq(key string) kithttp.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (any, error) {
		return entityReq{
			id: chi.URLParam(r, key),
		}, nil
	}
}

func decodeSubmitUpdateReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req submitUpdateReq
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPayloadSize)).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}
	req.ModelID = chi.URLParam(r, "modelID")

	return req, nil
}

func decodeSubmitUpdateCBORReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentTypeCBOR) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
	if err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return submitUpdateCBORReq{
		data: data,
	}, nil
}

func decodeHistoryReq(_ context.Context, r *http.Request) (any, error) {
	o, err := apiutil.ReadNumQuery[uint64](r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	l, err := apiutil.ReadNumQuery[uint64](r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return historyReq{
		id:     chi.URLParam(r, "modelID"),
		offset: o,
		limit:  l,
	}, nil
}

func decodeEstimateCostReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req estimateCostReq
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPayloadSize)).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}
