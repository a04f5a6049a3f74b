package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"

	"github.com/absmach/fedrelay/coordinator"
	"github.com/absmach/fedrelay/pkg/aggregate"
	pkgerrors "github.com/absmach/fedrelay/pkg/errors"
	"github.com/absmach/fedrelay/pkg/privacy"
	"github.com/absmach/fedrelay/pkg/weights"
)

const (
	OffsetKey = "offset"
	LimitKey  = "limit"
	DefOffset = 0
	DefLimit  = 100

	ContentType     = "application/json"
	ContentTypeCBOR = "application/cbor"
)

func EncodeResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	if ar, ok := response.(supermq.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	switch {
	case errors.Is(err, apiutil.ErrValidation),
		errors.Is(err, pkgerrors.ErrEmptyKey),
		errors.Is(err, coordinator.ErrInvalidSubmission),
		errors.Is(err, privacy.ErrInvalidParams),
		errors.Is(err, aggregate.ErrNoUpdates),
		errors.Is(err, weights.ErrShapeMismatch),
		errors.Is(err, weights.ErrMalformedPayload),
		errors.Is(err, weights.ErrEmptyVector):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, pkgerrors.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, coordinator.ErrStorageWrite):
		w.WriteHeader(http.StatusBadGateway)
	case errors.Is(err, coordinator.ErrCorruptBaseline):
		w.WriteHeader(http.StatusConflict)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	enc := map[string]string{"error": err.Error()}
	if err := json.NewEncoder(w).Encode(enc); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
