package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedrelay/coordinator"
	"github.com/absmach/fedrelay/coordinator/api"
	"github.com/absmach/fedrelay/coordinator/mocks"
	pkgerrors "github.com/absmach/fedrelay/pkg/errors"
	"github.com/absmach/fedrelay/pkg/history"
	"github.com/absmach/fedrelay/pkg/privacy"
	"github.com/absmach/fedrelay/pkg/weights"
)

func newTestServer(svc coordinator.Service) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return httptest.NewServer(api.MakeHandler(svc, logger, "test-instance"))
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	return bytes.NewReader(data)
}

func TestSubmitUpdateEndpoint(t *testing.T) {
	svc := new(mocks.Service)
	srv := newTestServer(svc)
	defer srv.Close()

	payload, err := weights.Encode(weights.Vector{1, 2})
	require.NoError(t, err)

	svc.On("SubmitUpdate", mock.Anything, mock.MatchedBy(func(sub coordinator.Submission) bool {
		return sub.ModelID == "demo" && sub.Round == 1
	})).Return(coordinator.Receipt{
		ModelID:   "demo",
		Round:     1,
		Location:  "models/demo/weights",
		UpdatedAt: time.Now(),
	}, nil)

	body := jsonBody(t, coordinator.Submission{
		Round:         1,
		ContributorID: "alice",
		Payload:       payload,
	})
	res, err := http.Post(srv.URL+"/models/demo/updates", "application/json", body)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "models/demo/weights", res.Header.Get("Location"))
	svc.AssertExpectations(t)
}

func TestSubmitUpdateEndpointUnsupportedContentType(t *testing.T) {
	svc := new(mocks.Service)
	srv := newTestServer(svc)
	defer srv.Close()

	res, err := http.Post(srv.URL+"/models/demo/updates", "text/plain", bytes.NewReader([]byte("nope")))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	svc.AssertNotCalled(t, "SubmitUpdate")
}

func TestSubmitUpdateEndpointValidation(t *testing.T) {
	svc := new(mocks.Service)
	srv := newTestServer(svc)
	defer srv.Close()

	body := jsonBody(t, coordinator.Submission{Round: 0})
	res, err := http.Post(srv.URL+"/models/demo/updates", "application/json", body)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	svc.AssertNotCalled(t, "SubmitUpdate")
}

func TestSubmitUpdateCBOREndpoint(t *testing.T) {
	svc := new(mocks.Service)
	srv := newTestServer(svc)
	defer srv.Close()

	payload, err := weights.Encode(weights.Vector{1})
	require.NoError(t, err)
	data, err := cbor.Marshal(coordinator.Submission{
		ModelID:       "demo",
		Round:         1,
		ContributorID: "alice",
		Payload:       payload,
	})
	require.NoError(t, err)

	svc.On("SubmitUpdateCBOR", mock.Anything, data).Return(coordinator.Receipt{
		ModelID:  "demo",
		Round:    1,
		Location: "models/demo/weights",
	}, nil)

	res, err := http.Post(srv.URL+"/models/demo/updates/cbor", "application/cbor", bytes.NewReader(data))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusCreated, res.StatusCode)
	svc.AssertExpectations(t)
}

func TestGetModelEndpoint(t *testing.T) {
	svc := new(mocks.Service)
	srv := newTestServer(svc)
	defer srv.Close()

	svc.On("GetModel", mock.Anything, "demo").Return(coordinator.GlobalModel{
		ModelID: "demo",
		Weights: weights.Vector{1, 2},
		Round:   4,
	}, nil)

	res, err := http.Get(srv.URL + "/models/demo")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var model coordinator.GlobalModel
	require.NoError(t, json.NewDecoder(res.Body).Decode(&model))
	assert.Equal(t, uint64(4), model.Round)
	assert.Equal(t, weights.Vector{1, 2}, model.Weights)
}

func TestGetModelEndpointNotFound(t *testing.T) {
	svc := new(mocks.Service)
	srv := newTestServer(svc)
	defer srv.Close()

	svc.On("GetModel", mock.Anything, "absent").Return(coordinator.GlobalModel{}, pkgerrors.ErrNotFound)

	res, err := http.Get(srv.URL + "/models/absent")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestListHistoryEndpoint(t *testing.T) {
	svc := new(mocks.Service)
	srv := newTestServer(svc)
	defer srv.Close()

	svc.On("History", mock.Anything, "demo", uint64(2), uint64(5)).Return(history.Page{
		Offset: 2,
		Limit:  5,
		Total:  9,
	}, nil)

	res, err := http.Get(srv.URL + "/models/demo/history?offset=2&limit=5")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var page history.Page
	require.NoError(t, json.NewDecoder(res.Body).Decode(&page))
	assert.Equal(t, uint64(9), page.Total)
}

func TestEstimateCostEndpoint(t *testing.T) {
	svc := new(mocks.Service)
	srv := newTestServer(svc)
	defer srv.Close()

	svc.On("EstimatePrivacyCost", mock.Anything, 1.0, 1e-5, 100, 0.01).Return(privacy.Cost{
		Epsilon: 3.39,
		Delta:   1e-5,
	}, nil)

	body := jsonBody(t, map[string]any{
		"epsilon":     1.0,
		"delta":       1e-5,
		"iterations":  100,
		"sample_rate": 0.01,
	})
	res, err := http.Post(srv.URL+"/privacy/estimate", "application/json", body)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var cost privacy.Cost
	require.NoError(t, json.NewDecoder(res.Body).Decode(&cost))
	assert.InDelta(t, 3.39, cost.Epsilon, 1e-9)
}

func TestHealthEndpoint(t *testing.T) {
	svc := new(mocks.Service)
	srv := newTestServer(svc)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
}
