package sdk

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/absmach/fedrelay/coordinator"
	"github.com/absmach/fedrelay/pkg/history"
	"github.com/absmach/fedrelay/pkg/privacy"
	"github.com/absmach/fedrelay/pkg/weights"
)

const CTJSON string = "application/json"

type SDK interface {
	// SubmitUpdate uploads one weight update for a model round. When
	// params is non-nil the update is clipped and noised locally before
	// any byte leaves the process; the coordinator only ever sees the
	// privatized vector.
	//
	// example:
	//  receipt, _ := sdk.SubmitUpdate("mnist", 3, "alice", vector, &params)
	//  fmt.Println(receipt.Location)
	SubmitUpdate(modelID string, round uint64, contributorID string, v weights.Vector, params *privacy.Params) (coordinator.Receipt, error)

	// GetModel fetches the current global model state.
	//
	// example:
	//  model, _ := sdk.GetModel("mnist")
	//  fmt.Println(model.Round)
	GetModel(modelID string) (coordinator.GlobalModel, error)

	// History lists audit records for a model.
	//
	// example:
	//  page, _ := sdk.History("mnist", 0, 10)
	//  fmt.Println(page.Total)
	History(modelID string, offset, limit uint64) (history.Page, error)

	// EstimateCost reports the heuristic composed privacy cost of
	// repeated participation.
	//
	// example:
	//  cost, _ := sdk.EstimateCost(1.0, 1e-5, 100, 0.01)
	//  fmt.Println(cost.Epsilon)
	EstimateCost(epsilon, delta float64, iterations int, sampleRate float64) (privacy.Cost, error)
}

type fedSDK struct {
	coordinatorURL string
	client         *http.Client
}

type Config struct {
	CoordinatorURL  string
	TLSVerification bool
}

func NewSDK(cfg Config) SDK {
	return &fedSDK{
		coordinatorURL: cfg.CoordinatorURL,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

func (sdk *fedSDK) SubmitUpdate(modelID string, round uint64, contributorID string, v weights.Vector, params *privacy.Params) (coordinator.Receipt, error) {
	if params != nil {
		privatized, err := privacy.Apply(v, *params)
		if err != nil {
			return coordinator.Receipt{}, err
		}
		v = privatized
	}

	payload, err := weights.Encode(v)
	if err != nil {
		return coordinator.Receipt{}, err
	}

	sub := coordinator.Submission{
		ModelID:       modelID,
		Round:         round,
		ContributorID: contributorID,
		Payload:       payload,
		SubmittedAt:   time.Now().UTC(),
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return coordinator.Receipt{}, err
	}

	url := fmt.Sprintf("%s/models/%s/updates", sdk.coordinatorURL, modelID)

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusCreated)
	if err != nil {
		return coordinator.Receipt{}, err
	}

	var receipt coordinator.Receipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		return coordinator.Receipt{}, err
	}

	return receipt, nil
}

func (sdk *fedSDK) GetModel(modelID string) (coordinator.GlobalModel, error) {
	url := fmt.Sprintf("%s/models/%s", sdk.coordinatorURL, modelID)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return coordinator.GlobalModel{}, err
	}

	var model coordinator.GlobalModel
	if err := json.Unmarshal(body, &model); err != nil {
		return coordinator.GlobalModel{}, err
	}

	return model, nil
}

func (sdk *fedSDK) History(modelID string, offset, limit uint64) (history.Page, error) {
	url := fmt.Sprintf("%s/models/%s/history?offset=%d&limit=%d", sdk.coordinatorURL, modelID, offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return history.Page{}, err
	}

	var page history.Page
	if err := json.Unmarshal(body, &page); err != nil {
		return history.Page{}, err
	}

	return page, nil
}

func (sdk *fedSDK) EstimateCost(epsilon, delta float64, iterations int, sampleRate float64) (privacy.Cost, error) {
	reqBody := map[string]any{
		"epsilon":     epsilon,
		"delta":       delta,
		"iterations":  iterations,
		"sample_rate": sampleRate,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return privacy.Cost{}, err
	}

	url := sdk.coordinatorURL + "/privacy/estimate"

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusOK)
	if err != nil {
		return privacy.Cost{}, err
	}

	var cost privacy.Cost
	if err := json.Unmarshal(body, &cost); err != nil {
		return privacy.Cost{}, err
	}

	return cost, nil
}

func (sdk *fedSDK) processRequest(method, reqURL string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		return []byte{}, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
	}

	return body, nil
}
