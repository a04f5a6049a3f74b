package api

import (
	apiutil "github.com/absmach/supermq/api/http/util"

	"github.com/absmach/fedrelay/coordinator"
)

type submitUpdateReq struct {
	coordinator.Submission `json:",inline"`
}

func (r *submitUpdateReq) validate() error {
	if r.ModelID == "" {
		return apiutil.ErrMissingID
	}

	return r.Submission.Validate()
}

type submitUpdateCBORReq struct {
	data []byte
}

func (r *submitUpdateCBORReq) validate() error {
	if len(r.data) == 0 {
		return apiutil.ErrEmptyList
	}

	return nil
}

type entityReq struct {
	id string
}

func (r *entityReq) validate() error {
	if r.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type historyReq struct {
	id            string
	offset, limit uint64
}

func (r *historyReq) validate() error {
	if r.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type estimateCostReq struct {
	Epsilon    float64 `json:"epsilon"`
	Delta      float64 `json:"delta"`
	Iterations int     `json:"iterations"`
	SampleRate float64 `json:"sample_rate"`
}

func (r *estimateCostReq) validate() error {
	return nil
}
