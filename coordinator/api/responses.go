package api

import (
	"net/http"

	"github.com/absmach/supermq"

	"github.com/absmach/fedrelay/coordinator"
	"github.com/absmach/fedrelay/pkg/history"
	"github.com/absmach/fedrelay/pkg/privacy"
)

var (
	_ supermq.Response = (*receiptResponse)(nil)
	_ supermq.Response = (*modelResponse)(nil)
	_ supermq.Response = (*historyResponse)(nil)
	_ supermq.Response = (*costResponse)(nil)
)

type receiptResponse struct {
	coordinator.Receipt
}

func (r receiptResponse) Code() int {
	return http.StatusCreated
}

func (r receiptResponse) Headers() map[string]string {
	return map[string]string{
		"Location": r.Location,
	}
}

func (r receiptResponse) Empty() bool {
	return false
}

type modelResponse struct {
	coordinator.GlobalModel
}

func (r modelResponse) Code() int {
	return http.StatusOK
}

func (r modelResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r modelResponse) Empty() bool {
	return false
}

type historyResponse struct {
	history.Page
}

func (r historyResponse) Code() int {
	return http.StatusOK
}

func (r historyResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r historyResponse) Empty() bool {
	return false
}

type costResponse struct {
	privacy.Cost
}

func (r costResponse) Code() int {
	return http.StatusOK
}

func (r costResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r costResponse) Empty() bool {
	return false
}
