// Package api holds the request and response bodies of the HTTP API. The
// contract is described in api.yaml.
package api

import (
	"time"

	"github.com/oapi-codegen/runtime/types"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type SystemInfo struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type MovieInfoRequest struct {
	Name        string      `json:"name"`
	Year        int         `json:"year"`
	Cast        []string    `json:"cast"`
	ReleaseDate *types.Date `json:"releaseDate,omitempty"`
}

type MovieInfoResponse struct {
	Id          string      `json:"movieInfoId"`
	Name        string      `json:"name"`
	Year        int         `json:"year"`
	Cast        []string    `json:"cast"`
	ReleaseDate *types.Date `json:"releaseDate,omitempty"`
}
