// Package api defines the JSON response envelopes and the mapping from
// domain errors to HTTP status codes.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vaporlogic/manualqa/internal/domain"
)

// SuccessResponse wraps successful payloads under a data key.
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse carries a single error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes data as a JSON body with the given status.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, SuccessResponse{Data: data})
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

var errorStatus = map[string]int{
	domain.ErrCodeValidation:           http.StatusBadRequest,
	domain.ErrCodeNotFound:             http.StatusNotFound,
	domain.ErrCodeNotInitialized:       http.StatusServiceUnavailable,
	domain.ErrCodeResourceInsufficient: http.StatusServiceUnavailable,
	domain.ErrCodeExtraction:           http.StatusUnprocessableEntity,
	domain.ErrCodeGeneration:           http.StatusBadGateway,
}

// DomainErrorToHTTP resolves the HTTP status for err, unwrapping to find a
// DomainError. Unrecognized errors map to 500.
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var derr *domain.DomainError
	if errors.As(err, &derr) {
		if status, ok := errorStatus[derr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// HandleError writes err with its mapped status.
func HandleError(w http.ResponseWriter, err error) {
	Error(w, DomainErrorToHTTP(err), err.Error())
}
