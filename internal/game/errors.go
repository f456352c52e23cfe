package game

import (
	"fmt"
	"net/http"
)

// Code classifies game errors for the API error contract.
type Code string

const (
	CodeNotFound         Code = "NOT_FOUND"
	CodeInvalidState     Code = "INVALID_STATE"
	CodeBudgetExhausted  Code = "BUDGET_EXHAUSTED"
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeOracleFailure    Code = "ORACLE_UNAVAILABLE"
	CodeInternal         Code = "INTERNAL"
)

// Error is the structured game error surfaced to API clients. Retryable tells
// the client whether the same request may succeed later without changes.
// Detail carries structured context as a JSON object.
type Error struct {
	Code      Code           `json:"error_code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Detail    map[string]any `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Detail) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s %v", e.Code, e.Message, e.Detail)
}

// HTTPStatus maps the error code to the response status.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState, CodeBudgetExhausted:
		return http.StatusConflict
	case CodeValidationFailed:
		return http.StatusBadRequest
	case CodeOracleFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func notFoundError(id string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: "session not found",
		Detail:  map[string]any{"id": id},
	}
}

func invalidStateError(current Status, operation string) *Error {
	return &Error{
		Code:    CodeInvalidState,
		Message: fmt.Sprintf("operation %s is not allowed in status %s", operation, current),
		Detail:  map[string]any{"status": string(current), "operation": operation},
	}
}

func budgetExhaustedError() *Error {
	return &Error{
		Code:    CodeBudgetExhausted,
		Message: "no questions remaining",
		Detail:  map[string]any{"questions_remaining": 0},
	}
}

func validationError(reason string) *Error {
	return &Error{
		Code:    CodeValidationFailed,
		Message: "request failed validation",
		Detail:  map[string]any{"reason": reason},
	}
}

func oracleError(reason string) *Error {
	return &Error{
		Code:      CodeOracleFailure,
		Message:   "the game master is temporarily unavailable",
		Retryable: true,
		Detail:    map[string]any{"reason": reason},
	}
}
