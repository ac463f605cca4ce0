// Package respond writes JSON responses and maps ledger errors onto HTTP
// status codes.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/chris/tin/pkg/api"
	"github.com/chris/tin/pkg/commands"
	"github.com/chris/tin/pkg/storage"
)

// Error kinds reported in the error body.
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindConstraint = "constraint"
	KindConflict   = "conflict"
	KindInternal   = "internal"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// BadRequest reports a request that could not be decoded.
func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, api.Error{Error: api.ErrorBody{Kind: KindValidation, Message: message}})
}

// Error maps err onto a status code and error body. Unknown errors are
// logged and reported as 500 without leaking their text.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *storage.ValidationError
		notFound   *storage.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		field := validation.Field
		JSON(w, http.StatusBadRequest, api.Error{Error: api.ErrorBody{Kind: KindValidation, Field: &field, Message: err.Error()}})
	case errors.As(err, &notFound):
		JSON(w, http.StatusNotFound, api.Error{Error: api.ErrorBody{Kind: KindNotFound, Message: err.Error()}})
	case errors.Is(err, commands.ErrUnknownCommand):
		JSON(w, http.StatusNotFound, api.Error{Error: api.ErrorBody{Kind: KindNotFound, Message: err.Error()}})
	case errors.Is(err, storage.ErrConstraint):
		JSON(w, http.StatusConflict, api.Error{Error: api.ErrorBody{Kind: KindConstraint, Message: err.Error()}})
	case errors.Is(err, storage.ErrConflict):
		JSON(w, http.StatusConflict, api.Error{Error: api.ErrorBody{Kind: KindConflict, Message: err.Error()}})
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		JSON(w, http.StatusInternalServerError, api.Error{Error: api.ErrorBody{Kind: KindInternal, Message: "internal error"}})
	}
}

// ParamError is used as the router's error handler for parameters that
// cannot be bound.
func ParamError(w http.ResponseWriter, r *http.Request, err error) {
	BadRequest(w, err.Error())
}
