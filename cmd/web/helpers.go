package main

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/ahietala/whodunit/internal/errors"
	"github.com/ahietala/whodunit/internal/game"
)

const maxRequestBody = 1 << 20

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "encode response", errors.SlogError(err))
	}
}

// writeGameError renders errors in the API error contract. Game errors map to
// their own status codes; anything else becomes an opaque 500.
func (app *application) writeGameError(w http.ResponseWriter, r *http.Request, err error) {
	var gameErr *game.Error
	if stderrors.As(err, &gameErr) {
		app.writeJSON(w, r, gameErr.HTTPStatus(), gameErr)
		return
	}
	app.serverError(w, r, err)
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	app.writeJSON(w, r, http.StatusInternalServerError, &game.Error{
		Code:    game.CodeInternal,
		Message: "internal error",
	})
}

// decodeJSON decodes the request body into dst, rejecting unknown fields and
// oversized bodies.
func (app *application) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		app.writeJSON(w, r, http.StatusBadRequest, &game.Error{
			Code:    game.CodeValidationFailed,
			Message: "request body is not valid JSON for this endpoint",
		})
		return false
	}
	return true
}
