package httpapi

import (
	"encoding/json"
	"net/http"

	"gamelaunch/internal/args"
	"gamelaunch/internal/launcher"
	"gamelaunch/internal/manifest"
	"gamelaunch/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps well-known launcher errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case manifest.IsMissingManifest(err), launcher.IsTaskNotFound(err):
		return http.StatusNotFound
	case launcher.IsAlreadyRunning(err):
		return http.StatusConflict
	case manifest.IsInvalidManifest(err), args.IsMissingArguments(err), args.IsMissingMainArtifact(err):
		return http.StatusUnprocessableEntity
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}
