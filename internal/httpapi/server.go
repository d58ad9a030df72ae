package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gamelaunch/internal/launcher"
	"gamelaunch/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Versions() ([]types.InstalledVersion, error)
	Status() types.StatusResponse
	Launch(ctx context.Context, req types.LaunchRequest) (types.TaskStatus, error)
	Stop(id string) error
	Subscribe(taskID string) (<-chan launcher.Event, func())
	Ready() bool
}

// NewMux builds the HTTP router over svc.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(requestLogger)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/versions", func(w http.ResponseWriter, r *http.Request) {
		vs, err := svc.Versions()
		if err != nil {
			writeJSONError(w, statusFor(err), err.Error())
			return
		}
		if vs == nil {
			vs = []types.InstalledVersion{}
		}
		writeJSON(w, http.StatusOK, types.VersionsResponse{Versions: vs})
	})

	r.Get("/tasks", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Post("/launch", func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.LaunchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Version) == "" {
			writeJSONError(w, http.StatusBadRequest, "version is required")
			return
		}
		// the launch outlives this request
		st, err := svc.Launch(serverBaseCtx, req)
		if err != nil {
			writeJSONError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, st)
	})

	r.Post("/tasks/{id}/stop", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := svc.Stop(id); err != nil {
			writeJSONError(w, statusFor(err), err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/tasks/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		serveEvents(w, r, svc, chi.URLParam(r, "id"))
	})
	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		serveEvents(w, r, svc, "")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("java not found"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
