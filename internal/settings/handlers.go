package settings

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"go-chi-calculator/internal/handlers"
	"go-chi-calculator/internal/observability"
)

// maxBodyBytes bounds a PATCH /settings body.
const maxBodyBytes = 4 << 10

// Handler exposes the provider over HTTP.
type Handler struct {
	provider *Provider
}

func NewHandler(p *Provider) *Handler {
	return &Handler{provider: p}
}

// RegisterRoutes mounts the settings endpoints under /settings.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.Patch)
		r.Post("/reset", h.Reset)
	})
}

// Get handles GET /settings
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	_, span := startSpan(r, "get_settings")
	defer span.End()

	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, h.provider.Snapshot())
}

// Patch handles PATCH /settings
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "update_settings")
	defer span.End()
	logger := observability.LoggerWithTrace(ctx)

	// --- 1. Decode request body ---
	var patch Patch
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&patch); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "update_settings", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	// --- 2. Validate, apply and persist ---
	updated, err := h.provider.Update(ctx, patch)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "update_settings", err.Error(), err, http.StatusBadRequest, w)
		return
	}

	// --- 3. Log and respond ---
	span.SetStatus(codes.Ok, "")
	logger.Info("settings updated",
		zap.Any("settings", updated),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)
	handlers.WriteJSON(w, http.StatusOK, updated)
}

// Reset handles POST /settings/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "reset_settings")
	defer span.End()

	reset := h.provider.Reset(ctx)

	span.SetStatus(codes.Ok, "")
	observability.LoggerWithTrace(ctx).Info("settings reset",
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)
	handlers.WriteJSON(w, http.StatusOK, reset)
}

func startSpan(r *http.Request, opName string) (context.Context, trace.Span) {
	ctx := r.Context()
	return tracer.Start(ctx, "settings."+opName,
		trace.WithAttributes(
			attribute.String("settings.operation", opName),
			attribute.String("request.id", observability.RequestIDFromContext(ctx)),
		),
	)
}
