package history

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"go-chi-calculator/internal/handlers"
	"go-chi-calculator/internal/observability"
)

// tracer is the history domain's OpenTelemetry tracer.
var tracer = otel.Tracer("history")

// ListResponse is the JSON body of GET /history.
type ListResponse struct {
	Entries []Entry `json:"entries"`
}

// Handler exposes a Recorder over HTTP.
type Handler struct {
	recorder *Recorder
}

func NewHandler(r *Recorder) *Handler {
	return &Handler{recorder: r}
}

// RegisterRoutes mounts the history endpoints under /history.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/", h.List)
		r.Delete("/", h.Clear)
	})
}

// List handles GET /history
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	_, span := startSpan(r, "list_history")
	defer span.End()

	entries := h.recorder.Entries()
	if entries == nil {
		entries = []Entry{}
	}

	span.SetAttributes(attribute.Int("history.entries", len(entries)))
	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, ListResponse{Entries: entries})
}

// Clear handles DELETE /history
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "clear_history")
	defer span.End()

	h.recorder.Clear(ctx)

	span.SetStatus(codes.Ok, "")
	observability.LoggerWithTrace(ctx).Info("history cleared",
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)
	w.WriteHeader(http.StatusNoContent)
}

func startSpan(r *http.Request, opName string) (context.Context, trace.Span) {
	ctx := r.Context()
	return tracer.Start(ctx, "history."+opName,
		trace.WithAttributes(
			attribute.String("history.operation", opName),
			attribute.String("request.id", observability.RequestIDFromContext(ctx)),
		),
	)
}
