package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"go-chi-calculator/internal/handlers"
	"go-chi-calculator/internal/observability"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

var errNoInputs = errors.New("inputs must not be empty")

// maxBodyBytes bounds the JSON body of the input-carrying endpoints.
const maxBodyBytes = 64 << 10

// Handler serves calculator sessions over HTTP.
type Handler struct {
	sessions      *Sessions
	newController func() *Controller
}

// NewHandler serves the sessions in s. newController builds the throwaway
// controller used by POST /calculator/evaluate.
func NewHandler(s *Sessions, newController func() *Controller) *Handler {
	return &Handler{sessions: s, newController: newController}
}

// CreateSession handles POST /calculator/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := h.start(r, "create_session")
	defer span.End()

	id, snap, err := h.sessions.Create()
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "create_session", "session registry unavailable", err, http.StatusServiceUnavailable, w)
		return
	}

	span.SetAttributes(attribute.String("calculator.session.id", id))
	span.SetStatus(codes.Ok, "")
	logger.Info("calculator session created",
		zap.String("session_id", id),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	handlers.WriteJSON(w, http.StatusCreated, SessionResponse{SessionID: id, Snapshot: snap})
}

// GetSession handles GET /calculator/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := h.start(r, "get_session")
	defer span.End()

	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("calculator.session.id", id))

	var snap Snapshot
	err := h.sessions.Do(id, func(c *Controller) {
		snap = c.Snapshot()
	})
	if err != nil {
		h.sessionError(ctx, span, logger, "get_session", err, w)
		return
	}

	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, SessionResponse{SessionID: id, Snapshot: snap})
}

// PostInputs handles POST /calculator/sessions/{id}/inputs
func (h *Handler) PostInputs(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := h.start(r, "inputs")
	defer span.End()

	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("calculator.session.id", id))

	// --- 1. Decode and resolve every input before touching the session ---
	tokens, err := decodeInputs(w, r)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "inputs", err.Error(), err, http.StatusBadRequest, w)
		return
	}
	span.SetAttributes(attribute.Int("calculator.inputs.count", len(tokens)))

	// --- 2. Apply the inputs under the session lock ---
	var resp SessionResponse
	err = h.sessions.Do(id, func(c *Controller) {
		resp = applyInputs(ctx, span, c, tokens)
	})
	if err != nil {
		h.sessionError(ctx, span, logger, "inputs", err, w)
		return
	}
	resp.SessionID = id

	// --- 3. Log and respond ---
	span.SetStatus(codes.Ok, "")
	logger.Info("calculator inputs applied",
		zap.String("session_id", id),
		zap.Int("inputs", len(tokens)),
		zap.Stringer("phase", resp.Phase),
		zap.String("display", resp.Display),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	handlers.WriteJSON(w, http.StatusOK, resp)
}

// DeleteSession handles DELETE /calculator/sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := h.start(r, "delete_session")
	defer span.End()

	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("calculator.session.id", id))

	if !h.sessions.Delete(id) {
		h.sessionError(ctx, span, logger, "delete_session", ErrSessionNotFound, w)
		return
	}

	span.SetStatus(codes.Ok, "")
	logger.Info("calculator session deleted",
		zap.String("session_id", id),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)
	w.WriteHeader(http.StatusNoContent)
}

// Evaluate handles POST /calculator/evaluate. The inputs run against a fresh
// controller that is discarded afterwards.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := h.start(r, "evaluate")
	defer span.End()

	tokens, err := decodeInputs(w, r)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "evaluate", err.Error(), err, http.StatusBadRequest, w)
		return
	}
	span.SetAttributes(attribute.Int("calculator.inputs.count", len(tokens)))

	resp := applyInputs(ctx, span, h.newController(), tokens)

	span.SetStatus(codes.Ok, "")
	logger.Info("calculator inputs evaluated",
		zap.Int("inputs", len(tokens)),
		zap.String("display", resp.Display),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	handlers.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) start(r *http.Request, opName string) (context.Context, trace.Span, *zap.Logger) {
	ctx := r.Context()
	ctx, span := tracer.Start(ctx, fmt.Sprintf("calculator.%s", opName),
		trace.WithAttributes(
			attribute.String("calculator.operation", opName),
			attribute.String("request.id", observability.RequestIDFromContext(ctx)),
		),
	)
	return ctx, span, observability.LoggerWithTrace(ctx)
}

func (h *Handler) sessionError(ctx context.Context, span trace.Span, logger *zap.Logger, opName string, err error, w http.ResponseWriter) {
	status := http.StatusNotFound
	if errors.Is(err, ErrRegistryClosed) {
		status = http.StatusServiceUnavailable
	}
	observability.RecordError(ctx, span, logger, errorCounter, opName, err.Error(), err, status, w)
}

func decodeInputs(w http.ResponseWriter, r *http.Request) ([]Token, error) {
	var req InputRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if len(req.Inputs) == 0 {
		return nil, errNoInputs
	}

	tokens := make([]Token, 0, len(req.Inputs))
	for _, in := range req.Inputs {
		t, err := Lookup(in)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

// applyInputs feeds tokens to c and records per-input and per-commit
// telemetry. The response carries the final snapshot and the last commit.
func applyInputs(ctx context.Context, span trace.Span, c *Controller, tokens []Token) SessionResponse {
	var resp SessionResponse
	resp.Snapshot = c.Snapshot()

	for _, t := range tokens {
		start := time.Now()
		out := c.HandleInput(ctx, t)
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0 // ms

		inputCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", t.Kind.String())))
		resp.Snapshot = out.Snapshot

		if out.Committed == nil {
			continue
		}
		recordCommit(ctx, span, *out.Committed, elapsed)
		resp.Committed = newCommitResult(*out.Committed)
	}
	return resp
}

func recordCommit(ctx context.Context, span trace.Span, r Result, elapsed float64) {
	outcome := outcomeLabel(r.Err)
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	evalCounter.Add(ctx, 1, attrs)
	evalDuration.Record(ctx, elapsed, attrs)

	if !r.OK() {
		span.AddEvent("evaluation.failed", trace.WithAttributes(
			attribute.String("errorReason", outcome),
		))
		return
	}

	resultGauge.Record(ctx, r.Value)
	span.AddEvent("evaluation.complete", trace.WithAttributes(
		attribute.Float64("result", r.Value),
		attribute.Float64("duration_ms", elapsed),
	))
}
