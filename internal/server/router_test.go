package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/history"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/settings"
	"go-chi-calculator/internal/storage"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	observability.Logger = zap.NewNop()
	if err := calculator.InitMetrics(); err != nil {
		t.Fatalf("initializing calculator metrics: %v", err)
	}

	store := storage.NewMemory()
	recorder := history.NewRecorder(store)
	provider := settings.NewProvider(store, nil)

	factory := func() *calculator.Controller {
		return calculator.NewController(provider, calculator.WithHistory(recorder))
	}
	sessions := calculator.NewSessions(time.Minute, 0, factory, nil)
	t.Cleanup(sessions.Close)

	return NewRouter(Routes{
		Calculator: calculator.NewHandler(sessions, factory),
		History:    history.NewHandler(recorder),
		Settings:   settings.NewHandler(provider),
	})
}

func TestNewRouterHealthEndpoint(t *testing.T) {
	router := NewRouter(Routes{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	if body := w.Body.String(); body != "ok" {
		t.Fatalf("expected body %q, got %q", "ok", body)
	}
}

func TestNewRouterEvaluateSetsHeaderAndOmitsRequestIDInBody(t *testing.T) {
	router := newTestRouter(t)

	body := []byte(`{"inputs":["2","+","3","="]}`)
	req := httptest.NewRequest(http.MethodPost, "/calculator/evaluate", bytes.NewReader(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	requestID := w.Result().Header.Get("X-Request-ID")
	if requestID == "" {
		t.Fatal("expected X-Request-ID header to be set")
	}
	if _, err := uuid.Parse(requestID); err != nil {
		t.Fatalf("expected valid UUID in X-Request-ID, got %q: %v", requestID, err)
	}

	var payload map[string]any
	if err := json.NewDecoder(w.Result().Body).Decode(&payload); err != nil {
		t.Fatalf("decoding JSON response: %v", err)
	}

	if _, ok := payload["request_id"]; ok {
		t.Fatal("did not expect request_id field in success JSON body")
	}

	if got, ok := payload["display"].(string); !ok || got != "5" {
		t.Fatalf("expected display 5, got %#v", payload["display"])
	}
}

func TestNewRouterRecordsHistoryAndAppliesSettings(t *testing.T) {
	router := newTestRouter(t)

	patch := httptest.NewRequest(http.MethodPatch, "/settings", bytes.NewBufferString(`{"decimalPlaces":4}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, patch)
	if w.Code != http.StatusOK {
		t.Fatalf("expected settings update to succeed, got %d: %s", w.Code, w.Body.String())
	}

	eval := httptest.NewRequest(http.MethodPost, "/calculator/evaluate", bytes.NewBufferString(`{"inputs":["1","÷","3","="]}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, eval)

	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decoding JSON response: %v", err)
	}
	if result["display"] != "0.3333" {
		t.Fatalf("expected display 0.3333, got %#v", result["display"])
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history", nil))

	var list history.ListResponse
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("decoding JSON response: %v", err)
	}
	if len(list.Entries) != 1 || list.Entries[0].Expression != "1÷3" || list.Entries[0].Result != "0.3333" {
		t.Fatalf("unexpected history %+v", list.Entries)
	}
}
