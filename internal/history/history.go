// Package history keeps the capped, time-windowed log of completed
// calculations and persists it through a storage.Store.
package history

import (
	"context"
	"encoding/json"
	"slices"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-chi-calculator/internal/storage"
)

// StorageKey is the key the history list is persisted under.
const StorageKey = "calculatorHistory"

const (
	MaxEntries = 100
	MaxAgeDays = 30
)

// Entry is one completed calculation.
type Entry struct {
	Expression string    `json:"expression"`
	Result     string    `json:"result"`
	Timestamp  time.Time `json:"timestamp"`
}

// Recorder owns the history list. Mutations are serialised, so concurrent
// Record calls never lose updates.
type Recorder struct {
	mu      sync.Mutex
	store   storage.Store
	logger  *zap.Logger
	now     func() time.Time
	entries []Entry
}

type Option func(*Recorder)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

// NewRecorder returns an empty recorder. store may be nil, in which case
// history lives in memory only.
func NewRecorder(store storage.Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Entries returns the history, most recent first.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

// Record prepends a new entry, evicts by age and capacity, then persists the
// list. A persistence failure is logged and does not undo the change.
func (r *Recorder) Record(ctx context.Context, expression, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := Entry{Expression: expression, Result: result, Timestamp: r.now()}

	next := make([]Entry, 0, len(r.entries)+1)
	next = append(next, entry)
	next = append(next, r.entries...)
	r.entries = r.prune(next)

	r.persist(ctx, r.entries)
}

// Load replaces the in-memory history with the persisted list. Invalid
// entries are dropped; if nothing valid remains of a non-empty blob the key
// is deleted.
func (r *Recorder) Load(ctx context.Context) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	if r.store == nil {
		return nil
	}

	raw, err := r.store.Get(ctx, StorageKey)
	if err != nil {
		r.logger.Warn("failed to load history", zap.Error(err))
		return nil
	}
	if raw == nil {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		r.logger.Warn("discarding corrupt history", zap.Error(err))
		r.remove(ctx)
		return nil
	}
	if len(items) == 0 {
		return nil
	}

	valid := make([]Entry, 0, len(items))
	for _, item := range items {
		if e, ok := decodeEntry(item); ok {
			valid = append(valid, e)
		}
	}
	if len(valid) == 0 {
		r.logger.Warn("discarding corrupt history", zap.Int("entries", len(items)))
		r.remove(ctx)
		return nil
	}

	slices.SortStableFunc(valid, func(a, b Entry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	r.entries = r.prune(valid)

	if len(r.entries) != len(items) {
		r.logger.Info("pruned history",
			zap.Int("stored", len(items)),
			zap.Int("kept", len(r.entries)),
		)
		r.persist(ctx, r.entries)
	}

	return slices.Clone(r.entries)
}

// Clear empties the history and deletes the persisted key.
func (r *Recorder) Clear(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.remove(ctx)
}

// prune returns the entries inside the age window, capped at MaxEntries.
// entries must be most recent first.
func (r *Recorder) prune(entries []Entry) []Entry {
	cutoff := r.now().AddDate(0, 0, -MaxAgeDays)

	kept := make([]Entry, 0, min(len(entries), MaxEntries))
	for _, e := range entries {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		kept = append(kept, e)
		if len(kept) == MaxEntries {
			break
		}
	}
	return kept
}

func (r *Recorder) persist(ctx context.Context, entries []Entry) {
	if r.store == nil {
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		r.logger.Warn("failed to encode history", zap.Error(err))
		return
	}
	if err := r.store.Set(ctx, StorageKey, raw); err != nil {
		r.logger.Warn("failed to save history", zap.Error(err))
	}
}

func (r *Recorder) remove(ctx context.Context) {
	if r.store == nil {
		return
	}
	if err := r.store.Delete(ctx, StorageKey); err != nil {
		r.logger.Warn("failed to delete history", zap.Error(err))
	}
}

// storedEntry accepts both the current shape and lists written by the
// earlier web client, which used "calculation" and a numeric result.
type storedEntry struct {
	Expression  *string         `json:"expression"`
	Calculation *string         `json:"calculation"`
	Result      json.RawMessage `json:"result"`
	Timestamp   string          `json:"timestamp"`
}

func decodeEntry(raw json.RawMessage) (Entry, bool) {
	var s storedEntry
	if err := json.Unmarshal(raw, &s); err != nil {
		return Entry{}, false
	}

	expression := s.Expression
	if expression == nil {
		expression = s.Calculation
	}
	if expression == nil {
		return Entry{}, false
	}

	result, ok := decodeResult(s.Result)
	if !ok {
		return Entry{}, false
	}

	ts, err := time.Parse(time.RFC3339Nano, s.Timestamp)
	if err != nil {
		return Entry{}, false
	}

	return Entry{Expression: *expression, Result: result, Timestamp: ts}, true
}

func decodeResult(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}
