// Package settings holds the user-facing calculator preferences and notifies
// subscribers when they change.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"go-chi-calculator/internal/storage"
)

// StorageKey is the key the settings blob is persisted under.
const StorageKey = "calculator-settings"

// MaxDecimalPlaces bounds DecimalPlaces.
const MaxDecimalPlaces = 10

var ErrInvalidSetting = errors.New("invalid setting")

// Settings is a read-only snapshot of the calculator preferences.
type Settings struct {
	DecimalPlaces     int  `json:"decimalPlaces"`
	ThousandSeparator bool `json:"thousandSeparator"`
	HapticFeedback    bool `json:"hapticFeedback"`
	SoundEffects      bool `json:"soundEffects"`
	AutoCopyResult    bool `json:"autoCopyResult"`
	AutoSaveHistory   bool `json:"autoSaveHistory"`
}

// Defaults returns the factory settings.
func Defaults() Settings {
	return Settings{
		DecimalPlaces:     2,
		ThousandSeparator: true,
		HapticFeedback:    true,
		SoundEffects:      false,
		AutoCopyResult:    false,
		AutoSaveHistory:   true,
	}
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	DecimalPlaces     *int  `json:"decimalPlaces,omitempty"`
	ThousandSeparator *bool `json:"thousandSeparator,omitempty"`
	HapticFeedback    *bool `json:"hapticFeedback,omitempty"`
	SoundEffects      *bool `json:"soundEffects,omitempty"`
	AutoCopyResult    *bool `json:"autoCopyResult,omitempty"`
	AutoSaveHistory   *bool `json:"autoSaveHistory,omitempty"`
}

// Validate reports the first invalid field in p.
func (p Patch) Validate() error {
	if p.DecimalPlaces != nil && (*p.DecimalPlaces < 0 || *p.DecimalPlaces > MaxDecimalPlaces) {
		return fmt.Errorf("%w: decimalPlaces must be between 0 and %d, got %d", ErrInvalidSetting, MaxDecimalPlaces, *p.DecimalPlaces)
	}
	return nil
}

// Apply returns s with the non-nil fields of p applied.
func (p Patch) Apply(s Settings) Settings {
	if p.DecimalPlaces != nil {
		s.DecimalPlaces = *p.DecimalPlaces
	}
	if p.ThousandSeparator != nil {
		s.ThousandSeparator = *p.ThousandSeparator
	}
	if p.HapticFeedback != nil {
		s.HapticFeedback = *p.HapticFeedback
	}
	if p.SoundEffects != nil {
		s.SoundEffects = *p.SoundEffects
	}
	if p.AutoCopyResult != nil {
		s.AutoCopyResult = *p.AutoCopyResult
	}
	if p.AutoSaveHistory != nil {
		s.AutoSaveHistory = *p.AutoSaveHistory
	}
	return s
}

// ChangeFunc receives the settings before and after a change.
type ChangeFunc func(old, updated Settings)

// Provider owns the current settings. It is safe for concurrent use.
type Provider struct {
	mu      sync.RWMutex
	store   storage.Store
	logger  *zap.Logger
	current Settings

	subMu  sync.Mutex
	subs   map[int]ChangeFunc
	nextID int
}

// NewProvider returns a provider holding Defaults. store may be nil, in
// which case nothing is persisted.
func NewProvider(store storage.Store, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		store:   store,
		logger:  logger,
		current: Defaults(),
		subs:    make(map[int]ChangeFunc),
	}
}

// Snapshot returns the current settings.
func (p *Provider) Snapshot() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Load replaces the current settings with the persisted ones. Keys missing
// from the stored blob keep their defaults; an unreadable blob yields the
// defaults.
func (p *Provider) Load(ctx context.Context) Settings {
	loaded := Defaults()

	if p.store != nil {
		raw, err := p.store.Get(ctx, StorageKey)
		switch {
		case err != nil:
			p.logger.Warn("failed to load settings", zap.Error(err))
		case raw != nil:
			var patch Patch
			if err := json.Unmarshal(raw, &patch); err != nil {
				p.logger.Warn("ignoring corrupt settings", zap.Error(err))
				break
			}
			if err := patch.Validate(); err != nil {
				p.logger.Warn("ignoring invalid stored setting", zap.Error(err))
				patch.DecimalPlaces = nil
			}
			loaded = patch.Apply(loaded)
		}
	}

	p.swap(loaded)
	return loaded
}

// Update validates and applies patch, persists the result and notifies
// subscribers. A persistence failure is logged; the change is kept.
func (p *Provider) Update(ctx context.Context, patch Patch) (Settings, error) {
	if err := patch.Validate(); err != nil {
		return p.Snapshot(), err
	}

	p.mu.Lock()
	old := p.current
	p.current = patch.Apply(old)
	updated := p.current
	p.mu.Unlock()

	p.persist(ctx, updated)
	if old != updated {
		p.notify(old, updated)
	}
	return updated, nil
}

// Reset restores the defaults and persists them.
func (p *Provider) Reset(ctx context.Context) Settings {
	defaults := Defaults()
	p.swap(defaults)
	p.persist(ctx, defaults)
	return defaults
}

// Subscribe registers fn to be called after every change. The returned
// function removes the subscription.
func (p *Provider) Subscribe(fn ChangeFunc) func() {
	p.subMu.Lock()
	defer p.subMu.Unlock()

	id := p.nextID
	p.nextID++
	p.subs[id] = fn

	return func() {
		p.subMu.Lock()
		defer p.subMu.Unlock()
		delete(p.subs, id)
	}
}

func (p *Provider) swap(next Settings) {
	p.mu.Lock()
	old := p.current
	p.current = next
	p.mu.Unlock()

	if old != next {
		p.notify(old, next)
	}
}

func (p *Provider) persist(ctx context.Context, s Settings) {
	if p.store == nil {
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		p.logger.Warn("failed to encode settings", zap.Error(err))
		return
	}
	if err := p.store.Set(ctx, StorageKey, raw); err != nil {
		p.logger.Warn("failed to save settings", zap.Error(err))
	}
}

func (p *Provider) notify(old, updated Settings) {
	p.subMu.Lock()
	fns := make([]ChangeFunc, 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.subMu.Unlock()

	for _, fn := range fns {
		fn(old, updated)
	}
}
