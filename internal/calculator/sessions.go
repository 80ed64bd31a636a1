package calculator

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrRegistryClosed  = errors.New("session registry closed")
)

type session struct {
	mu       sync.Mutex
	ctrl     *Controller
	expireAt atomic.Int64
}

// Sessions holds one isolated Controller per session id. Sessions expire
// after ttl without use; a janitor goroutine sweeps them.
type Sessions struct {
	mu          sync.RWMutex
	items       map[string]*session
	ttl         time.Duration
	factory     func() *Controller
	logger      *zap.Logger
	now         func() time.Time
	closed      bool
	janitorOnce sync.Once
	janitorCh   chan struct{}
}

// NewSessions starts a registry whose controllers come from factory. A
// cleanup interval of zero disables the janitor.
func NewSessions(ttl, cleanup time.Duration, factory func() *Controller, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sessions{
		items:     make(map[string]*session),
		ttl:       ttl,
		factory:   factory,
		logger:    logger,
		now:       time.Now,
		janitorCh: make(chan struct{}),
	}

	if cleanup > 0 {
		go func() {
			ticker := time.NewTicker(cleanup)
			defer ticker.Stop()

			for {
				select {
				case <-s.janitorCh:
					return
				case <-ticker.C:
					s.sweep()
				}
			}
		}()
	}
	return s
}

// Create starts a new session and returns its id with the initial snapshot.
func (s *Sessions) Create() (string, Snapshot, error) {
	ctrl := s.factory()
	sess := &session{ctrl: ctrl}
	sess.expireAt.Store(s.now().Add(s.ttl).UnixNano())

	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", Snapshot{}, ErrRegistryClosed
	}
	s.items[id] = sess
	return id, ctrl.Snapshot(), nil
}

// Do runs fn with exclusive access to the session's controller and extends
// the session's lifetime.
func (s *Sessions) Do(id string, fn func(*Controller)) error {
	s.mu.RLock()
	sess, ok := s.items[id]
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return ErrRegistryClosed
	}
	if !ok || s.now().UnixNano() > sess.expireAt.Load() {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess.ctrl)
	sess.expireAt.Store(s.now().Add(s.ttl).UnixNano())
	return nil
}

// Delete ends a session. It reports whether the session existed.
func (s *Sessions) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok
}

// Len returns the number of live sessions. Expired sessions the janitor
// has not swept yet are not counted.
func (s *Sessions) Len() int {
	now := s.now().UnixNano()

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sess := range s.items {
		if now <= sess.expireAt.Load() {
			n++
		}
	}
	return n
}

// Close stops the janitor and drops every session.
func (s *Sessions) Close() {
	s.janitorOnce.Do(func() {
		close(s.janitorCh)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	clear(s.items)
}

func (s *Sessions) sweep() {
	now := s.now().UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.items {
		if now > sess.expireAt.Load() {
			delete(s.items, id)
			s.logger.Debug("session expired", zap.String("session_id", id))
		}
	}
}
