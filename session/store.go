// Package session holds the process wide authentication state.
//
// The token is persisted through a TokenStore and restored when the Store is built.
// Reads never observe a partially written token.
package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/goliatone/go-catalog-admin/auth"
	"github.com/goliatone/go-catalog-admin/errs"
)

// TokenStore is durable storage for the session token.
type TokenStore interface {
	Load(ctx context.Context) (string, bool, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Hook runs after a session transition.
type Hook func(ctx context.Context)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOnLogin registers hook to run after every successful Login.
func WithOnLogin(hook Hook) Option {
	return func(s *Store) { s.OnLogin(hook) }
}

// Store is the session store.
type Store struct {
	persist TokenStore
	token   atomic.Pointer[string]
	logger  *zap.Logger

	// mu serializes Login, Logout and Reset so the durable and in-memory copies agree.
	mu      sync.Mutex
	hooksMu sync.RWMutex
	onLogin []Hook
	onReset []Hook
}

// New builds a Store and restores any token found in persist.
func New(ctx context.Context, persist TokenStore, opts ...Option) (*Store, error) {
	s := &Store{persist: persist, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	tok, ok, err := persist.Load(ctx)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindUnknown, "could not restore session")
	}
	if ok && tok != "" {
		s.token.Store(&tok)
		s.logger.Debug("session restored", zap.Bool("mock", auth.IsMockToken(tok)))
	}
	return s, nil
}

// OnLogin registers hook to run after every successful Login.
func (s *Store) OnLogin(hook Hook) {
	if hook == nil {
		return
	}
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.onLogin = append(s.onLogin, hook)
}

// OnReset registers hook to run after every Reset.
func (s *Store) OnReset(hook Hook) {
	if hook == nil {
		return
	}
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.onReset = append(s.onReset, hook)
}

// Login persists token, makes it current and runs the login hooks.
func (s *Store) Login(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errs.New(errs.KindValidation, "token must not be empty")
	}

	s.mu.Lock()
	if err := s.persist.Save(ctx, token); err != nil {
		s.mu.Unlock()
		return errs.Wrap(err, errs.KindUnknown, "could not persist session")
	}
	s.token.Store(&token)
	s.mu.Unlock()

	s.logger.Info("logged in", zap.Bool("mock", auth.IsMockToken(token)))
	s.run(ctx, s.loginHooks())
	return nil
}

// Logout clears the durable and in-memory token. Cached data is left alone.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist.Clear(ctx); err != nil {
		return errs.Wrap(err, errs.KindUnknown, "could not clear session")
	}
	s.token.Store(nil)
	s.logger.Info("logged out")
	return nil
}

// Reset clears the session like Logout and then runs the reset hooks.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.Logout(ctx); err != nil {
		return err
	}
	s.hooksMu.RLock()
	hooks := append([]Hook(nil), s.onReset...)
	s.hooksMu.RUnlock()
	s.run(ctx, hooks)
	return nil
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	return s.token.Load() != nil
}

// Token returns the current token.
func (s *Store) Token() (string, bool) {
	p := s.token.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

// IsMock reports whether the current token was synthesized locally.
func (s *Store) IsMock() bool {
	tok, ok := s.Token()
	return ok && auth.IsMockToken(tok)
}

// Guard fails with UNAUTHENTICATED when there is no session.
func (s *Store) Guard() error {
	if s.IsAuthenticated() {
		return nil
	}
	return errs.New(errs.KindUnauthenticated, errs.MsgUnauthenticated)
}

func (s *Store) loginHooks() []Hook {
	s.hooksMu.RLock()
	defer s.hooksMu.RUnlock()
	return append([]Hook(nil), s.onLogin...)
}

func (s *Store) run(ctx context.Context, hooks []Hook) {
	for _, h := range hooks {
		h(ctx)
	}
}
