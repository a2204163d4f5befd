package gateway

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	appctx "github.com/KeyurIITGN/Strife/libs/context"
	errorutils "github.com/KeyurIITGN/Strife/libs/errors"
	"github.com/KeyurIITGN/Strife/libs/logging"

	cache "github.com/patrickmn/go-cache"
	uuid "github.com/satori/go.uuid"
)

// Session is one minted token and the account it is bound to.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Bank      string    `json:"bank"`
	AccountID string    `json:"account_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired - whether the session is past its expiry
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// TokenStore holds active sessions keyed by token string, persisted to a
// JSON file so a gateway restart keeps clients authenticated. Expired
// entries are filtered at load and swept periodically.
type TokenStore struct {
	mu    sync.Mutex
	cache *cache.Cache
	path  string
	ttl   time.Duration
	stop  chan struct{}
}

// NewTokenStore loads the persisted token table, dropping expired entries.
func NewTokenStore(ctx context.Context, path string, ttl time.Duration) (*TokenStore, error) {
	logger := logging.Logger(ctx, "gateway.NewTokenStore")

	s := &TokenStore{
		cache: cache.New(ttl, 0),
		path:  path,
		ttl:   ttl,
		stop:  make(chan struct{}),
	}

	sessions, err := s.load()
	if err != nil {
		return nil, errorutils.Wrap(err, "could not load token table")
	}

	active := 0
	for _, session := range sessions {
		if session.Expired() {
			continue
		}
		s.cache.Set(session.Token, session, time.Until(session.ExpiresAt))
		active++
	}
	if active != len(sessions) {
		// drop the expired entries from disk as well
		if err := s.persist(); err != nil {
			return nil, err
		}
	}

	logger.Info().Int("active", active).Msg("token table loaded")
	return s, nil
}

// Mint binds a fresh token to the verified account and persists the table.
func (s *TokenStore) Mint(ctx context.Context, username, bank, accountID string) (*Session, error) {
	session := &Session{
		Token:     username + "-" + uuid.NewV4().String(),
		Username:  username,
		Bank:      bank,
		AccountID: accountID,
		ExpiresAt: time.Now().Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Set(session.Token, session, s.ttl)
	if err := s.persist(); err != nil {
		s.cache.Delete(session.Token)
		return nil, errorutils.Wrap(err, "could not persist token table")
	}
	return session, nil
}

// Lookup resolves a token, rejecting unknown and expired entries.
func (s *TokenStore) Lookup(token string) (*Session, error) {
	v, ok := s.cache.Get(token)
	if !ok {
		return nil, errorutils.ErrTokenInvalid
	}
	session, ok := v.(*Session)
	if !ok {
		return nil, errorutils.ErrTokenInvalid
	}
	// the cache TTL tracks expiry already, but an explicit check keeps a
	// stale entry from authenticating
	if session.Expired() {
		s.Revoke(session.Token)
		return nil, errorutils.ErrTokenExpired
	}
	return session, nil
}

// Revoke removes a token and persists the table.
func (s *TokenStore) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(token)
	if err := s.persist(); err != nil {
		logger := logging.Logger(context.Background(), "gateway.TokenStore")
		logger.Error().Err(err).Msg("failed to persist token table")
	}
}

// VerifyToken resolves a token for the auth interceptor, returning a context
// carrying the authenticated session.
func (s *TokenStore) VerifyToken(ctx context.Context, token string) (context.Context, error) {
	session, err := s.Lookup(token)
	if err != nil {
		return ctx, err
	}
	return context.WithValue(ctx, appctx.SessionCTXKey, session), nil
}

// StartSweeper runs the periodic expired-token sweep until Stop is called.
func (s *TokenStore) StartSweeper(ctx context.Context, interval time.Duration) {
	logger := logging.Logger(ctx, "gateway.TokenStore")

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := s.sweep()
				if removed > 0 {
					logger.Info().Int("removed", removed).Msg("expired tokens swept")
				}
			}
		}
	}()
}

// Stop terminates the sweeper goroutine.
func (s *TokenStore) Stop() {
	close(s.stop)
}

// Len returns the number of live sessions.
func (s *TokenStore) Len() int {
	return s.cache.ItemCount()
}

func (s *TokenStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, item := range s.cache.Items() {
		session, ok := item.Object.(*Session)
		if !ok || session.Expired() {
			s.cache.Delete(token)
			removed++
		}
	}
	if removed > 0 {
		if err := s.persist(); err != nil {
			logger := logging.Logger(context.Background(), "gateway.TokenStore")
			logger.Error().Err(err).Msg("failed to persist token table")
		}
	}
	return removed
}

func (s *TokenStore) load() ([]*Session, error) {
	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sessions := []*Session{}
	if err := json.Unmarshal(b, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// persist writes the live sessions to disk; callers hold s.mu.
func (s *TokenStore) persist() error {
	sessions := []*Session{}
	for _, item := range s.cache.Items() {
		if session, ok := item.Object.(*Session); ok && !session.Expired() {
			sessions = append(sessions, session)
		}
	}

	b, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0600)
}
