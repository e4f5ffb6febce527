package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/yakhtimoon-console/pkg/config"
)

// DefaultTokenKey is the storage key the console token lives under.
const DefaultTokenKey = "authToken"

// ErrEmptyToken is returned when storing a blank token.
var ErrEmptyToken = errors.New("token is required")

// ErrExpiredToken is returned when storing a JWT whose exp is already past.
var ErrExpiredToken = errors.New("token already expired")

// Info describes the current session without exposing the token.
type Info struct {
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// Session supplies the bearer token for upstream requests. The token is
// treated as opaque; when it is a JWT its exp claim bounds how long it is
// kept, but the signature is never checked.
type Session struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// New constructs a Session over store.
func New(store Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{store: store, logger: logger, now: time.Now}
}

// Token implements transport.TokenSource. Expired tokens are dropped.
func (s *Session) Token(ctx context.Context) (string, error) {
	rec, err := s.store.Load(ctx)
	if err != nil {
		return "", err
	}
	if rec.expired(s.now()) {
		if err := s.store.Clear(ctx); err != nil {
			s.logger.Warn("failed to clear expired session", zap.Error(err))
		}
		return "", nil
	}
	return rec.Token, nil
}

// SetToken stores token, replacing any previous one.
func (s *Session) SetToken(ctx context.Context, token string) (Info, error) {
	token = strings.TrimSpace(token)
	if scheme, rest, found := strings.Cut(token, " "); found && strings.EqualFold(scheme, "Bearer") {
		token = strings.TrimSpace(rest)
	} else if strings.EqualFold(token, "Bearer") {
		token = ""
	}
	if token == "" {
		return Info{}, ErrEmptyToken
	}
	rec := Record{Token: token}
	if exp, ok := expiryOf(token); ok {
		if !exp.After(s.now()) {
			return Info{}, ErrExpiredToken
		}
		rec.ExpiresAt = exp
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return Info{}, err
	}
	s.logger.Info("session token stored", zap.Bool("expires", !rec.ExpiresAt.IsZero()))
	return infoOf(rec), nil
}

// Info reports whether a usable token is stored.
func (s *Session) Info(ctx context.Context) (Info, error) {
	token, err := s.Token(ctx)
	if err != nil || token == "" {
		return Info{}, err
	}
	rec, err := s.store.Load(ctx)
	if err != nil {
		return Info{}, err
	}
	return infoOf(rec), nil
}

// Clear forgets the stored token.
func (s *Session) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}

func infoOf(rec Record) Info {
	info := Info{Authenticated: rec.Token != ""}
	if !rec.ExpiresAt.IsZero() {
		exp := rec.ExpiresAt.UTC()
		info.ExpiresAt = &exp
	}
	return info
}

func expiryOf(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// NewStore builds the store selected by cfg. The returned closer releases
// any connection the store holds.
func NewStore(cfg config.SessionConfig, redisCfg config.RedisConfig) (Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Store {
	case "", config.SessionStoreMemory:
		return NewMemoryStore(), noop, nil
	case config.SessionStoreFile:
		store, err := NewFileStore(cfg.FilePath, cfg.TokenKey)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case config.SessionStoreRedis:
		client, err := NewRedis(redisCfg)
		if err != nil {
			return nil, noop, fmt.Errorf("connect redis: %w", err)
		}
		return NewRedisStore(client, cfg.TokenKey), client.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}
