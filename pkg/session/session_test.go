package session

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/yakhtimoon-console/pkg/config"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("unrelated-secret"))
	require.NoError(t, err)
	return signed
}

func TestSessionStoresOpaqueToken(t *testing.T) {
	s := New(NewMemoryStore(), zap.NewNop())
	ctx := context.Background()

	info, err := s.SetToken(ctx, "Bearer 12|opaque-sanctum-token")
	require.NoError(t, err)
	assert.True(t, info.Authenticated)
	assert.Nil(t, info.ExpiresAt)

	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "12|opaque-sanctum-token", token)

	require.NoError(t, s.Clear(ctx))
	token, err = s.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSessionUsesJWTExpiry(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	s := New(NewMemoryStore(), zap.NewNop())
	s.now = func() time.Time { return now }
	ctx := context.Background()

	exp := now.Add(time.Hour)
	info, err := s.SetToken(ctx, signedToken(t, exp))
	require.NoError(t, err)
	require.NotNil(t, info.ExpiresAt)
	assert.True(t, exp.Equal(*info.ExpiresAt))

	s.now = func() time.Time { return exp.Add(time.Second) }
	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	info, err = s.Info(ctx)
	require.NoError(t, err)
	assert.False(t, info.Authenticated)
}

func TestSessionTokenDropsJWTOnceExpired(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	s := New(store, zap.NewNop())
	s.now = func() time.Time { return now }
	ctx := context.Background()

	exp := now.Add(30 * time.Minute)
	signed := signedToken(t, exp)
	_, err := s.SetToken(ctx, signed)
	require.NoError(t, err)

	s.now = func() time.Time { return exp.Add(-time.Second) }
	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, signed, token)

	s.now = func() time.Time { return exp }
	token, err = s.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	rec, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, rec.Token)
	assert.True(t, rec.ExpiresAt.IsZero())
}

func TestSessionRejectsExpiredAndBlankTokens(t *testing.T) {
	now := time.Now()
	s := New(NewMemoryStore(), zap.NewNop())

	_, err := s.SetToken(context.Background(), signedToken(t, now.Add(-time.Minute)))
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = s.SetToken(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyToken)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store, err := NewFileStore(path, "authToken")
	require.NoError(t, err)
	ctx := context.Background()

	rec, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, rec.Token)

	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, Record{Token: "abc", ExpiresAt: exp}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"authToken": "abc"`)

	rec, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.Token)
	assert.True(t, exp.Equal(rec.ExpiresAt))

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
	rec, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, rec.Token)
}

func TestNewStoreSelectsBackend(t *testing.T) {
	store, closer, err := NewStore(config.SessionConfig{Store: config.SessionStoreMemory}, config.RedisConfig{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	assert.NoError(t, closer())

	store, _, err = NewStore(config.SessionConfig{Store: config.SessionStoreFile, FilePath: filepath.Join(t.TempDir(), "s.json")}, config.RedisConfig{})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, _, err = NewStore(config.SessionConfig{Store: "etcd"}, config.RedisConfig{})
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("SESSION_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SESSION_TEST_REDIS_ADDR not set")
	}
	host, port := splitAddr(t, addr)
	client, err := NewRedis(config.RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisStore(client, "test-"+t.Name())
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, Record{Token: "abc", ExpiresAt: time.Now().Add(time.Minute)}))

	rec, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.Token)
	assert.False(t, rec.ExpiresAt.IsZero())

	require.NoError(t, store.Clear(ctx))
	rec, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, rec.Token)
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, rawPort, found := strings.Cut(addr, ":")
	require.True(t, found, "address must be host:port")
	port, err := strconv.Atoi(rawPort)
	require.NoError(t, err)
	return host, port
}
