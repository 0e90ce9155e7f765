package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civilog/civilog-cli/internal/client/api"
	"github.com/civilog/civilog-cli/internal/client/kvstore"
	"github.com/civilog/civilog-cli/internal/common"
	"github.com/civilog/civilog-cli/internal/logging"
)

// signedToken returns an HS256 token expiring at exp.
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

type stubEndpoint struct {
	mu          sync.Mutex
	refreshes   atomic.Int32
	refreshPair *api.TokenPair
	refreshErr  error
	refreshWait chan struct{} // when set, Refresh blocks until closed
	loginPair   *api.TokenPair
	loginErr    error
}

func (s *stubEndpoint) Login(_ context.Context, _, _ string) (*api.TokenPair, error) {
	return s.loginPair, s.loginErr
}

func (s *stubEndpoint) Refresh(_ context.Context, _ string) (*api.TokenPair, error) {
	s.refreshes.Add(1)
	if s.refreshWait != nil {
		<-s.refreshWait
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshPair, s.refreshErr
}

func newManager(t *testing.T, endpoint *stubEndpoint) (*Manager, kvstore.Store) {
	t.Helper()
	kv := kvstore.NewMemory()
	return NewManager(kv, endpoint, logging.NewDefault()), kv
}

func TestLogin_StoresTokenPair(t *testing.T) {
	endpoint := &stubEndpoint{loginPair: &api.TokenPair{AccessToken: "a1", RefreshToken: "r1"}}
	m, kv := newManager(t, endpoint)
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, "u@example.com", "secret"))
	assert.True(t, m.LoggedIn(ctx))

	access, err := kv.Get(ctx, accessTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "a1", string(access))
}

func TestAccessToken_NoTokenIsUnauthorized(t *testing.T) {
	m, _ := newManager(t, &stubEndpoint{})

	_, err := m.AccessToken(context.Background())
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestAccessToken_FreshTokenReturnedWithoutRefresh(t *testing.T) {
	endpoint := &stubEndpoint{}
	m, _ := newManager(t, endpoint)
	ctx := context.Background()

	fresh := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, m.setTokens(ctx, fresh, "r1"))

	got, err := m.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, fresh, got)
	assert.EqualValues(t, 0, endpoint.refreshes.Load())
}

func TestAccessToken_ExpiringTokenTriggersRefresh(t *testing.T) {
	endpoint := &stubEndpoint{
		refreshPair: &api.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"},
	}
	m, kv := newManager(t, endpoint)
	ctx := context.Background()

	expiring := signedToken(t, time.Now().Add(30*time.Second))
	require.NoError(t, m.setTokens(ctx, expiring, "r1"))

	got, err := m.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-access", got)
	assert.EqualValues(t, 1, endpoint.refreshes.Load())

	stored, err := kv.Get(ctx, refreshTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "new-refresh", string(stored))
}

func TestAccessToken_MalformedTokenTriggersRefresh(t *testing.T) {
	endpoint := &stubEndpoint{refreshPair: &api.TokenPair{AccessToken: "new-access"}}
	m, _ := newManager(t, endpoint)
	ctx := context.Background()

	require.NoError(t, m.setTokens(ctx, "not-a-jwt", "r1"))

	got, err := m.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-access", got)
}

func TestAccessToken_RefreshKeepsOldRefreshTokenWhenOmitted(t *testing.T) {
	endpoint := &stubEndpoint{refreshPair: &api.TokenPair{AccessToken: "new-access"}}
	m, kv := newManager(t, endpoint)
	ctx := context.Background()

	require.NoError(t, m.setTokens(ctx, "not-a-jwt", "keep-me"))

	_, err := m.AccessToken(ctx)
	require.NoError(t, err)

	stored, err := kv.Get(ctx, refreshTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "keep-me", string(stored))
}

func TestAccessToken_RefreshFailureClearsSession(t *testing.T) {
	endpoint := &stubEndpoint{refreshErr: errors.New("revoked")}
	m, _ := newManager(t, endpoint)
	ctx := context.Background()

	require.NoError(t, m.setTokens(ctx, "not-a-jwt", "r1"))

	_, err := m.AccessToken(ctx)
	require.ErrorIs(t, err, common.ErrUnauthorized)
	assert.False(t, m.LoggedIn(ctx))
}

func TestAccessToken_ConcurrentCallersShareOneRefresh(t *testing.T) {
	wait := make(chan struct{})
	endpoint := &stubEndpoint{
		refreshPair: &api.TokenPair{AccessToken: "shared", RefreshToken: "r2"},
		refreshWait: wait,
	}
	m, _ := newManager(t, endpoint)
	ctx := context.Background()

	require.NoError(t, m.setTokens(ctx, "not-a-jwt", "r1"))

	const callers = 5
	results := make(chan string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := m.AccessToken(ctx)
			assert.NoError(t, err)
			results <- got
		}()
	}

	// Let all callers pile up on the slot, then release the refresh.
	time.Sleep(50 * time.Millisecond)
	close(wait)
	wg.Wait()
	close(results)

	for got := range results {
		assert.Equal(t, "shared", got)
	}
	assert.EqualValues(t, 1, endpoint.refreshes.Load())
}

func TestLogout_RemovesBothTokens(t *testing.T) {
	m, kv := newManager(t, &stubEndpoint{})
	ctx := context.Background()

	require.NoError(t, m.setTokens(ctx, "a", "r"))
	require.NoError(t, m.Logout(ctx))

	for _, key := range []string{accessTokenKey, refreshTokenKey} {
		v, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, v)
	}
}
