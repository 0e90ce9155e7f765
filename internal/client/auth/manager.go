// Package auth manages the client's bearer credentials: durable token
// storage, access-token expiry inspection, and refresh with a single-slot
// in-flight guard so concurrent callers share one refresh round-trip.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/civilog/civilog-cli/internal/client/api"
	"github.com/civilog/civilog-cli/internal/client/kvstore"
	"github.com/civilog/civilog-cli/internal/common"
	"github.com/civilog/civilog-cli/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenKey  = "kc-access-token"
	refreshTokenKey = "kc-refresh-token"

	// A token expiring within this window is refreshed proactively so it
	// does not expire mid-request.
	expiryLeeway = 60 * time.Second
)

// TokenEndpoint is the slice of the API client the manager needs.
type TokenEndpoint interface {
	Login(ctx context.Context, email, password string) (*api.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*api.TokenPair, error)
}

// Manager stores the token pair in the local kvstore and implements
// api.TokenSource.
type Manager struct {
	kv       kvstore.Store
	endpoint TokenEndpoint
	log      logging.Logger
	now      func() time.Time // test seam

	mu       sync.Mutex
	inflight *refreshCall
}

// refreshCall is the single-slot pending refresh: the first caller starts
// the operation, concurrent callers wait on done and share the result.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

func NewManager(kv kvstore.Store, endpoint TokenEndpoint, log logging.Logger) *Manager {
	return &Manager{kv: kv, endpoint: endpoint, log: log, now: time.Now}
}

// Login authenticates with the service and persists the issued token pair.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	pair, err := m.endpoint.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return m.setTokens(ctx, pair.AccessToken, pair.RefreshToken)
}

// Logout removes both tokens from local storage.
func (m *Manager) Logout(ctx context.Context) error {
	return m.kv.DeleteMulti(ctx, []string{accessTokenKey, refreshTokenKey})
}

// LoggedIn reports whether an access token is present locally. It says
// nothing about validity; an expired token is refreshed on first use.
func (m *Manager) LoggedIn(ctx context.Context) bool {
	raw, err := m.kv.Get(ctx, accessTokenKey)
	return err == nil && len(raw) > 0
}

// setTokens persists both tokens atomically.
func (m *Manager) setTokens(ctx context.Context, access, refresh string) error {
	err := m.kv.SetMulti(ctx, map[string][]byte{
		accessTokenKey:  []byte(access),
		refreshTokenKey: []byte(refresh),
	})
	if err != nil {
		return fmt.Errorf("failed to store tokens: %w", err)
	}
	return nil
}

// AccessToken returns a currently valid bearer token, refreshing the pair
// first when the stored access token expires within the leeway window.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	raw, err := m.kv.Get(ctx, accessTokenKey)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	if len(raw) == 0 {
		return "", common.ErrUnauthorized
	}

	access := string(raw)
	if !m.expiringSoon(access) {
		return access, nil
	}

	return m.refresh(ctx)
}

// expiringSoon reports whether token expires within the leeway window.
// Unparseable tokens and tokens without an exp claim count as expiring.
func (m *Manager) expiringSoon(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Time.Sub(m.now()) <= expiryLeeway
}

// refresh runs (or joins) the single-slot refresh.
func (m *Manager) refresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	if call := m.inflight; call != nil {
		m.mu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call
	m.mu.Unlock()

	call.token, call.err = m.doRefresh(ctx)
	close(call.done)

	// The slot clears on completion, success or failure.
	m.mu.Lock()
	m.inflight = nil
	m.mu.Unlock()

	return call.token, call.err
}

func (m *Manager) doRefresh(ctx context.Context) (string, error) {
	raw, err := m.kv.Get(ctx, refreshTokenKey)
	if err != nil {
		return "", fmt.Errorf("failed to read refresh token: %w", err)
	}
	if len(raw) == 0 {
		_ = m.Logout(ctx)
		return "", common.ErrUnauthorized
	}
	refreshToken := string(raw)

	pair, err := m.endpoint.Refresh(ctx, refreshToken)
	if err != nil {
		// A rejected refresh invalidates the whole session.
		if logoutErr := m.Logout(ctx); logoutErr != nil {
			m.log.Warn(ctx, "failed to clear tokens after refresh failure", "error", logoutErr)
		}
		return "", fmt.Errorf("%w: %s", common.ErrUnauthorized, err)
	}

	newRefresh := pair.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}
	if err := m.setTokens(ctx, pair.AccessToken, newRefresh); err != nil {
		return "", err
	}

	m.log.Info(ctx, "access token refreshed")
	return pair.AccessToken, nil
}
