package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/auth"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/config"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/domain"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/httpx"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/repository"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/token"
)

var publicPaths = []string{"/health", "/api/v1/simpleauth/login", "/api/v1/simpleauth/refresh"}

func newAuthenticator(t *testing.T) (*auth.Authenticator, token.Pair) {
	t.Helper()
	cfg := config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
		TokenIssuer:        "smart-finance",
		TokenAudience:      "smart-finance-api",
	}
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := token.NewService(nullTokenRepo{}, node, cfg, zap.NewNop())

	pair, err := svc.Issue(context.Background(),
		domain.User{ID: 7, Email: "ana@example.com", Role: "user"}, "", "")
	require.NoError(t, err)

	return auth.New(svc, publicPaths), pair
}

func status(t *testing.T, err error) int {
	t.Helper()
	var apiErr *httpx.Error
	require.ErrorAs(t, err, &apiErr)
	return apiErr.Status
}

func TestPublicPathSkipsAuth(t *testing.T) {
	a, _ := newAuthenticator(t)
	for _, path := range []string{"/health", "/health/", "/api/v1/simpleauth/login"} {
		r := httptest.NewRequest(http.MethodPost, path, nil)
		id, err := a.Authenticate(r)
		require.NoError(t, err, path)
		require.Nil(t, id)
	}
}

func TestMissingCredential(t *testing.T) {
	a, _ := newAuthenticator(t)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	_, err := a.Authenticate(r)
	require.Equal(t, http.StatusUnauthorized, status(t, err))
}

func TestInvalidToken(t *testing.T) {
	a, _ := newAuthenticator(t)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	r.Header.Set("Authorization", "Bearer not-a-token")
	_, err := a.Authenticate(r)
	require.Equal(t, http.StatusUnauthorized, status(t, err))
}

func TestBearerHeaderAccepted(t *testing.T) {
	a, pair := newAuthenticator(t)
	r := httptest.NewRequest(http.MethodDelete, "/api/v1/accounts/1", nil)
	r.Header.Set("Authorization", "Bearer "+pair.AccessToken)

	// Mutating method, no CSRF header: bearer credentials are exempt.
	id, err := a.Authenticate(r)
	require.NoError(t, err)
	require.Equal(t, int64(7), id.UserID)
	require.Equal(t, "ana@example.com", id.Email)
}

func TestCookieReadDoesNotNeedCSRF(t *testing.T) {
	a, pair := newAuthenticator(t)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	r.Header.Set("Cookie", auth.AccessCookie+"="+pair.AccessToken)

	id, err := a.Authenticate(r)
	require.NoError(t, err)
	require.Equal(t, int64(7), id.UserID)
}

func TestCookieMutationRequiresCSRF(t *testing.T) {
	a, pair := newAuthenticator(t)

	base := func() *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", nil)
		r.Header.Set("Cookie", auth.AccessCookie+"="+pair.AccessToken+"; "+auth.CSRFCookie+"=csrf-value")
		return r
	}

	r := base()
	_, err := a.Authenticate(r)
	require.Equal(t, http.StatusForbidden, status(t, err))

	r = base()
	r.Header.Set(auth.CSRFHeader, "wrong-value")
	_, err = a.Authenticate(r)
	require.Equal(t, http.StatusForbidden, status(t, err))

	r = base()
	r.Header.Set(auth.CSRFHeader, "csrf-value")
	id, err := a.Authenticate(r)
	require.NoError(t, err)
	require.Equal(t, int64(7), id.UserID)
}

func TestHeaderPreferredOverCookie(t *testing.T) {
	a, pair := newAuthenticator(t)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", nil)
	r.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	r.Header.Set("Cookie", auth.AccessCookie+"=stale-cookie-token")

	// Header wins, so no CSRF requirement applies.
	id, err := a.Authenticate(r)
	require.NoError(t, err)
	require.NotNil(t, id)
}

func TestIdentityContextRoundTrip(t *testing.T) {
	id := &domain.Identity{UserID: 1, Email: "x@y", Role: "user"}
	ctx := auth.WithIdentity(context.Background(), id)
	got, ok := auth.IdentityFrom(ctx)
	require.True(t, ok)
	require.Equal(t, id, got)

	_, ok = auth.IdentityFrom(context.Background())
	require.False(t, ok)
}

// nullTokenRepo satisfies the persistence dependency for flows that only
// exercise verification.
type nullTokenRepo struct{}

func (nullTokenRepo) Save(context.Context, domain.RefreshToken) error { return nil }
func (nullTokenRepo) GetByHash(context.Context, string) (domain.RefreshToken, error) {
	return domain.RefreshToken{}, repository.ErrNotFound
}
func (nullTokenRepo) Rotate(context.Context, string, domain.RefreshToken) error {
	return repository.ErrTokenConflict
}
func (nullTokenRepo) Revoke(context.Context, string) (bool, error) { return false, nil }
