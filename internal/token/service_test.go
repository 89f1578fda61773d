package token_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/config"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/domain"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/repository"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/token"
)

func testConfig() config.Config {
	return config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    7 * 24 * time.Hour,
		TokenIssuer:        "smart-finance",
		TokenAudience:      "smart-finance-api",
	}
}

func newService(t *testing.T, cfg config.Config) (*token.Service, *memoryTokenRepo) {
	t.Helper()
	repo := newMemoryTokenRepo()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return token.NewService(repo, node, cfg, zap.NewNop()), repo
}

var testUser = domain.User{ID: 42, Email: "ana@example.com", Role: "user"}

func TestIssueAndVerifyAccess(t *testing.T) {
	svc, repo := newService(t, testConfig())

	pair, err := svc.Issue(context.Background(), testUser, "10.0.0.1", "go-test")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims := svc.VerifyAccess(pair.AccessToken)
	require.NotNil(t, claims)
	require.Equal(t, int64(42), claims.UserID())
	require.Equal(t, "ana@example.com", claims.Email)
	require.Equal(t, "user", claims.Role)
	require.Equal(t, token.KindAccess, claims.Kind)

	record, err := repo.GetByHash(context.Background(), token.Hash(pair.RefreshToken))
	require.NoError(t, err)
	require.Equal(t, int64(42), record.UserID)
	require.Equal(t, "10.0.0.1", record.CreatedIP)
	require.Equal(t, "go-test", record.UserAgent)
}

func TestKindsAreNotInterchangeable(t *testing.T) {
	svc, _ := newService(t, testConfig())
	pair, err := svc.Issue(context.Background(), testUser, "", "")
	require.NoError(t, err)

	require.Nil(t, svc.VerifyAccess(pair.RefreshToken))
	require.Nil(t, svc.VerifyRefresh(pair.AccessToken))
	require.NotNil(t, svc.VerifyRefresh(pair.RefreshToken))
}

func TestVerifyRejectsBadIssuerAudienceSignature(t *testing.T) {
	svc, _ := newService(t, testConfig())
	pair, err := svc.Issue(context.Background(), testUser, "", "")
	require.NoError(t, err)

	other := testConfig()
	other.AccessTokenSecret = "different-secret"
	badSecret, _ := newService(t, other)
	require.Nil(t, badSecret.VerifyAccess(pair.AccessToken))

	other = testConfig()
	other.TokenIssuer = "someone-else"
	badIssuer, _ := newService(t, other)
	require.Nil(t, badIssuer.VerifyAccess(pair.AccessToken))

	other = testConfig()
	other.TokenAudience = "another-api"
	badAudience, _ := newService(t, other)
	require.Nil(t, badAudience.VerifyAccess(pair.AccessToken))

	require.Nil(t, svc.VerifyAccess("not-a-token"))
	require.Nil(t, svc.VerifyAccess(""))
}

func TestVerifyRejectsExpired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Minute
	svc, _ := newService(t, cfg)

	pair, err := svc.Issue(context.Background(), testUser, "", "")
	require.NoError(t, err)
	require.Nil(t, svc.VerifyAccess(pair.AccessToken))
}

func TestRefreshTokensAreUniquePerIssue(t *testing.T) {
	svc, _ := newService(t, testConfig())
	a, err := svc.Issue(context.Background(), testUser, "", "")
	require.NoError(t, err)
	b, err := svc.Issue(context.Background(), testUser, "", "")
	require.NoError(t, err)
	require.NotEqual(t, a.RefreshToken, b.RefreshToken)
}

func TestRotate(t *testing.T) {
	svc, repo := newService(t, testConfig())
	ctx := context.Background()

	pair, err := svc.Issue(ctx, testUser, "10.0.0.1", "go-test")
	require.NoError(t, err)

	next, claims, err := svc.Rotate(ctx, pair.RefreshToken, "10.0.0.2", "go-test")
	require.NoError(t, err)
	require.NotNil(t, claims)
	require.Equal(t, int64(42), claims.UserID())
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	old, err := repo.GetByHash(ctx, token.Hash(pair.RefreshToken))
	require.NoError(t, err)
	require.NotNil(t, old.RevokedAt)
	require.NotNil(t, old.ReplacedBy)
	require.Equal(t, token.Hash(next.RefreshToken), *old.ReplacedBy)

	// The rotated-out token is single use.
	_, _, err = svc.Rotate(ctx, pair.RefreshToken, "10.0.0.3", "go-test")
	require.ErrorIs(t, err, token.ErrInvalidRefresh)
}

func TestConcurrentRotationExactlyOneWins(t *testing.T) {
	svc, _ := newService(t, testConfig())
	ctx := context.Background()

	pair, err := svc.Issue(ctx, testUser, "", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.Rotate(ctx, pair.RefreshToken, "", "")
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case err == token.ErrInvalidRefresh:
			losses++
		default:
			t.Fatalf("unexpected rotation error: %v", err)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, losses)
}

func TestRevoke(t *testing.T) {
	svc, repo := newService(t, testConfig())
	ctx := context.Background()

	pair, err := svc.Issue(ctx, testUser, "", "")
	require.NoError(t, err)

	require.True(t, svc.Revoke(ctx, pair.RefreshToken))
	// Idempotent: second revoke reports false, never errors.
	require.False(t, svc.Revoke(ctx, pair.RefreshToken))
	require.False(t, svc.Revoke(ctx, "garbage"))

	// Signature and expiry are still valid, but the record is revoked.
	require.NotNil(t, svc.VerifyRefresh(pair.RefreshToken))
	_, _, err = svc.Rotate(ctx, pair.RefreshToken, "", "")
	require.ErrorIs(t, err, token.ErrInvalidRefresh)

	record, err := repo.GetByHash(ctx, token.Hash(pair.RefreshToken))
	require.NoError(t, err)
	require.NotNil(t, record.RevokedAt)
}

// memoryTokenRepo mirrors the Postgres rotation semantics: the conditional
// revoke and the successor insert happen under one lock.
type memoryTokenRepo struct {
	mu      sync.Mutex
	records map[string]*domain.RefreshToken
}

func newMemoryTokenRepo() *memoryTokenRepo {
	return &memoryTokenRepo{records: make(map[string]*domain.RefreshToken)}
}

func (m *memoryTokenRepo) Save(_ context.Context, t domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[t.TokenHash] = &t
	return nil
}

func (m *memoryTokenRepo) GetByHash(_ context.Context, hash string) (domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[hash]; ok {
		return *r, nil
	}
	return domain.RefreshToken{}, repository.ErrNotFound
}

func (m *memoryTokenRepo) Rotate(_ context.Context, oldHash string, next domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.records[oldHash]
	if !ok || old.RevokedAt != nil || !time.Now().Before(old.ExpiresAt) {
		return repository.ErrTokenConflict
	}
	now := time.Now()
	old.RevokedAt = &now
	replaced := next.TokenHash
	old.ReplacedBy = &replaced
	m.records[next.TokenHash] = &next
	return nil
}

func (m *memoryTokenRepo) Revoke(_ context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[hash]
	if !ok || r.RevokedAt != nil {
		return false, nil
	}
	now := time.Now()
	r.RevokedAt = &now
	return true, nil
}
