// Package token issues, verifies, rotates and revokes the credential pair:
// a short-lived signed access token and a long-lived refresh token whose
// server-side record is keyed by the SHA-256 hash of the raw string.
package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/config"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/domain"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/repository"
)

const (
	// KindAccess and KindRefresh discriminate the two token types so one can
	// never be presented where the other is expected.
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// ErrInvalidRefresh covers every refresh failure mode visible to callers:
// bad signature, expiry, revocation, reuse after rotation. The client
// response is the same in all cases (re-authenticate).
var ErrInvalidRefresh = errors.New("invalid refresh token")

// Claims is the signed payload carried by both token kinds.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Kind  string `json:"kind"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() int64 {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return id
}

// Pair holds the raw strings handed to the client. The caller decides whether
// they travel as cookies, response body, or both.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Service signs and validates credential pairs and owns the refresh-token
// records behind them.
type Service struct {
	tokens        repository.TokenRepository
	node          *snowflake.Node
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      string
	logger        *zap.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewService wires dependencies.
func NewService(tokens repository.TokenRepository, node *snowflake.Node, cfg config.Config, logger *zap.Logger) *Service {
	return &Service{
		tokens:        tokens,
		node:          node,
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		issuer:        cfg.TokenIssuer,
		audience:      cfg.TokenAudience,
		logger:        logger,
		tracer:        otel.Tracer("github.com/Lucasantunesribeiro/smart-finance-sub000/internal/token"),
		now:           time.Now,
	}
}

// AccessTTL exposes the configured access-token lifetime for cookie Max-Age.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL exposes the configured refresh-token lifetime.
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// Hash returns the hex SHA-256 digest used as the storage key for a raw
// refresh token.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Issue signs a fresh pair for the user and persists the refresh record with
// the requesting IP and user agent for audit.
func (s *Service) Issue(ctx context.Context, user domain.User, ip, userAgent string) (Pair, error) {
	ctx, span := s.tracer.Start(ctx, "token.Issue")
	defer span.End()

	pair, err := s.sign(user.ID, user.Email, user.Role)
	if err != nil {
		span.RecordError(err)
		return Pair{}, err
	}

	record := domain.RefreshToken{
		ID:        s.node.Generate().Int64(),
		UserID:    user.ID,
		TokenHash: Hash(pair.RefreshToken),
		ExpiresAt: s.now().Add(s.refreshTTL),
		CreatedIP: ip,
		UserAgent: userAgent,
	}
	if err := s.tokens.Save(ctx, record); err != nil {
		span.RecordError(err)
		return Pair{}, fmt.Errorf("persist refresh token: %w", err)
	}

	s.audit("token.issued", zap.Int64("user_id", user.ID), zap.String("ip", ip))
	return pair, nil
}

// VerifyAccess validates signature, issuer, audience, expiry and kind of an
// access token. It returns nil on any failure and never panics; the caller
// maps nil to the appropriate 401.
func (s *Service) VerifyAccess(raw string) *Claims {
	return s.verify(raw, s.accessSecret, KindAccess)
}

// VerifyRefresh is the refresh-token counterpart of VerifyAccess.
func (s *Service) VerifyRefresh(raw string) *Claims {
	return s.verify(raw, s.refreshSecret, KindRefresh)
}

// Rotate exchanges a valid refresh token for a fresh pair. The old record is
// revoked and linked to its successor atomically; when two rotations race,
// the storage-level conditional update lets exactly one through and the
// loser gets ErrInvalidRefresh.
func (s *Service) Rotate(ctx context.Context, raw, ip, userAgent string) (Pair, *Claims, error) {
	ctx, span := s.tracer.Start(ctx, "token.Rotate")
	defer span.End()

	claims := s.VerifyRefresh(raw)
	if claims == nil {
		return Pair{}, nil, ErrInvalidRefresh
	}

	pair, err := s.sign(claims.UserID(), claims.Email, claims.Role)
	if err != nil {
		span.RecordError(err)
		return Pair{}, nil, err
	}

	next := domain.RefreshToken{
		ID:        s.node.Generate().Int64(),
		UserID:    claims.UserID(),
		TokenHash: Hash(pair.RefreshToken),
		ExpiresAt: s.now().Add(s.refreshTTL),
		CreatedIP: ip,
		UserAgent: userAgent,
	}
	if err := s.tokens.Rotate(ctx, Hash(raw), next); err != nil {
		if errors.Is(err, repository.ErrTokenConflict) || errors.Is(err, repository.ErrNotFound) {
			s.audit("token.rotate.rejected", zap.Int64("user_id", claims.UserID()), zap.String("ip", ip))
			return Pair{}, nil, ErrInvalidRefresh
		}
		span.RecordError(err)
		return Pair{}, nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	s.audit("token.rotated", zap.Int64("user_id", claims.UserID()))
	return pair, claims, nil
}

// Revoke marks the record behind a raw refresh token revoked. Idempotent:
// unknown, expired or already-revoked tokens report false without error.
func (s *Service) Revoke(ctx context.Context, raw string) bool {
	ctx, span := s.tracer.Start(ctx, "token.Revoke")
	defer span.End()

	claims := s.VerifyRefresh(raw)
	if claims == nil {
		return false
	}
	revoked, err := s.tokens.Revoke(ctx, Hash(raw))
	if err != nil {
		span.RecordError(err)
		return false
	}
	if revoked {
		s.audit("token.revoked", zap.Int64("user_id", claims.UserID()))
	}
	return revoked
}

func (s *Service) sign(userID int64, email, role string) (Pair, error) {
	now := s.now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		Role:  role,
		Kind:  KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	})
	accessRaw, err := access.SignedString(s.accessSecret)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}

	// The jti keeps two refresh tokens issued for the same user in the same
	// second from colliding on identical signatures.
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		Role:  role,
		Kind:  KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	})
	refreshRaw, err := refresh.SignedString(s.refreshSecret)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return Pair{AccessToken: accessRaw, RefreshToken: refreshRaw}, nil
}

func (s *Service) verify(raw string, secret []byte, kind string) *Claims {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil
	}
	if claims.Kind != kind {
		return nil
	}
	return claims
}

func (s *Service) audit(event string, fields ...zap.Field) {
	if s.logger == nil {
		return
	}
	s.logger.Info("audit", append([]zap.Field{zap.String("event", event)}, fields...)...)
}
