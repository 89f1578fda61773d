// Package auth establishes the per-request identity: credential extraction
// from bearer header or cookie, access-token verification, and the CSRF
// double-submit check for cookie-authenticated mutations.
package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/cookie"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/domain"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/httpx"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/token"
)

// Cookie and header names shared with the frontend.
const (
	AccessCookie  = "sf_at"
	RefreshCookie = "sf_rt"
	CSRFCookie    = "sf_csrf"
	CSRFHeader    = "X-CSRF-Token"
)

// Authenticator decides whether a matched request carries a usable identity.
type Authenticator struct {
	tokens *token.Service
	public map[string]struct{}
}

// New builds an authenticator. publicPaths are served anonymously (health
// check, login, refresh): the credential for those endpoints is the request
// body itself.
func New(tokens *token.Service, publicPaths []string) *Authenticator {
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}
	return &Authenticator{tokens: tokens, public: public}
}

// Public reports whether path skips authentication entirely.
func (a *Authenticator) Public(path string) bool {
	_, ok := a.public[path]
	return ok
}

// Authenticate verifies the request credential and returns the identity. It
// returns a typed httpx error (401 or 403) on rejection; public paths return
// a nil identity with no error.
func (a *Authenticator) Authenticate(r *http.Request) (*domain.Identity, error) {
	if a.Public(normalizePath(r.URL.Path)) {
		return nil, nil
	}

	raw, source := extractCredential(r)
	if source == domain.SourceNone {
		return nil, httpx.Unauthorized("Authentication required.")
	}

	claims := a.tokens.VerifyAccess(raw)
	if claims == nil {
		return nil, httpx.Unauthorized("Invalid or expired token.")
	}

	// Cookies ride along on cross-site requests; a bearer header requires
	// deliberate script action, so only cookie-sourced mutations need the
	// double-submit proof.
	switch source {
	case domain.SourceCookie:
		if mutating(r.Method) {
			if err := checkCSRF(r); err != nil {
				return nil, err
			}
		}
	case domain.SourceHeader:
		// exempt
	}

	return &domain.Identity{
		UserID: claims.UserID(),
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

func extractCredential(r *http.Request) (string, domain.CredentialSource) {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1], domain.SourceHeader
		}
	}

	cookies := cookie.Parse(r.Header.Get("Cookie"))
	if v := cookies[AccessCookie]; v != "" {
		return v, domain.SourceCookie
	}
	return "", domain.SourceNone
}

func checkCSRF(r *http.Request) error {
	headerValue := r.Header.Get(CSRFHeader)
	cookieValue := cookie.Parse(r.Header.Get("Cookie"))[CSRFCookie]
	if headerValue == "" || cookieValue == "" ||
		subtle.ConstantTimeCompare([]byte(headerValue), []byte(cookieValue)) != 1 {
		return httpx.Forbidden("CSRF token invalid.")
	}
	return nil
}

func mutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

func normalizePath(path string) string {
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		return path[:len(path)-1]
	}
	return path
}

type identityKey struct{}

// WithIdentity attaches the authenticated identity to a request context.
func WithIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity set by the dispatcher, if any.
func IdentityFrom(ctx context.Context) (*domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*domain.Identity)
	return id, ok && id != nil
}
