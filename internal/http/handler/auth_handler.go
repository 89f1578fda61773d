package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/auth"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/config"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/cookie"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/http/middleware"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/httpx"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/password"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/ratelimit"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/repository"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/token"
)

// AuthHandler serves the simpleauth endpoints: login, refresh, logout, me.
type AuthHandler struct {
	users        repository.UserRepository
	tokens       *token.Service
	loginLimiter *ratelimit.Limiter
	cookieDomain string
	cookieSecure bool
	responder
}

// NewAuthHandler wires dependencies.
func NewAuthHandler(users repository.UserRepository, tokens *token.Service, loginLimiter *ratelimit.Limiter, cfg config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:        users,
		tokens:       tokens,
		loginLimiter: loginLimiter,
		cookieDomain: cfg.CookieDomain,
		cookieSecure: cfg.CookieSecure,
		responder:    responder{logger: logger, development: cfg.Environment == "development"},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	User         userDTO `json:"user"`
}

// Login authenticates email/password and establishes the cookie session.
// The per-identity limiter runs before credential checking so a 429 is
// returned regardless of whether the password would have been correct.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		h.fail(w, r, httpx.Validation("A valid email is required."))
		return
	}
	if req.Password == "" {
		h.fail(w, r, httpx.Validation("Password is required."))
		return
	}

	ip := middleware.ClientIP(r)
	for _, key := range []string{"login:ip:" + ip, "login:email:" + email} {
		res := h.loginLimiter.Allow(r.Context(), key)
		middleware.SetRateHeaders(w, res)
		if !res.Allowed {
			h.fail(w, r, httpx.TooManyRequests("Too many login attempts. Try again later."))
			return
		}
	}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.fail(w, r, httpx.Unauthorized("Invalid email or password."))
			return
		}
		h.fail(w, r, httpx.Internal(err))
		return
	}

	ok, err := password.Verify(req.Password, user.PasswordHash)
	if err != nil || !ok {
		h.logger.Warn("login rejected", zap.String("email", email), zap.String("ip", ip))
		h.fail(w, r, httpx.Unauthorized("Invalid email or password."))
		return
	}

	pair, err := h.tokens.Issue(r.Context(), user, ip, r.UserAgent())
	if err != nil {
		h.fail(w, r, httpx.Internal(err))
		return
	}

	h.setSessionCookies(w, pair)
	h.ok(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         toUserDTO(user),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates the refresh token from the body or the sf_rt cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	raw := req.RefreshToken
	if raw == "" {
		raw = cookie.Parse(r.Header.Get("Cookie"))[auth.RefreshCookie]
	}
	if raw == "" {
		h.fail(w, r, httpx.Unauthorized("Refresh token required."))
		return
	}

	pair, claims, err := h.tokens.Rotate(r.Context(), raw, middleware.ClientIP(r), r.UserAgent())
	if err != nil {
		if errors.Is(err, token.ErrInvalidRefresh) {
			h.clearSessionCookies(w)
			h.fail(w, r, httpx.Unauthorized("Invalid refresh token."))
			return
		}
		h.fail(w, r, httpx.Internal(err))
		return
	}

	user, err := h.users.GetByID(r.Context(), claims.UserID())
	if err != nil {
		h.fail(w, r, httpx.Unauthorized("Invalid refresh token."))
		return
	}

	h.setSessionCookies(w, pair)
	h.ok(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         toUserDTO(user),
	})
}

// Logout revokes the refresh token and clears the session cookies. Always
// succeeds: an already-dead token still leaves the client logged out.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.ContentLength != 0 {
		_ = decode(r, &req)
	}
	raw := req.RefreshToken
	if raw == "" {
		raw = cookie.Parse(r.Header.Get("Cookie"))[auth.RefreshCookie]
	}
	if raw != "" {
		h.tokens.Revoke(r.Context(), raw)
	}

	h.clearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.fail(w, r, httpx.Unauthorized("Unknown user."))
			return
		}
		h.fail(w, r, httpx.Internal(err))
		return
	}
	h.ok(w, http.StatusOK, toUserDTO(user))
}

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, pair token.Pair) {
	base := cookie.Options{
		Secure:   h.cookieSecure,
		SameSite: cookie.SameSiteStrict,
		Domain:   h.cookieDomain,
	}

	at := base
	at.HTTPOnly = true
	at.MaxAge = int(h.tokens.AccessTTL().Seconds())
	w.Header().Add("Set-Cookie", cookie.Build(auth.AccessCookie, pair.AccessToken, at))

	rt := base
	rt.HTTPOnly = true
	rt.MaxAge = int(h.tokens.RefreshTTL().Seconds())
	w.Header().Add("Set-Cookie", cookie.Build(auth.RefreshCookie, pair.RefreshToken, rt))

	// Readable by the frontend, echoed back in the X-CSRF-Token header.
	csrf := base
	csrf.SameSite = cookie.SameSiteLax
	csrf.MaxAge = int(h.tokens.RefreshTTL().Seconds())
	w.Header().Add("Set-Cookie", cookie.Build(auth.CSRFCookie, uuid.NewString(), csrf))
}

func (h *AuthHandler) clearSessionCookies(w http.ResponseWriter) {
	opts := cookie.Options{Secure: h.cookieSecure, Domain: h.cookieDomain}
	hidden := opts
	hidden.HTTPOnly = true
	w.Header().Add("Set-Cookie", cookie.Clear(auth.AccessCookie, hidden))
	w.Header().Add("Set-Cookie", cookie.Clear(auth.RefreshCookie, hidden))
	w.Header().Add("Set-Cookie", cookie.Clear(auth.CSRFCookie, opts))
}
