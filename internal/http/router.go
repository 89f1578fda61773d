// Package http assembles the route table and middleware chain for the API.
package http

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/auth"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/config"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/http/handler"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/http/middleware"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/httpx"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/ratelimit"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/router"
)

// PublicPaths are served without authentication; for login and refresh the
// request body is the credential.
var PublicPaths = []string{
	"/health",
	"/api/v1/simpleauth/login",
	"/api/v1/simpleauth/refresh",
}

// Handlers groups the endpoint implementations wired into the route table.
type Handlers struct {
	Auth         *handler.AuthHandler
	Accounts     *handler.AccountHandler
	Categories   *handler.CategoryHandler
	Budgets      *handler.BudgetHandler
	Transactions *handler.TransactionHandler
	Analytics    *handler.AnalyticsHandler
}

// NewHandler builds the complete HTTP entrypoint: pattern router, per-request
// authentication, and the middleware chain (recovery outermost, then request
// logging, CORS, per-IP throttling).
func NewHandler(cfg config.Config, h Handlers, authn *auth.Authenticator, ipLimiter, userLimiter *ratelimit.Limiter, logger *zap.Logger) http.Handler {
	rt := router.New()
	registerRoutes(rt, h)

	development := cfg.Environment == "development"
	d := &dispatcher{
		routes:      rt,
		authn:       authn,
		userLimiter: userLimiter,
		logger:      logger,
		development: development,
	}

	chain := middleware.IPLimit(ipLimiter, logger, development)(d)
	chain = middleware.CORS(cfg.CORSAllowedOrigins)(chain)
	chain = middleware.RequestLogger(logger)(chain)
	chain = middleware.Recover(logger, development)(chain)
	return chain
}

func registerRoutes(rt *router.Router, h Handlers) {
	rt.Handle(http.MethodGet, "/health", handler.Health)

	rt.Handle(http.MethodPost, "/api/v1/simpleauth/login", h.Auth.Login)
	rt.Handle(http.MethodPost, "/api/v1/simpleauth/refresh", h.Auth.Refresh)
	rt.Handle(http.MethodPost, "/api/v1/simpleauth/logout", h.Auth.Logout)
	rt.Handle(http.MethodGet, "/api/v1/simpleauth/me", h.Auth.Me)

	rt.Handle(http.MethodGet, "/api/v1/accounts", h.Accounts.List)
	rt.Handle(http.MethodPost, "/api/v1/accounts", h.Accounts.Create)
	rt.Handle(http.MethodGet, "/api/v1/accounts/:id", h.Accounts.Get)
	rt.Handle(http.MethodPut, "/api/v1/accounts/:id", h.Accounts.Update)
	rt.Handle(http.MethodDelete, "/api/v1/accounts/:id", h.Accounts.Delete)

	rt.Handle(http.MethodGet, "/api/v1/categories", h.Categories.List)
	rt.Handle(http.MethodPost, "/api/v1/categories", h.Categories.Create)
	rt.Handle(http.MethodGet, "/api/v1/categories/:id", h.Categories.Get)
	rt.Handle(http.MethodPut, "/api/v1/categories/:id", h.Categories.Update)
	rt.Handle(http.MethodDelete, "/api/v1/categories/:id", h.Categories.Delete)

	rt.Handle(http.MethodGet, "/api/v1/budgets", h.Budgets.List)
	rt.Handle(http.MethodPost, "/api/v1/budgets", h.Budgets.Create)
	rt.Handle(http.MethodGet, "/api/v1/budgets/:id", h.Budgets.Get)
	rt.Handle(http.MethodPut, "/api/v1/budgets/:id", h.Budgets.Update)
	rt.Handle(http.MethodDelete, "/api/v1/budgets/:id", h.Budgets.Delete)

	rt.Handle(http.MethodGet, "/api/v1/transactions", h.Transactions.List)
	rt.Handle(http.MethodPost, "/api/v1/transactions", h.Transactions.Create)
	rt.Handle(http.MethodGet, "/api/v1/transactions/:id", h.Transactions.Get)
	rt.Handle(http.MethodPut, "/api/v1/transactions/:id", h.Transactions.Update)
	rt.Handle(http.MethodDelete, "/api/v1/transactions/:id", h.Transactions.Delete)

	rt.Handle(http.MethodGet, "/api/v1/analytics/spending", h.Analytics.Spending)
	rt.Handle(http.MethodGet, "/api/v1/analytics/summary", h.Analytics.Summary)
}

// dispatcher resolves the route, authenticates, applies the per-user budget,
// and finally invokes the matched handler with match and identity in context.
type dispatcher struct {
	routes      *router.Router
	authn       *auth.Authenticator
	userLimiter *ratelimit.Limiter
	logger      *zap.Logger
	development bool
}

func (d *dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m := d.routes.Match(r.Method, r.URL.RequestURI())
	if m == nil {
		httpx.WriteError(w, r, httpx.NotFound("Route not found."), d.development, d.logger)
		return
	}
	ctx := router.WithMatch(r.Context(), m)
	r = r.WithContext(ctx)

	identity, err := d.authn.Authenticate(r)
	if err != nil {
		httpx.WriteError(w, r, err, d.development, d.logger)
		return
	}

	if identity != nil {
		res := d.userLimiter.Allow(ctx, "user:"+strconv.FormatInt(identity.UserID, 10))
		middleware.SetRateHeaders(w, res)
		if !res.Allowed {
			httpx.WriteError(w, r, httpx.TooManyRequests("Too many requests."), d.development, d.logger)
			return
		}
		r = r.WithContext(auth.WithIdentity(r.Context(), identity))
	}

	m.Handler.ServeHTTP(w, r)
}
