package router_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/router"
)

func noop(w http.ResponseWriter, r *http.Request) {}

func named(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Route", name)
	}
}

func routeName(m *router.Match) string {
	w := headerRecorder{http.Header{}}
	m.Handler.ServeHTTP(w, nil)
	return w.header.Get("X-Route")
}

type headerRecorder struct{ header http.Header }

func (h headerRecorder) Header() http.Header         { return h.header }
func (h headerRecorder) Write(b []byte) (int, error) { return len(b), nil }
func (h headerRecorder) WriteHeader(int)             {}

func TestExactMatchWinsOverEarlierParameterized(t *testing.T) {
	rt := router.New()
	rt.Handle("GET", "/accounts/:id", named("param"))
	rt.Handle("GET", "/accounts/summary", named("exact"))

	m := rt.Match("GET", "/accounts/summary")
	require.NotNil(t, m)
	require.Equal(t, "exact", routeName(m))
	require.Equal(t, "/accounts/summary", m.Pattern)

	m = rt.Match("GET", "/accounts/42")
	require.NotNil(t, m)
	require.Equal(t, "param", routeName(m))
	require.Equal(t, map[string]string{"id": "42"}, m.Params)
}

func TestMultipleParams(t *testing.T) {
	rt := router.New()
	rt.Handle("GET", "/a/:x/b/:y", noop)

	m := rt.Match("GET", "/a/123/b/456")
	require.NotNil(t, m)
	require.Equal(t, map[string]string{"x": "123", "y": "456"}, m.Params)

	require.Nil(t, rt.Match("GET", "/a/123/b"))
	require.Nil(t, rt.Match("GET", "/a/123/b/456/c"))
}

func TestParamNeverSpansSlash(t *testing.T) {
	rt := router.New()
	rt.Handle("GET", "/accounts/:id", noop)

	require.Nil(t, rt.Match("GET", "/accounts/1/transactions"))
	require.Nil(t, rt.Match("GET", "/accounts/"))
}

func TestTrailingSlashTolerated(t *testing.T) {
	rt := router.New()
	rt.Handle("GET", "/health", noop)
	rt.Handle("GET", "/accounts/:id", noop)

	require.NotNil(t, rt.Match("GET", "/health/"))
	m := rt.Match("GET", "/accounts/7/")
	require.NotNil(t, m)
	require.Equal(t, "7", m.Params["id"])
}

func TestMethodBuckets(t *testing.T) {
	rt := router.New()
	rt.Handle("GET", "/accounts", named("list"))
	rt.Handle("POST", "/accounts", named("create"))

	require.Equal(t, "list", routeName(rt.Match("GET", "/accounts")))
	require.Equal(t, "create", routeName(rt.Match("POST", "/accounts")))
	require.Nil(t, rt.Match("DELETE", "/accounts"))
}

func TestRegistrationOrderForParameterized(t *testing.T) {
	rt := router.New()
	rt.Handle("GET", "/x/:a", named("first"))
	rt.Handle("GET", "/x/:b", named("second"))

	m := rt.Match("GET", "/x/1")
	require.Equal(t, "first", routeName(m))
	require.Equal(t, map[string]string{"a": "1"}, m.Params)
}

func TestQueryParsingLastWins(t *testing.T) {
	rt := router.New()
	rt.Handle("GET", "/transactions", noop)

	m := rt.Match("GET", "/transactions?account=1&account=2&q=hello%20world")
	require.NotNil(t, m)
	require.Equal(t, "2", m.Query["account"])
	require.Equal(t, "hello world", m.Query["q"])
	require.Equal(t, "/transactions", m.Path)
}

func TestCaseSensitivePaths(t *testing.T) {
	rt := router.New()
	rt.Handle("GET", "/Accounts", noop)

	require.Nil(t, rt.Match("GET", "/accounts"))
	require.NotNil(t, rt.Match("GET", "/Accounts"))
}

func TestRegisterPanics(t *testing.T) {
	rt := router.New()
	require.Panics(t, func() { rt.Register("", "/x", http.HandlerFunc(noop)) })
	require.Panics(t, func() { rt.Register("GET", "", http.HandlerFunc(noop)) })
	require.Panics(t, func() { rt.Register("GET", "/x", nil) })
	require.Panics(t, func() { rt.Register("GET", "no-slash", http.HandlerFunc(noop)) })

	rt.Handle("GET", "/dup", noop)
	require.Panics(t, func() { rt.Handle("GET", "/dup", noop) })
}

func TestStatsCountMatches(t *testing.T) {
	rt := router.New()
	rt.Handle("GET", "/health", noop)
	rt.Handle("GET", "/accounts/:id", noop)

	rt.Match("GET", "/health")
	rt.Match("GET", "/accounts/1")
	rt.Match("GET", "/missing")

	routes, matches := rt.Stats()
	require.Equal(t, 2, routes)
	require.Equal(t, int64(2), matches)
	require.Len(t, rt.Routes(), 2)
}
