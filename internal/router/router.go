// Package router implements the URL dispatch table for the API: method-bucketed
// pattern matching with ":name" path parameters, compiled once at registration.
//
// Matching is deliberately case-sensitive on paths. Exact literal patterns are
// resolved with a map lookup before any parameterized pattern is considered,
// regardless of registration order; parameterized patterns are then tried in
// registration order.
package router

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"
)

// Match is the result of resolving a request URL against the route table.
// Produced per request and consumed immediately by the dispatcher.
type Match struct {
	Handler http.Handler
	// Params holds named ":segment" captures in pattern order.
	Params map[string]string
	// Query holds query-string parameters; duplicate keys keep the last value.
	Query   map[string]string
	Pattern string
	Path    string
}

type segment struct {
	literal string
	param   string // non-empty for ":name" segments
}

type route struct {
	method   string
	pattern  string
	segments []segment
	params   []string
	handler  http.Handler
}

// Router maps (method, path) pairs to handlers.
type Router struct {
	exact   map[string]map[string]*route // method -> normalized path -> route
	dynamic map[string][]*route          // method -> parameterized routes, registration order
	matches atomic.Int64
}

// New returns an empty route table.
func New() *Router {
	return &Router{
		exact:   make(map[string]map[string]*route),
		dynamic: make(map[string][]*route),
	}
}

// Register adds a route. Patterns use ":name" for dynamic path segments, e.g.
// "/api/v1/accounts/:id". Registration happens once at startup; invalid input
// is a programmer error and panics.
func (rt *Router) Register(method, pattern string, handler http.Handler) {
	if method == "" || pattern == "" {
		panic("router: method and pattern are required")
	}
	if handler == nil {
		panic("router: nil handler for " + method + " " + pattern)
	}
	if !strings.HasPrefix(pattern, "/") {
		panic("router: pattern must start with '/': " + pattern)
	}

	method = strings.ToUpper(method)
	r := compile(method, pattern, handler)

	if len(r.params) == 0 {
		bucket, ok := rt.exact[method]
		if !ok {
			bucket = make(map[string]*route)
			rt.exact[method] = bucket
		}
		key := normalize(pattern)
		if _, dup := bucket[key]; dup {
			panic(fmt.Sprintf("router: duplicate pattern %s %s", method, pattern))
		}
		bucket[key] = r
		return
	}

	rt.dynamic[method] = append(rt.dynamic[method], r)
}

// Handle registers a plain handler function.
func (rt *Router) Handle(method, pattern string, handler http.HandlerFunc) {
	rt.Register(method, pattern, handler)
}

// Match resolves a raw request URL (path plus optional query string) to a
// registered route. It returns nil when no route matches.
func (rt *Router) Match(method, rawURL string) *Match {
	method = strings.ToUpper(method)

	path := rawURL
	query := map[string]string{}
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		path = rawURL[:i]
		query = parseQuery(rawURL[i+1:])
	}
	path = normalize(path)

	if bucket, ok := rt.exact[method]; ok {
		if r, ok := bucket[path]; ok {
			rt.matches.Add(1)
			return &Match{
				Handler: r.handler,
				Params:  map[string]string{},
				Query:   query,
				Pattern: r.pattern,
				Path:    path,
			}
		}
	}

	for _, r := range rt.dynamic[method] {
		params, ok := r.match(path)
		if !ok {
			continue
		}
		rt.matches.Add(1)
		return &Match{
			Handler: r.handler,
			Params:  params,
			Query:   query,
			Pattern: r.pattern,
			Path:    path,
		}
	}

	return nil
}

// Stats reports registration and match counts for diagnostics.
func (rt *Router) Stats() (routes int, matches int64) {
	for _, bucket := range rt.exact {
		routes += len(bucket)
	}
	for _, rs := range rt.dynamic {
		routes += len(rs)
	}
	return routes, rt.matches.Load()
}

// Routes returns a sorted "METHOD pattern" listing of the table.
func (rt *Router) Routes() []string {
	var out []string
	for method, bucket := range rt.exact {
		for _, r := range bucket {
			out = append(out, method+" "+r.pattern)
		}
	}
	for method, rs := range rt.dynamic {
		for _, r := range rs {
			out = append(out, method+" "+r.pattern)
		}
	}
	sort.Strings(out)
	return out
}

func compile(method, pattern string, handler http.Handler) *route {
	r := &route{method: method, pattern: pattern, handler: handler}
	for _, part := range strings.Split(normalize(pattern), "/")[1:] {
		if strings.HasPrefix(part, ":") {
			name := part[1:]
			if name == "" {
				panic("router: empty parameter name in " + pattern)
			}
			r.segments = append(r.segments, segment{param: name})
			r.params = append(r.params, name)
			continue
		}
		r.segments = append(r.segments, segment{literal: part})
	}
	return r
}

// match walks path segments against the compiled pattern. A parameter matches
// exactly one non-empty segment and never spans a slash.
func (r *route) match(path string) (map[string]string, bool) {
	parts := strings.Split(path, "/")[1:]
	if len(parts) != len(r.segments) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range r.segments {
		if seg.param != "" {
			if parts[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string, len(r.params))
			}
			params[seg.param] = parts[i]
			continue
		}
		if seg.literal != parts[i] {
			return nil, false
		}
	}
	if params == nil {
		params = map[string]string{}
	}
	return params, true
}

// normalize trims a single trailing slash so "/accounts/" and "/accounts"
// resolve to the same route. The root path stays "/".
func normalize(path string) string {
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		return path[:len(path)-1]
	}
	if path == "" {
		return "/"
	}
	return path
}

func parseQuery(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			continue
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		out[k] = v
	}
	return out
}
