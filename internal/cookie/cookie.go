// Package cookie implements the request-cookie parser and Set-Cookie builder
// used by the auth flow. Values are URL-encoded on write and decoded on read,
// so arbitrary token strings survive the round trip.
package cookie

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SameSite enumerates the SameSite cookie attribute.
type SameSite string

const (
	SameSiteStrict SameSite = "Strict"
	SameSiteLax    SameSite = "Lax"
	SameSiteNone   SameSite = "None"
)

// Options control the attributes emitted by Build. Path defaults to "/".
// Expires, when set, takes precedence over MaxAge; setting it to the epoch is
// how a cookie is cleared.
type Options struct {
	HTTPOnly bool
	Secure   bool
	SameSite SameSite
	Domain   string
	Path     string
	MaxAge   int
	Expires  time.Time
}

// Parse splits a Cookie request header into a name-value map. Pairs without
// an "=" are skipped; when a name repeats, the last occurrence wins.
func Parse(header string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		out[name] = value
	}
	return out
}

// Build produces a single Set-Cookie header value.
func Build(name, value string, opts Options) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(value))

	path := opts.Path
	if path == "" {
		path = "/"
	}
	b.WriteString("; Path=")
	b.WriteString(path)

	if opts.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(opts.Domain)
	}
	if !opts.Expires.IsZero() {
		b.WriteString("; Expires=")
		b.WriteString(opts.Expires.UTC().Format(http.TimeFormat))
	} else if opts.MaxAge > 0 {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(opts.MaxAge))
	}
	if opts.HTTPOnly {
		b.WriteString("; HttpOnly")
	}
	if opts.Secure {
		b.WriteString("; Secure")
	}
	if opts.SameSite != "" {
		b.WriteString("; SameSite=")
		b.WriteString(string(opts.SameSite))
	}
	return b.String()
}

// Clear returns a Set-Cookie value that expires the named cookie immediately.
func Clear(name string, opts Options) string {
	opts.Expires = time.Unix(0, 0)
	opts.MaxAge = 0
	return Build(name, "", opts)
}
