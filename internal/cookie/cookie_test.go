package cookie_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/cookie"
)

func TestParse(t *testing.T) {
	got := cookie.Parse("a=1; b=hello%20world")
	require.Equal(t, map[string]string{"a": "1", "b": "hello world"}, got)
}

func TestParseSkipsMalformedPairs(t *testing.T) {
	got := cookie.Parse("a=1; garbage; =empty; b=2")
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, got)
}

func TestParseDuplicateLastWins(t *testing.T) {
	got := cookie.Parse("sf_at=first; sf_at=second")
	require.Equal(t, "second", got["sf_at"])
}

func TestBuildAttributes(t *testing.T) {
	v := cookie.Build("sf_at", "tok", cookie.Options{
		HTTPOnly: true,
		Secure:   true,
		SameSite: cookie.SameSiteStrict,
		MaxAge:   900,
	})
	require.Equal(t, "sf_at=tok; Path=/; Max-Age=900; HttpOnly; Secure; SameSite=Strict", v)
}

func TestBuildExpiresOverridesMaxAge(t *testing.T) {
	v := cookie.Build("sf_rt", "x", cookie.Options{MaxAge: 900, Expires: time.Unix(0, 0)})
	require.Contains(t, v, "Expires=Thu, 01 Jan 1970 00:00:00 GMT")
	require.NotContains(t, v, "Max-Age")
}

func TestClearExpiresImmediately(t *testing.T) {
	v := cookie.Clear("sf_rt", cookie.Options{HTTPOnly: true})
	require.Contains(t, v, "sf_rt=; Path=/")
	require.Contains(t, v, "Expires=Thu, 01 Jan 1970 00:00:00 GMT")
	require.Contains(t, v, "HttpOnly")
}

func TestRoundTripReservedCharacters(t *testing.T) {
	for _, value := range []string{
		"plain",
		"a=b;c d",
		"with spaces and = signs; and semicolons",
		"eyJhbGciOiJIUzI1NiJ9.payload.sig",
		"%weird%%",
	} {
		set := cookie.Build("k", value, cookie.Options{})
		pair, _, _ := strings.Cut(set, ";")
		parsed := cookie.Parse(pair)
		require.Equal(t, value, parsed["k"], "value %q", value)
	}
}
