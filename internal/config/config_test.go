package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/config"
)

func TestParseTTL(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"15m", 15 * time.Minute},
		{"45s", 45 * time.Second},
		{"12h", 12 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{" 30m ", 30 * time.Minute},
	}
	for _, c := range cases {
		require.Equal(t, c.want, config.ParseTTL(c.in, time.Minute), "input %q", c.in)
	}
}

func TestParseTTLFallsBackOnBadInput(t *testing.T) {
	fallback := config.DefaultAccessTokenTTL
	for _, in := range []string{"", "15", "m", "15 m", "1.5h", "-2d", "7w", "7dd", "d7"} {
		require.Equal(t, fallback, config.ParseTTL(in, fallback), "input %q", in)
	}
}
