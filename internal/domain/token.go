package domain

import "time"

// RefreshToken persists the server side of a refresh credential. Only the
// SHA-256 hash of the raw token is stored; the raw string exists solely on
// the client.
type RefreshToken struct {
	ID         int64
	UserID     int64
	TokenHash  string
	ExpiresAt  time.Time
	CreatedIP  string
	UserAgent  string
	CreatedAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *string
}

// Valid reports whether the record can still be exchanged: not revoked and
// not past its expiry.
func (t RefreshToken) Valid(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
