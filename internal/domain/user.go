package domain

import "time"

// User represents an account holder that can authenticate.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the authenticated principal attached to a request context. It
// is derived from verified access-token claims and never persisted.
type Identity struct {
	UserID int64
	Email  string
	Role   string
}

// CredentialSource records where a request's access token came from. The CSRF
// check depends on a total switch over this type: cookie-borne credentials
// are replayable cross-site, header-borne ones are not.
type CredentialSource int

const (
	SourceNone CredentialSource = iota
	SourceHeader
	SourceCookie
)

func (s CredentialSource) String() string {
	switch s {
	case SourceHeader:
		return "header"
	case SourceCookie:
		return "cookie"
	default:
		return "none"
	}
}
