package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/auth"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/domain"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/httpx"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/router"
)

const maxBodyBytes = 1 << 20

// responder carries the bits every handler needs to answer a request.
type responder struct {
	logger      *zap.Logger
	development bool
}

func (re responder) ok(w http.ResponseWriter, status int, v any) {
	httpx.WriteJSON(w, status, v)
}

func (re responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteError(w, r, err, re.development, re.logger)
}

// decode reads a JSON body into v, rejecting unknown fields and oversized
// payloads with a 400.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return httpx.Validation("Malformed JSON body.")
	}
	return nil
}

// identity returns the authenticated principal or a 401. Routes registered
// behind the authenticator always have one; this guards direct handler use.
func identity(r *http.Request) (*domain.Identity, error) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		return nil, httpx.Unauthorized("Authentication required.")
	}
	return id, nil
}

// pathID parses the ":id" path parameter.
func pathID(r *http.Request) (int64, error) {
	raw := router.Param(r.Context(), "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.Validation("Invalid id.")
	}
	return id, nil
}

type userDTO struct {
	ID    int64  `json:"id,string"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func toUserDTO(u domain.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}
