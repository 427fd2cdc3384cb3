package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// ErrMalformedToken indicates the token is not a decodable three-segment JWT.
var ErrMalformedToken = errors.New("session: malformed token")

// Identity is the minimal user identity reconstructed from a token payload.
// It is derived without signature verification and must never be treated as
// authorization proof; only the signed token replayed to the API is.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// DecodeIdentity extracts an Identity from the payload segment of a JWT
// without verifying its signature. The server re-verifies on every call, so
// this is a convenience decode only. When both userId and sub are present,
// userId wins.
func DecodeIdentity(token string) (Identity, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Identity{}, ErrMalformedToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return Identity{}, ErrMalformedToken
	}
	var claims struct {
		UserID string `json:"userId"`
		Sub    string `json:"sub"`
		Email  string `json:"email"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Identity{}, ErrMalformedToken
	}
	id := claims.UserID
	if id == "" {
		id = claims.Sub
	}
	if id == "" {
		return Identity{}, ErrMalformedToken
	}
	return Identity{ID: id, Email: claims.Email}, nil
}
