package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims identify one guest storefront session. The session id keys
// the in-process cart and catalog view state.
type SessionClaims struct {
	SessionID uuid.UUID `json:"sid"`
	jwt.RegisteredClaims
}

// SessionTokenPayload is the input for minting a session token.
type SessionTokenPayload struct {
	SessionID uuid.UUID
}
