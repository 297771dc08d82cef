// Package auth issues and validates the JWT tokens used by the KyberChat
// REST API and websocket gateway.
package auth

import "github.com/golang-jwt/jwt/v5"

// TokenType separates the two token kinds the service mints.
type TokenType string

const (
	// TokenTypeAccess authorizes API requests and websocket attach; it is
	// short-lived and never stored server-side.
	TokenTypeAccess TokenType = "access"

	// TokenTypeRefresh obtains new access tokens; the server records its
	// jti so it can be revoked.
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the JWT payload. Identity is the numeric user id plus the
// username; there are no roles. Refresh tokens additionally carry a jti
// (RegisteredClaims.ID) for server-side revocation.
type Claims struct {
	jwt.RegisteredClaims

	// UserID identifies the account.
	UserID uint `json:"uid"`

	// Username mirrors the subject for convenience.
	Username string `json:"username"`

	// TokenType tells access and refresh tokens apart.
	TokenType TokenType `json:"token_type"`
}
