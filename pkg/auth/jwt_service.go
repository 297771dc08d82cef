package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kyberchat/kyberchat/pkg/models"
)

// Sentinel errors returned by token generation and validation.
var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrInvalidTokenType    = errors.New("invalid token type")
	ErrTokenSigningFailed  = errors.New("failed to sign token")
	ErrInvalidSecretLength = errors.New("JWT secret must be at least 32 characters")
)

// JWTConfig configures token minting.
type JWTConfig struct {
	// Secret is the HMAC signing key; anything under 32 characters is
	// rejected outright.
	Secret string

	// Issuer lands in the iss claim. Defaults to "kyberchat".
	Issuer string

	// AccessTokenDuration bounds access tokens. Defaults to 1 hour.
	AccessTokenDuration time.Duration

	// RefreshTokenDuration bounds refresh tokens. Defaults to 30 days.
	RefreshTokenDuration time.Duration
}

// withDefaults returns the config with unset fields filled in.
func (c JWTConfig) withDefaults() JWTConfig {
	if c.Issuer == "" {
		c.Issuer = "kyberchat"
	}
	if c.AccessTokenDuration == 0 {
		c.AccessTokenDuration = time.Hour
	}
	if c.RefreshTokenDuration == 0 {
		c.RefreshTokenDuration = 30 * 24 * time.Hour
	}
	return c
}

// JWTService mints and validates the HS256 tokens used across the REST API
// and the websocket gateway.
type JWTService struct {
	config JWTConfig
}

// NewJWTService builds a service from config, applying defaults.
func NewJWTService(config JWTConfig) (*JWTService, error) {
	if len(config.Secret) < 32 {
		return nil, ErrInvalidSecretLength
	}
	return &JWTService{config: config.withDefaults()}, nil
}

// TokenPair is what a successful register, login, or credential refresh
// hands back to the client.
type TokenPair struct {
	// AccessToken is the short-lived token for API authorization.
	AccessToken string `json:"access_token"`

	// RefreshToken obtains new access tokens until it expires or is
	// revoked.
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`

	// ExpiresAt is the access token expiry.
	ExpiresAt time.Time `json:"expires_at"`

	// RefreshJTI identifies the refresh token server-side for revocation.
	// Not serialized.
	RefreshJTI string `json:"-"`

	// RefreshExpiresAt is the refresh token expiry. Not serialized.
	RefreshExpiresAt time.Time `json:"-"`
}

// GenerateTokenPair mints the access/refresh pair for user. The refresh
// token gets a fresh jti so the store can track and revoke it.
func (s *JWTService) GenerateTokenPair(user *models.User) (*TokenPair, error) {
	now := time.Now()

	access, accessExpiry, err := s.sign(user, TokenTypeAccess, "", now, s.config.AccessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	jti := uuid.New().String()
	refresh, refreshExpiry, err := s.sign(user, TokenTypeRefresh, jti, now, s.config.RefreshTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresIn:        int64(s.config.AccessTokenDuration.Seconds()),
		ExpiresAt:        accessExpiry,
		RefreshJTI:       jti,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// GenerateAccessToken mints a standalone access token. The refresh
// endpoint uses this so refreshing never rotates or re-records the refresh
// token itself.
func (s *JWTService) GenerateAccessToken(user *models.User) (string, error) {
	token, _, err := s.sign(user, TokenTypeAccess, "", time.Now(), s.config.AccessTokenDuration)
	return token, err
}

// sign builds and signs one token, returning it with its expiry.
func (s *JWTService) sign(user *models.User, kind TokenType, jti string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	expiry := now.Add(ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.config.Issuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		UserID:    user.ID,
		Username:  user.Username,
		TokenType: kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, ErrTokenSigningFailed
	}
	return signed, expiry, nil
}

// keyFunc hands the HMAC secret to the parser, refusing any other signing
// scheme a client might smuggle into the header.
func (s *JWTService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return []byte(s.config.Secret), nil
}

// ValidateToken parses and verifies a token of either kind.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFunc)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAccessToken verifies the token and requires the access kind.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validateKind(tokenString, TokenTypeAccess)
}

// ValidateRefreshToken verifies the token and requires the refresh kind.
func (s *JWTService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validateKind(tokenString, TokenTypeRefresh)
}

func (s *JWTService) validateKind(tokenString string, want TokenType) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != want {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}

// GetAccessTokenDuration returns the configured access token lifetime.
func (s *JWTService) GetAccessTokenDuration() time.Duration {
	return s.config.AccessTokenDuration
}

// GetRefreshTokenDuration returns the configured refresh token lifetime.
func (s *JWTService) GetRefreshTokenDuration() time.Duration {
	return s.config.RefreshTokenDuration
}
