package auth

import (
	"errors"
	"time"

	"github.com/facturacion/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrMissingChannelID = errors.New("missing channel_id in claims")
)

// Claims identify the acting user and, once onboarded, the channel the
// session acts for. channel_id is absent on tokens minted before the user
// belongs to any channel.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id,omitempty"`
}

// JWTService validates bearer tokens. Minting exists for trusted callers such
// as tests and operator tooling; sessions are issued by the surrounding system.
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	expiration := cfg.AccessTokenExpiration
	if expiration <= 0 {
		expiration = 15 * time.Minute
	}
	return &JWTService{
		secret:     []byte(cfg.Secret),
		expiration: expiration,
		issuer:     cfg.Issuer,
	}
}

// GenerateAccessToken signs an HS256 token for userID acting in channelID.
// Pass uuid.Nil for a user without a channel yet.
func (s *JWTService) GenerateAccessToken(userID, channelID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiration)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID.String(),
	}
	if channelID != uuid.Nil {
		claims.ChannelID = channelID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken verifies signature, time window and issuer and returns
// the claims. user_id must be present; channel_id, when present, must be a UUID.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrInvalidClaims
	}
	if claims.ChannelID != "" {
		if _, err := uuid.Parse(claims.ChannelID); err != nil {
			return nil, ErrInvalidClaims
		}
	}
	return claims, nil
}

// UserUUID parses the user ID
func (c *Claims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// ChannelUUID parses the channel ID. It returns ErrMissingChannelID for
// tokens without one.
func (c *Claims) ChannelUUID() (uuid.UUID, error) {
	if c.ChannelID == "" {
		return uuid.Nil, ErrMissingChannelID
	}
	return uuid.Parse(c.ChannelID)
}

// ExpiresAtTime returns the token's expiration time
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// AccessTokenExpiration returns the lifetime of minted tokens
func (s *JWTService) AccessTokenExpiration() time.Duration {
	return s.expiration
}
