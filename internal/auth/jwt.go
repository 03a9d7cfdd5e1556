package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"inventory-dashboard/internal/models"
)

// Claims represents the JWT claims issued by the mock products API
type Claims struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT operations for the in-process mock API.
// Tokens from the live API are never verified here, only inspected.
type JWTManager struct {
	secret   string
	issuer   string
	audience string
	expiry   time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret, issuer, audience string, expiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		expiry:   expiry,
	}
}

// ValidateConfig rejects settings that would produce weak or useless tokens
func (j *JWTManager) ValidateConfig() error {
	if len(j.secret) < 32 {
		return errors.New("JWT secret must be at least 32 characters long")
	}
	if j.issuer == "" {
		return errors.New("JWT issuer cannot be empty")
	}
	if j.audience == "" {
		return errors.New("JWT audience cannot be empty")
	}
	if j.expiry <= 0 {
		return errors.New("JWT expiry must be positive")
	}
	return nil
}

// GenerateToken creates a new JWT token for the user
func (j *JWTManager) GenerateToken(user models.User) (string, error) {
	if user.Username == "" {
		return "", errors.New("username is required")
	}

	now := time.Now()
	claims := &Claims{
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    j.issuer,
			Audience:  []string{j.audience},
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secret))
}

// ValidateToken validates and parses a JWT token
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.secret), nil
	}, jwt.WithIssuer(j.issuer), jwt.WithAudience(j.audience))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// User returns the identity carried by the claims
func (c *Claims) User() models.User {
	return models.User{
		ID:       c.Subject,
		Username: c.Username,
		Name:     c.Name,
		Role:     c.Role,
	}
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The second result is false for opaque tokens or tokens without exp.
func TokenExpiry(tokenString string) (time.Time, bool) {
	if validateTokenFormat(tokenString) != nil {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
