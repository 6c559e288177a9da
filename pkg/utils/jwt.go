package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "repairshop-api"

var ErrInvalidToken = errors.New("invalid token")

// Subject is the identity stamped into an access token. Workflows read it
// back to record who created a sale or handed a device over.
type Subject struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  string
}

// Claims is the signed payload of an access token.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the subject carried by the token. The user id lives in
// the registered "sub" claim.
func (c *Claims) Identity() (Subject, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return Subject{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return Subject{ID: id, Email: c.Email, Name: c.Name, Role: c.Role}, nil
}

// JWTManager signs and verifies HS256 access tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), ttl: ttl}
}

func (m *JWTManager) GenerateAccessToken(sub Subject) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: sub.Email,
		Name:  sub.Name,
		Role:  sub.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   sub.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ValidateAccessToken verifies signature, issuer and expiry and returns the
// token's subject.
func (m *JWTManager) ValidateAccessToken(raw string) (Subject, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Subject{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.Identity()
}
