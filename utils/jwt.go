package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminRole is the only role tokens are issued for.
const AdminRole = "admin"

type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and checks HS256 admin tokens.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
}

// NewTokenIssuer returns an issuer; an empty secret disables admin login.
func NewTokenIssuer(secret string, expiryHours int) *TokenIssuer {
	if expiryHours <= 0 {
		expiryHours = 24
	}
	return &TokenIssuer{secret: []byte(secret), expiry: time.Duration(expiryHours) * time.Hour}
}

func (t *TokenIssuer) GenerateJWT(subject string) (string, error) {
	if len(t.secret) == 0 {
		return "", errors.New("JWT_SECRET not set")
	}

	now := time.Now()
	claims := JWTClaims{
		Role: AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *TokenIssuer) ValidateJWT(tokenString string) (*JWTClaims, error) {
	if len(t.secret) == 0 {
		return nil, errors.New("JWT_SECRET not set")
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid && claims.Role == AdminRole {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
