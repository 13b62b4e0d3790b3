package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// JWTVerifier accepts HS256 tokens whose subject is the user id. It stands in
// for the identity provider in development and tests.
type JWTVerifier struct {
	Secret []byte
	Issuer string
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.Issuer),
	)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UID: claims.Subject, Email: claims.Email, DisplayName: claims.Name}, nil
}

// Issue signs a token for id valid for ttl.
func (v *JWTVerifier) Issue(id Identity, ttl time.Duration) (string, error) {
	if id.UID == "" {
		return "", errors.New("auth: empty uid")
	}
	now := time.Now()
	claims := Claims{
		Email: id.Email,
		Name:  id.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			Issuer:    v.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.Secret)
}
