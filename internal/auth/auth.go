// Package auth verifies bearer tokens issued by the identity provider. It
// never issues credentials for end users.
package auth

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("auth: invalid or expired token")

// Identity is what the identity provider vouches for after sign-in.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
