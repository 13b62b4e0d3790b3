package auth

import (
	"context"

	firebaseauth "firebase.google.com/go/v4/auth"
)

// FirebaseVerifier accepts Firebase Authentication ID tokens.
type FirebaseVerifier struct {
	Client *firebaseauth.Client
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	tok, err := v.Client.VerifyIDToken(ctx, token)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	id := Identity{UID: tok.UID}
	if email, ok := tok.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := tok.Claims["name"].(string); ok {
		id.DisplayName = name
	}
	return id, nil
}
