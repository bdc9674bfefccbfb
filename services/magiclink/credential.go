package magiclink

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryOf reads the exp claim of a JWT access token. The signature is not checked: the token was
// just handed out by the verification service and the backend verifies it on every use.
func ExpiryOf(accessToken string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(accessToken, claims)
	if err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time.UTC(), true
}

func newCredential(handshakeUID string, accessToken string, user User, now time.Time) Credential {
	expiresAt, _ := ExpiryOf(accessToken)
	return Credential{
		HandshakeUID: handshakeUID,
		AccessToken:  accessToken,
		IssuedAt:     now,
		ExpiresAt:    expiresAt,
		User:         user,
	}
}
