package codeverifier

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// MethodS256 is the only challenge method handed out.
const MethodS256 = "S256"

const verifierBytes = 32

// Verifier is the secret half of a proof key. Only its challenge leaves the process.
type Verifier struct {
	Value string
}

func NewVerifierFrom(value string) Verifier {
	return Verifier{Value: value}
}

func NewVerifier() (Verifier, error) {
	buf := make([]byte, verifierBytes)
	_, err := rand.Read(buf)
	if err != nil {
		return Verifier{}, fmt.Errorf("could not generate %d verifier bytes: %v", verifierBytes, err)
	}

	return Verifier{Value: hex.EncodeToString(buf)}, nil
}

// Challenge is the base64url encoded sha256 of the verifier.
func (v Verifier) Challenge() string {
	sum := sha256.Sum256([]byte(v.Value))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Matches tells whether the given S256 challenge was derived from this verifier.
func (v Verifier) Matches(challenge string) bool {
	return v.Value != "" && subtle.ConstantTimeCompare([]byte(v.Challenge()), []byte(challenge)) == 1
}
