package magiclink

import (
	"fmt"
	"time"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateExpired State = "expired"
	StateInvalid State = "invalid"
	StateError   State = "error"
)

type ErrorCode string

const (
	ErrorCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrorCodeTokenInvalid       ErrorCode = "TOKEN_INVALID"
	ErrorCodeVerificationFailed ErrorCode = "VERIFICATION_FAILED"
	ErrorCodeNoToken            ErrorCode = "NO_TOKEN"
	ErrorCodeCallbackError      ErrorCode = "CALLBACK_ERROR"
)

type User struct {
	UID         string `json:"uid"`
	CustomerUID string `json:"customerUid,omitempty"`
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Credential is what a successful handshake leaves behind. It is kept in the vault, never in the session.
type Credential struct {
	HandshakeUID string
	AccessToken  string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	User         User
}

func (c Credential) IsValid(now time.Time) bool {
	if c.AccessToken == "" {
		return false
	}
	return c.ExpiresAt.IsZero() || now.Before(c.ExpiresAt)
}

type LinkRequest struct {
	StoreUID            string `json:"storeUid"`
	Phone               string `json:"phone,omitempty"`
	Email               string `json:"email,omitempty"`
	RedirectURL         string `json:"redirectUrl"`
	CodeChallenge       string `json:"codeChallenge"`
	CodeChallengeMethod string `json:"codeChallengeMethod"`
}

// VerificationError is a typed refusal of the verification service.
type VerificationError struct {
	Code    ErrorCode
	Message string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed (%s): %s", e.Code, e.Message)
}

// Entry is how the handshake is started from the callback: with an error code, with a token only, or with a token and the user it belongs to.
type Entry struct {
	ErrorCode ErrorCode
	Message   string
	Token     string
	User      *User
}

type Transition struct {
	From     State
	To       State
	At       time.Time
	HasToken bool
	HasUser  bool
	Reason   string
}

type Status struct {
	UID               string
	State             State
	ErrorCode         ErrorCode `json:",omitempty"`
	Message           string    `json:",omitempty"`
	Retries           int
	CanRetry          bool
	CanRequestNewLink bool
	RedirectAfter     time.Duration `json:",omitempty"`
	Credential        *Credential   `json:"-"`
}
