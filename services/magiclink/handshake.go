package magiclink

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/MarcGrol/menucheckout/lib/mylog"
	"github.com/MarcGrol/menucheckout/lib/mytime"
)

var ErrRetryNotAllowed = errors.New("retry not allowed in current handshake state")

var (
	expiredPattern = regexp.MustCompile(`(?i)expir`)
	invalidPattern = regexp.MustCompile(`(?i)invalid|inv[aá]lid|already (been )?used|consumed|utilizado`)
)

var allowedTransitions = map[State][]State{
	StateIdle:    {StateLoading},
	StateLoading: {StateSuccess, StateExpired, StateInvalid, StateError},
	StateError:   {StateLoading},
}

type Config struct {
	MaxRetries    int
	RetryBackoff  time.Duration
	RedirectDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:    3,
		RetryBackoff:  time.Second,
		RedirectDelay: 2 * time.Second,
	}
}

// Handshake drives a single magic-link callback from arrival to a terminal state.
// It is safe for concurrent use; verification calls are made without holding the lock.
type Handshake struct {
	sync.Mutex
	uid          string
	traceLabel   string
	codeVerifier string
	client       Client
	nower        mytime.Nower
	logger       mylog.Logger
	config       Config

	state       State
	errorCode   ErrorCode
	message     string
	token       string
	user        *User
	credential  *Credential
	retries     int
	cancelled   bool
	cancelRetry context.CancelFunc
	transitions []Transition
}

func NewHandshake(uid string, traceLabel string, codeVerifier string, client Client, nower mytime.Nower, logger mylog.Logger, config Config) *Handshake {
	return &Handshake{
		uid:          uid,
		traceLabel:   traceLabel,
		codeVerifier: codeVerifier,
		client:       client,
		nower:        nower,
		logger:       logger,
		config:       config,
		state:        StateIdle,
	}
}

func (h *Handshake) UID() string {
	return h.uid
}

// Start processes the callback entry. Only an idle handshake that was not cancelled can be started.
// A token that arrives together with a user is an access token: the user is looked up with the backend
// and must match the one in the callback.
func (h *Handshake) Start(c context.Context, entry Entry) Status {
	h.Lock()
	if h.state != StateIdle || h.cancelled {
		defer h.Unlock()
		return h.statusLocked()
	}

	h.token = entry.Token
	h.user = entry.User
	h.transitionLocked(c, StateLoading, "callback received")

	switch {
	case entry.ErrorCode != "":
		state := stateForCode(entry.ErrorCode)
		h.settleLocked(c, state, entry.ErrorCode, entry.Message)
		h.Unlock()
		return h.Status()

	case entry.Token == "":
		h.settleLocked(c, StateError, ErrorCodeNoToken, "no token in callback")
		h.Unlock()
		return h.Status()
	}
	c, cancel := context.WithCancel(c)
	h.cancelRetry = cancel
	h.Unlock()

	defer cancel()

	return h.verify(c)
}

// Retry re-runs verification after the configured backoff. It is allowed from the error state of a
// handshake that was not cancelled, only when a token is known, and at most MaxRetries times.
func (h *Handshake) Retry(c context.Context) (Status, error) {
	h.Lock()
	if !h.canRetryLocked() {
		defer h.Unlock()
		return h.statusLocked(), ErrRetryNotAllowed
	}
	h.retries++
	c, cancel := context.WithCancel(c)
	h.cancelRetry = cancel
	h.transitionLocked(c, StateLoading, fmt.Sprintf("retry %d of %d", h.retries, h.config.MaxRetries))
	h.Unlock()

	defer cancel()

	timer := time.NewTimer(h.config.RetryBackoff)
	defer timer.Stop()
	select {
	case <-c.Done():
		h.Lock()
		h.cancelRetry = nil
		h.settleLocked(context.WithoutCancel(c), StateError, ErrorCodeVerificationFailed, "retry cancelled")
		h.Unlock()
		return h.Status(), c.Err()
	case <-timer.C:
	}

	return h.verify(c), nil
}

// Cancel aborts a verification or retry in flight. A cancelled handshake never succeeds.
func (h *Handshake) Cancel() {
	h.Lock()
	defer h.Unlock()

	h.cancelled = true
	if h.cancelRetry != nil {
		h.cancelRetry()
		h.cancelRetry = nil
	}
}

func (h *Handshake) Status() Status {
	h.Lock()
	defer h.Unlock()

	return h.statusLocked()
}

func (h *Handshake) Transitions() []Transition {
	h.Lock()
	defer h.Unlock()

	return append([]Transition{}, h.transitions...)
}

func (h *Handshake) verify(c context.Context) Status {
	h.Lock()
	token := h.token
	claimed := h.user
	h.Unlock()

	accessToken := token
	user := User{}
	var err error
	if claimed != nil {
		user, err = h.client.Profile(c, token)
		if err == nil && user.UID != claimed.UID {
			err = &VerificationError{Code: ErrorCodeTokenInvalid, Message: "token does not belong to this user"}
		}
	} else {
		var resp VerifyResponse
		resp, err = h.client.Verify(c, token, h.codeVerifier)
		accessToken = resp.AccessToken
		user = resp.User
	}

	h.Lock()
	defer h.Unlock()

	h.cancelRetry = nil
	c = context.WithoutCancel(c)
	if h.cancelled {
		h.settleLocked(c, StateError, ErrorCodeVerificationFailed, "handshake cancelled")
		return h.statusLocked()
	}
	if err != nil {
		state, code, message := classify(err)
		h.settleLocked(c, state, code, message)
		return h.statusLocked()
	}

	credential := newCredential(h.uid, accessToken, user, h.nower.Now())
	h.user = &user
	h.credential = &credential
	h.settleLocked(c, StateSuccess, "", "")
	return h.statusLocked()
}

func (h *Handshake) settleLocked(c context.Context, to State, code ErrorCode, message string) {
	h.errorCode = code
	h.message = message
	reason := string(code)
	if message != "" {
		reason = fmt.Sprintf("%s: %s", code, message)
	}
	h.transitionLocked(c, to, reason)
}

func (h *Handshake) transitionLocked(c context.Context, to State, reason string) {
	from := h.state
	if !isAllowed(from, to) {
		h.logger.Log(c, h.traceLabel, mylog.SeverityError, "magic-link handshake %s: refused transition %s -> %s (%s)", h.uid, from, to, reason)
		return
	}

	t := Transition{
		From:     from,
		To:       to,
		At:       h.nower.Now(),
		HasToken: h.token != "",
		HasUser:  h.user != nil,
		Reason:   reason,
	}
	h.transitions = append(h.transitions, t)
	h.state = to

	h.logger.Log(c, h.traceLabel, mylog.SeverityInfo, "magic-link handshake %s: %s -> %s at %s (token:%t, user:%t) %s",
		h.uid, t.From, t.To, t.At.Format(time.RFC3339), t.HasToken, t.HasUser, t.Reason)
}

func (h *Handshake) canRetryLocked() bool {
	return h.state == StateError && !h.cancelled && h.token != "" && h.retries < h.config.MaxRetries
}

func (h *Handshake) statusLocked() Status {
	status := Status{
		UID:       h.uid,
		State:     h.state,
		ErrorCode: h.errorCode,
		Message:   h.message,
		Retries:   h.retries,
		CanRetry:  h.canRetryLocked(),
	}
	switch h.state {
	case StateExpired, StateInvalid, StateError:
		status.CanRequestNewLink = true
	case StateSuccess:
		status.Credential = h.credential
		status.RedirectAfter = h.config.RedirectDelay
	}
	return status
}

func isAllowed(from State, to State) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func stateForCode(code ErrorCode) State {
	switch code {
	case ErrorCodeTokenExpired:
		return StateExpired
	case ErrorCodeTokenInvalid:
		return StateInvalid
	default:
		return StateError
	}
}

func classify(err error) (State, ErrorCode, string) {
	code := ErrorCodeVerificationFailed
	message := err.Error()

	var verr *VerificationError
	if errors.As(err, &verr) {
		if state := stateForCode(verr.Code); state != StateError {
			return state, verr.Code, verr.Message
		}
		code = verr.Code
		message = verr.Message
	}

	switch {
	case expiredPattern.MatchString(message):
		return StateExpired, ErrorCodeTokenExpired, message
	case invalidPattern.MatchString(message):
		return StateInvalid, ErrorCodeTokenInvalid, message
	}
	return StateError, code, message
}
