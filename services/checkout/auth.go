package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/MarcGrol/menucheckout/lib/codeverifier"
	"github.com/MarcGrol/menucheckout/lib/myerrors"
	"github.com/MarcGrol/menucheckout/lib/mylog"
	"github.com/MarcGrol/menucheckout/services/checkout/checkoutevents"
	"github.com/MarcGrol/menucheckout/services/magiclink"
)

// HandshakeResult is returned when a magic-link handshake succeeded.
type HandshakeResult struct {
	Result
	Handshake       magiclink.Status
	RedirectURL     string
	RedirectAfterMs int64
}

// resolveKnownIdentity applies the entry decision table: a valid account credential wins over a guest record.
func (s *service) resolveKnownIdentity(c context.Context, session *CheckoutSession) {
	key := session.Key()

	credential, found, err := s.vault.Get(c, key.String())
	if err != nil {
		s.logger.Log(c, key.String(), mylog.SeverityWarn, "Error reading credential: %s", err)
	} else if found && credential.IsValid(s.nower.Now()) {
		markAuthenticated(session, credential)
		return
	}

	record, found, err := s.guests.Get(c, key.String())
	if err != nil {
		s.logger.Log(c, key.String(), mylog.SeverityWarn, "Error reading guest record: %s", err)
		return
	}
	if found {
		markGuest(session, record.CustomerData)
		advanceIfAllowed(session, StepAuthentication)
		advanceIfAllowed(session, StepCustomerData)
	}
}

func markAuthenticated(session *CheckoutSession, credential magiclink.Credential) {
	user := credential.User

	// a customer record only exists for accounts that ordered before
	session.AuthenticationMethod = AuthenticationMethodNewAccount
	if user.CustomerUID != "" {
		session.AuthenticationMethod = AuthenticationMethodExistingAccount
	}
	session.IsAuthenticated = true
	session.IsGuest = false
	session.CustomerUID = user.CustomerUID
	if session.CustomerUID == "" {
		session.CustomerUID = user.UID
	}
	session.CustomerData = CustomerData{
		Name:  user.Name,
		Phone: user.Phone,
		Email: user.Email,
	}
	if session.CurrentStep == StepAuthentication || session.CurrentStep == StepCustomerData {
		session.CurrentStep = StepAuthentication
		advanceIfAllowed(session, StepAuthentication)
	}
}

func markGuest(session *CheckoutSession, data CustomerData) {
	session.IsGuest = true
	session.IsAuthenticated = false
	session.AuthenticationMethod = AuthenticationMethodGuest
	session.CustomerUID = ""
	session.CustomerData = data
}

func (s *service) continueAsGuest(c context.Context, key SessionKey) (Result, error) {
	result, err := s.mutate(c, key, func(session *CheckoutSession) error {
		if session.IsAuthenticated {
			return newValidationError("identity", "already signed in with an account")
		}
		markGuest(session, CustomerData{})
		advanceIfAllowed(session, StepAuthentication)
		return nil
	})
	if err != nil {
		return result, err
	}

	s.rememberGuest(c, key, result.Session.CustomerData)
	s.publish(c, key, checkoutevents.CheckoutAuthenticated{
		SessionUID: result.Session.UID,
		StoreUID:   key.StoreUID,
		Method:     string(AuthenticationMethodGuest),
	})
	return result, nil
}

// setCustomerData records the guest's contact data and moves on as soon as the name is known.
func (s *service) setCustomerData(c context.Context, key SessionKey, data CustomerData) (Result, error) {
	data, verr := validateCustomerData(data)
	if verr != nil {
		return s.getState(c, key), verr
	}

	result, err := s.mutate(c, key, func(session *CheckoutSession) error {
		if !session.IsGuest {
			decision := CanEnter(*session, StepCustomerData)
			return &StepBlockedError{Step: StepCustomerData, Reason: decision.Reason}
		}
		session.CustomerData = data
		if session.CurrentStep == StepAuthentication {
			session.CurrentStep = StepCustomerData
		}
		advanceIfAllowed(session, StepCustomerData)
		return nil
	})
	if err != nil {
		return result, err
	}

	s.rememberGuest(c, key, data)
	return result, nil
}

func validateCustomerData(data CustomerData) (CustomerData, error) {
	verr := &ValidationError{}

	data.Name = strings.TrimSpace(data.Name)
	if data.Name == "" {
		verr.add("name", "name is required")
	}

	data.Phone = digitsOnly(data.Phone)
	if data.Phone != "" && (len(data.Phone) < 10 || len(data.Phone) > 13) {
		verr.add("phone", "phone number must have area code and number")
	}

	data.Email = strings.TrimSpace(data.Email)
	if data.Email != "" {
		at := strings.Index(data.Email, "@")
		if at < 1 || !strings.Contains(data.Email[at:], ".") {
			verr.add("email", "email address is not valid")
		}
	}

	return data, verr.orNil()
}

func (s *service) rememberGuest(c context.Context, key SessionKey, data CustomerData) {
	now := s.nower.Now()

	record, found, err := s.guests.Get(c, key.String())
	if err != nil {
		s.logger.Log(c, key.String(), mylog.SeverityWarn, "Error reading guest record: %s", err)
	}
	if !found {
		record = GuestRecord{StoreUID: key.StoreUID, DeviceUID: key.DeviceUID, CreatedAt: now}
	}
	record.CustomerData = data
	record.LastModified = now

	err = s.guests.Put(c, key.String(), record)
	if err != nil {
		s.logger.Log(c, key.String(), mylog.SeverityWarn, "Error storing guest record: %s", err)
	}
}

// authenticateAccount stores the issued credential and marks the session as an account checkout.
func (s *service) authenticateAccount(c context.Context, key SessionKey, credential magiclink.Credential) (Result, error) {
	if credential.AccessToken == "" {
		return s.getState(c, key), newValidationError("accessToken", "access token is required")
	}
	if credential.User.UID == "" && credential.User.CustomerUID == "" {
		return s.getState(c, key), newValidationError("user", "user identification is required")
	}

	warnings := []string{}
	err := s.vault.Put(c, key.String(), credential)
	if err != nil {
		s.logger.Log(c, key.String(), mylog.SeverityWarn, "Error storing credential: %s", err)
		warnings = append(warnings, "sign-in could not be remembered on this device")
	}

	result, err := s.mutate(c, key, func(session *CheckoutSession) error {
		markAuthenticated(session, credential)
		return nil
	})
	if err != nil {
		return result, err
	}
	result.Warnings = append(result.Warnings, warnings...)

	s.logger.Log(c, key.String(), mylog.SeverityInfo, "Checkout %s authenticated as %s", result.Session.UID, result.Session.AuthenticationMethod)
	s.publish(c, key, checkoutevents.CheckoutAuthenticated{
		SessionUID: result.Session.UID,
		StoreUID:   key.StoreUID,
		Method:     string(result.Session.AuthenticationMethod),
	})
	return result, nil
}

// login accepts an access token of a password or account-creation login done elsewhere.
// The account behind the token is asked from the backend, never taken from the request.
func (s *service) login(c context.Context, key SessionKey, accessToken string) (Result, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return s.getState(c, key), newValidationError("accessToken", "access token is required")
	}

	user, err := s.linkClient.Profile(c, accessToken)
	if err != nil {
		s.logger.Log(c, key.String(), mylog.SeverityWarn, "Login refused: %s", err)
		var verr *magiclink.VerificationError
		if errors.As(err, &verr) {
			return s.getState(c, key), myerrors.NewAuthenticationError(err)
		}
		return s.getState(c, key), myerrors.NewBadGatewayError(err)
	}

	credential := magiclink.Credential{
		AccessToken: accessToken,
		IssuedAt:    s.nower.Now(),
		User:        user,
	}
	credential.ExpiresAt, _ = magiclink.ExpiryOf(accessToken)
	return s.authenticateAccount(c, key, credential)
}

// requestLink asks the backend to send a magic link and prepares a handshake bound to this device.
func (s *service) requestLink(c context.Context, key SessionKey, phone string, email string, callbackURL string) (magiclink.Status, error) {
	phone = digitsOnly(phone)
	email = strings.TrimSpace(email)
	if phone == "" && email == "" {
		return magiclink.Status{}, newValidationError("phone", "phone number or email is required")
	}

	verifier, err := codeverifier.NewVerifier()
	if err != nil {
		return magiclink.Status{}, myerrors.NewInternalError(err)
	}

	err = s.linkClient.RequestLink(c, magiclink.LinkRequest{
		StoreUID:            key.StoreUID,
		Phone:               phone,
		Email:               email,
		RedirectURL:         callbackURL,
		CodeChallenge:       verifier.Challenge(),
		CodeChallengeMethod: codeverifier.MethodS256,
	})
	if err != nil {
		return magiclink.Status{}, myerrors.NewBadGatewayError(err)
	}

	h := s.newHandshake(key, verifier.Value)
	if previous := s.handshakes.put(key, h); previous != nil {
		previous.Cancel()
	}
	s.logger.Log(c, key.String(), mylog.SeverityInfo, "Magic link requested, handshake %s waiting for callback", h.UID())

	return h.Status(), nil
}

func (s *service) newHandshake(key SessionKey, codeVerifier string) *magiclink.Handshake {
	return magiclink.NewHandshake(s.uuider.Create(), key.String(), codeVerifier, s.linkClient, s.nower, s.logger, s.handshakeConfig)
}

// handleCallback runs the handshake for a callback arriving on this device.
func (s *service) handleCallback(c context.Context, key SessionKey, entry magiclink.Entry) (HandshakeResult, error) {
	h, found := s.handshakes.get(key)
	if !found || h.Status().State != magiclink.StateIdle {
		// link opened without a pending request from this device: verify without device binding
		h = s.newHandshake(key, "")
		if previous := s.handshakes.put(key, h); previous != nil {
			previous.Cancel()
		}
	}

	status := h.Start(c, entry)
	return s.finishHandshake(c, key, h, status)
}

func (s *service) retryHandshake(c context.Context, key SessionKey) (HandshakeResult, error) {
	h, found := s.handshakes.get(key)
	if !found {
		return HandshakeResult{}, myerrors.NewNotFoundError(fmt.Errorf("no magic-link handshake in progress"))
	}

	status, err := h.Retry(c)
	if errors.Is(err, magiclink.ErrRetryNotAllowed) {
		return HandshakeResult{Handshake: status}, myerrors.NewConflictError(&HandshakeError{Status: status})
	}
	if err != nil {
		return HandshakeResult{Handshake: status}, err
	}
	return s.finishHandshake(c, key, h, status)
}

func (s *service) finishHandshake(c context.Context, key SessionKey, h *magiclink.Handshake, status magiclink.Status) (HandshakeResult, error) {
	if status.State != magiclink.StateSuccess || status.Credential == nil {
		return HandshakeResult{Handshake: status}, &HandshakeError{Status: status}
	}

	if !s.handshakes.removeIf(key, h) {
		s.logger.Log(c, key.String(), mylog.SeverityInfo, "Ignoring outcome of abandoned handshake %s", h.UID())
		return HandshakeResult{Handshake: status}, myerrors.NewConflictError(fmt.Errorf("magic-link handshake %s was abandoned", h.UID()))
	}

	result, err := s.authenticateAccount(c, key, *status.Credential)
	if err != nil {
		s.dropCredentialOf(c, key, h)
		return HandshakeResult{Handshake: status}, err
	}

	return HandshakeResult{
		Result:          result,
		Handshake:       status,
		RedirectURL:     fmt.Sprintf("/checkout/%s", key.StoreUID),
		RedirectAfterMs: status.RedirectAfter.Milliseconds(),
	}, nil
}

// restartHandshake is "request a new link": the abandoned handshake is torn down and checkout
// returns to the authentication step.
func (s *service) restartHandshake(c context.Context, key SessionKey) (Result, error) {
	s.abandonHandshake(c, key)

	return s.mutate(c, key, func(session *CheckoutSession) error {
		if !session.IdentityResolved() {
			session.CurrentStep = StepAuthentication
		}
		return nil
	})
}

func (s *service) abandonHandshake(c context.Context, key SessionKey) {
	h := s.handshakes.remove(key)
	if h == nil {
		return
	}
	h.Cancel()
	if h.Status().State != magiclink.StateSuccess {
		s.dropCredentialOf(c, key, h)
	}
}

// dropCredentialOf removes a stored credential only when it was issued by handshake h.
func (s *service) dropCredentialOf(c context.Context, key SessionKey, h *magiclink.Handshake) {
	credential, found, err := s.vault.Get(c, key.String())
	if err != nil || !found || credential.HandshakeUID != h.UID() {
		return
	}
	err = s.vault.Delete(c, key.String())
	if err != nil {
		s.logger.Log(c, key.String(), mylog.SeverityWarn, "Error removing credential of abandoned handshake %s: %s", h.UID(), err)
		return
	}
	s.logger.Log(c, key.String(), mylog.SeverityInfo, "Removed credential of abandoned handshake %s", h.UID())
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
