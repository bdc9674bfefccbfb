package checkout

import (
	"context"
	"errors"
	"reflect"

	"github.com/MarcGrol/menucheckout/lib/mylog"
	"github.com/MarcGrol/menucheckout/services/checkout/checkoutevents"
)

// load restores the live session for key or lazily creates one, then brings it in line with
// the cart and with identities that are already known for this device. A created session is
// stored right away so that failing mutations do not mint a new one on every call.
func (s *service) load(c context.Context, key SessionKey) (CheckoutSession, bool, []string) {
	warnings := []string{}

	session, found, err := s.sessions.Restore(c, key)
	if err != nil {
		s.logger.Log(c, key.String(), mylog.SeverityWarn, "Starting over after failing to restore checkout: %s", err)
		warnings = append(warnings, "previous checkout progress could not be restored")
	}
	if !found {
		session = s.sessions.Create(key)
	}

	before := clone(session)
	s.syncWithCart(c, &session)
	if !session.IdentityResolved() {
		s.resolveKnownIdentity(c, &session)
	}
	refreshCompleted(&session)
	settle(&session)

	if !found {
		return session, false, append(warnings, s.start(c, key, &session)...)
	}
	return session, !reflect.DeepEqual(before, session), warnings
}

// start persists a newly created session. Only a session that was stored announces itself.
func (s *service) start(c context.Context, key SessionKey, session *CheckoutSession) []string {
	*session = s.sessions.Touch(*session)
	if warning := s.sessions.Save(c, *session); warning != "" {
		return []string{warning}
	}

	s.logger.Log(c, key.String(), mylog.SeverityInfo, "Created checkout session %s", session.UID)
	s.publish(c, key, checkoutevents.CheckoutStarted{
		SessionUID: session.UID,
		StoreUID:   key.StoreUID,
		DeviceUID:  key.DeviceUID,
	})
	return nil
}

func (s *service) syncWithCart(c context.Context, session *CheckoutSession) {
	basket, found, err := s.carts.GetBasket(c, session.StoreUID, session.DeviceUID)
	if err != nil {
		s.logger.Log(c, session.Key().String(), mylog.SeverityWarn, "Error reading cart: %s", err)
		return
	}
	if found {
		session.DeliveryRequired = basket.RequiresDelivery()
	}
}

// mutate is the single write path: load, apply change, re-evaluate the gate, touch and persist.
// When change fails the stored session is left exactly as it was.
func (s *service) mutate(c context.Context, key SessionKey, change func(session *CheckoutSession) error) (Result, error) {
	session, _, warnings := s.load(c, key)

	updated := clone(session)
	err := change(&updated)
	if err != nil {
		return Result{Session: session, Warnings: warnings}, err
	}

	refreshCompleted(&updated)
	settle(&updated)
	updated = s.sessions.Touch(updated)

	if warning := s.sessions.Save(c, updated); warning != "" {
		warnings = append(warnings, warning)
	}
	return Result{Session: updated, Warnings: warnings}, nil
}

func (s *service) getState(c context.Context, key SessionKey) Result {
	session, changed, warnings := s.load(c, key)
	if changed {
		session = s.sessions.Touch(session)
		if warning := s.sessions.Save(c, session); warning != "" {
			warnings = append(warnings, warning)
		}
	}
	return Result{Session: session, Warnings: warnings}
}

// advance moves to the next step of the graph or returns a StepBlockedError without touching the session.
func (s *service) advance(c context.Context, key SessionKey) (Result, error) {
	return s.mutate(c, key, func(session *CheckoutSession) error {
		next := NextStep(*session)
		if next == "" {
			return &StepBlockedError{Step: session.CurrentStep, Reason: "already at the last step"}
		}
		decision := CanEnter(*session, next)
		if !decision.Allowed {
			return &StepBlockedError{Step: next, Reason: decision.Reason, Cause: decision.Cause}
		}
		session.CurrentStep = next
		return nil
	})
}

var errEntryRefused = errors.New("step entry refused")

// goTo enters step when the gate allows it. A refusal is not an error: nothing changes and the reason is reported.
func (s *service) goTo(c context.Context, key SessionKey, step Step) (Result, error) {
	reason := ""
	result, err := s.mutate(c, key, func(session *CheckoutSession) error {
		decision := CanEnter(*session, step)
		if !decision.Allowed {
			reason = decision.Reason
			return errEntryRefused
		}
		session.CurrentStep = step
		return nil
	})
	if errors.Is(err, errEntryRefused) {
		result.Blocked = reason
		return result, nil
	}
	return result, err
}

// reset throws away all progress and starts a new session.
func (s *service) reset(c context.Context, key SessionKey) (Result, error) {
	s.cancel(c, key)
	return s.getState(c, key), nil
}

// cancel ends the checkout: pending handshake retries stop and the session is removed.
func (s *service) cancel(c context.Context, key SessionKey) {
	s.abandonHandshake(c, key)

	session, found, _ := s.sessions.Restore(c, key)
	err := s.sessions.Clear(c, key)
	if err != nil {
		s.logger.Log(c, key.String(), mylog.SeverityWarn, "Error clearing checkout session: %s", err)
	}
	if found {
		s.publish(c, key, checkoutevents.CheckoutCancelled{
			SessionUID: session.UID,
			StoreUID:   key.StoreUID,
			DeviceUID:  key.DeviceUID,
		})
	}
}

func clone(session CheckoutSession) CheckoutSession {
	cloned := session
	if session.CompletedSteps != nil {
		cloned.CompletedSteps = append([]Step{}, session.CompletedSteps...)
	}
	if session.SelectedAddress != nil {
		address := *session.SelectedAddress
		cloned.SelectedAddress = &address
	}
	if session.PaymentMethod != nil {
		method := *session.PaymentMethod
		cloned.PaymentMethod = &method
	}
	if session.PaymentSelection != nil {
		selection := *session.PaymentSelection
		cloned.PaymentSelection = &selection
	}
	return cloned
}
