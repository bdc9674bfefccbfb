package checkout

import (
	"fmt"
	"strings"
)

// Decision is the outcome of asking the gate whether a step may be entered.
type Decision struct {
	Allowed bool
	Reason  string
	Cause   error
}

func allow() Decision {
	return Decision{Allowed: true}
}

func refuse(cause error, format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...), Cause: cause}
}

// isBypassed tells whether a step is left out of this session's step graph.
func isBypassed(s CheckoutSession, step Step) bool {
	switch step {
	case StepCustomerData:
		return s.IsAuthenticated
	case StepAddress:
		return !s.DeliveryRequired
	}
	return false
}

func activeSteps(s CheckoutSession) []Step {
	steps := []Step{}
	for _, step := range stepOrder {
		if !isBypassed(s, step) {
			steps = append(steps, step)
		}
	}
	return steps
}

// isSatisfied evaluates the exit criteria of a step against the current data.
func isSatisfied(s CheckoutSession, step Step) bool {
	switch step {
	case StepAuthentication:
		return s.IdentityResolved()
	case StepCustomerData:
		return s.IsAuthenticated || (s.IsGuest && strings.TrimSpace(s.CustomerData.Name) != "")
	case StepAddress:
		return s.SelectedAddress != nil
	case StepPayment:
		return s.PaymentMethod != nil
	}
	return false
}

// CanEnter applies the step graph: every active predecessor must be satisfied, plus the step's own entry rule.
func CanEnter(s CheckoutSession, step Step) Decision {
	if _, known := ParseStep(string(step)); !known {
		return refuse(nil, "unknown step '%s'", step)
	}
	if isBypassed(s, step) {
		if step == StepCustomerData {
			return refuse(nil, "customer data comes from the account profile")
		}
		return refuse(nil, "no delivery address needed for this order")
	}

	for _, prev := range activeSteps(s) {
		if prev == step {
			break
		}
		if !isSatisfied(s, prev) {
			return refuse(unmetCause(s, prev), "%s", unmetReason(s, prev))
		}
	}

	switch step {
	case StepCustomerData:
		if !s.IsGuest {
			return refuse(nil, "customer data is only asked from guests")
		}
	case StepConfirmation:
		if !s.CustomerData.IsPresent() {
			return refuse(nil, "customer data missing")
		}
	}
	return allow()
}

// NextStep returns the active step after the current one, or "" when the session is at the last step.
func NextStep(s CheckoutSession) Step {
	steps := activeSteps(s)
	for i, step := range steps {
		if step == s.CurrentStep && i+1 < len(steps) {
			return steps[i+1]
		}
	}
	if isBypassed(s, s.CurrentStep) {
		for _, step := range steps {
			if stepIndex(step) > stepIndex(s.CurrentStep) {
				return step
			}
		}
	}
	return ""
}

func previousStep(s CheckoutSession) Step {
	steps := activeSteps(s)
	prev := StepAuthentication
	for _, step := range steps {
		if stepIndex(step) >= stepIndex(s.CurrentStep) {
			break
		}
		prev = step
	}
	return prev
}

func stepIndex(step Step) int {
	for i, s := range stepOrder {
		if s == step {
			return i
		}
	}
	return -1
}

// refreshCompleted adds every satisfied active step; steps are never removed.
func refreshCompleted(s *CheckoutSession) {
	for _, step := range activeSteps(*s) {
		if isSatisfied(*s, step) && !s.HasCompleted(step) {
			s.CompletedSteps = append(s.CompletedSteps, step)
		}
	}
}

// settle moves the current step back until it can be entered, so that no mutation leaves
// the session parked on a step whose preconditions no longer hold.
func settle(s *CheckoutSession) {
	if isBypassed(*s, s.CurrentStep) {
		if next := NextStep(*s); next != "" && CanEnter(*s, next).Allowed {
			s.CurrentStep = next
		} else {
			s.CurrentStep = previousStep(*s)
		}
	}
	for !CanEnter(*s, s.CurrentStep).Allowed {
		s.CurrentStep = previousStep(*s)
	}
}

// advanceIfAllowed moves one step forward when the session is still at from and the gate agrees.
func advanceIfAllowed(s *CheckoutSession, from Step) {
	if s.CurrentStep != from {
		return
	}
	next := NextStep(*s)
	if next != "" && CanEnter(*s, next).Allowed {
		s.CurrentStep = next
	}
}

func unmetReason(s CheckoutSession, step Step) string {
	switch step {
	case StepAuthentication:
		return "identify yourself or continue as guest first"
	case StepCustomerData:
		return "enter your name first"
	case StepAddress:
		return "select a delivery address first"
	case StepPayment:
		if s.PaymentSelection != nil {
			return "payment method is incomplete"
		}
		return "select a payment method first"
	}
	return fmt.Sprintf("complete %s first", step)
}

func unmetCause(s CheckoutSession, step Step) error {
	if step == StepPayment && s.PaymentSelection != nil {
		_, err := validatePayment(*s.PaymentSelection)
		return err
	}
	return nil
}
