package checkout

import (
	"context"
	"math"
	"strconv"
	"strings"
)

// setPayment stores the selection as submitted. An incomplete selection is kept as draft so the
// form can be shown again, but it does not count as a chosen payment method.
func (s *service) setPayment(c context.Context, key SessionKey, selection PaymentSelection) (Result, error) {
	selection.Method = strings.ToLower(strings.TrimSpace(selection.Method))
	selection.ChangeFor = strings.TrimSpace(selection.ChangeFor)
	if !isPaymentMethod(selection.Method) {
		return s.getState(c, key), newValidationError("method", "choose one of pix, credit, debit, cash or voucher")
	}

	var invalid error
	result, err := s.mutate(c, key, func(session *CheckoutSession) error {
		decision := CanEnter(*session, StepPayment)
		if !decision.Allowed {
			return &StepBlockedError{Step: StepPayment, Reason: decision.Reason, Cause: decision.Cause}
		}

		session.CurrentStep = StepPayment
		session.PaymentSelection = &selection
		method, err := validatePayment(selection)
		if err != nil {
			session.PaymentMethod = nil
			invalid = err
			return nil
		}
		session.PaymentMethod = &method
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, invalid
}

func validatePayment(selection PaymentSelection) (PaymentMethod, error) {
	if !isPaymentMethod(selection.Method) {
		return PaymentMethod{}, newValidationError("method", "choose one of pix, credit, debit, cash or voucher")
	}

	method := PaymentMethod{Method: PaymentMethodName(selection.Method)}
	if method.Method == PaymentCash {
		if selection.ChangeFor == "" {
			return PaymentMethod{}, newValidationError("changeFor", "tell us how much change you need")
		}
		cents, ok := parseChangeAmount(selection.ChangeFor)
		if !ok || cents <= 0 {
			return PaymentMethod{}, newValidationError("changeFor", "change amount must be a positive number")
		}
		method.ChangeForCents = cents
	}
	return method, nil
}

func isPaymentMethod(name string) bool {
	for _, m := range paymentMethods {
		if string(m) == name {
			return true
		}
	}
	return false
}

// parseChangeAmount accepts "50", "50.00", "50,00", "R$ 50,00" and "1.234,56" and returns cents.
func parseChangeAmount(raw string) (int64, bool) {
	amount := strings.TrimSpace(raw)
	amount = strings.TrimPrefix(amount, "R$")
	amount = strings.ReplaceAll(strings.TrimSpace(amount), " ", "")
	if amount == "" {
		return 0, false
	}

	// the last separator followed by one or two digits is the decimal one, every other is grouping
	decimals := ""
	if i := strings.LastIndexAny(amount, ".,"); i >= 0 && len(amount)-i-1 <= 2 && len(amount)-i-1 > 0 {
		decimals = amount[i+1:]
		amount = amount[:i]
	}
	amount = strings.NewReplacer(".", "", ",", "").Replace(amount)
	if amount == "" {
		amount = "0"
	}

	units, err := strconv.ParseInt(amount, 10, 64)
	if err != nil || units < 0 {
		return 0, false
	}
	for len(decimals) < 2 {
		decimals += "0"
	}
	cents, err := strconv.ParseInt(decimals, 10, 64)
	if err != nil || units > (math.MaxInt64-cents)/100 {
		return 0, false
	}
	return units*100 + cents, true
}
