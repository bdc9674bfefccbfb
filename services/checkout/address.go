package checkout

import (
	"context"
	"strings"

	"github.com/MarcGrol/menucheckout/lib/mylog"
	"github.com/MarcGrol/menucheckout/services/orderapi"
	"github.com/MarcGrol/menucheckout/services/postalcode"
)

type AddressOptions struct {
	Saved              []Address
	ShowNewAddressForm bool
	Selected           *Address `json:",omitempty"`
	Warnings           []string `json:",omitempty"`
}

// Prefill holds what a postal-code lookup could tell about an address. Found is false when the
// customer has to type it in.
type Prefill struct {
	ZipCode      string
	Found        bool
	Street       string
	Neighborhood string
	City         string
	State        string
}

// addressOptions lists the saved addresses of an account. A failing backend degrades to the new-address form.
func (s *service) addressOptions(c context.Context, key SessionKey) (AddressOptions, error) {
	result := s.getState(c, key)
	session := result.Session

	options := AddressOptions{
		Saved:    []Address{},
		Selected: session.SelectedAddress,
		Warnings: result.Warnings,
	}

	if decision := CanEnter(session, StepAddress); !decision.Allowed {
		return options, &StepBlockedError{Step: StepAddress, Reason: decision.Reason, Cause: decision.Cause}
	}

	if session.IsAuthenticated && session.CustomerUID != "" {
		saved, err := s.savedAddresses(c, key, session.CustomerUID)
		if err != nil {
			s.logger.Log(c, key.String(), mylog.SeverityWarn, "Error listing saved addresses: %s", err)
			options.Warnings = append(options.Warnings, "saved addresses are not available right now")
		} else {
			options.Saved = saved
		}
	}
	options.ShowNewAddressForm = session.IsGuest || len(options.Saved) == 0

	return options, nil
}

func (s *service) savedAddresses(c context.Context, key SessionKey, customerUID string) ([]Address, error) {
	credential, _, err := s.vault.Get(c, key.String())
	if err != nil {
		return nil, err
	}

	addresses, err := s.backend.ListAddresses(c, customerUID, credential.AccessToken)
	if err != nil {
		return nil, err
	}

	saved := []Address{}
	for _, a := range addresses {
		saved = append(saved, fromBackendAddress(a))
	}
	return saved, nil
}

// lookupPostalCode never touches the session: a miss or an unreachable service just means manual entry.
func (s *service) lookupPostalCode(c context.Context, key SessionKey, raw string) (Prefill, error) {
	digits, err := postalcode.Normalize(raw)
	if err != nil {
		return Prefill{}, newValidationError("zipCode", "postal code must have 8 digits")
	}

	prefill := Prefill{ZipCode: postalcode.Format(digits)}

	address, found, err := s.postalCodes.Lookup(c, digits)
	if err != nil {
		s.logger.Log(c, key.String(), mylog.SeverityWarn, "Postal code lookup for %s failed: %s", digits, err)
		return prefill, nil
	}
	if !found {
		return prefill, nil
	}

	prefill.Found = true
	prefill.Street = address.Street
	prefill.Neighborhood = address.Neighborhood
	prefill.City = address.City
	prefill.State = address.State
	return prefill, nil
}

// setNewAddress validates a typed-in address and selects it.
func (s *service) setNewAddress(c context.Context, key SessionKey, address Address) (Result, error) {
	address, verr := validateAddress(address)
	if verr != nil {
		return s.getState(c, key), verr
	}
	address.UID = ""

	return s.selectAddress(c, key, address)
}

func (s *service) selectSavedAddress(c context.Context, key SessionKey, addressUID string) (Result, error) {
	options, err := s.addressOptions(c, key)
	if err != nil {
		return s.getState(c, key), err
	}

	for _, a := range options.Saved {
		if a.UID == addressUID {
			return s.selectAddress(c, key, a)
		}
	}
	return s.getState(c, key), newValidationError("addressUID", "unknown address")
}

func (s *service) selectAddress(c context.Context, key SessionKey, address Address) (Result, error) {
	return s.mutate(c, key, func(session *CheckoutSession) error {
		decision := CanEnter(*session, StepAddress)
		if !decision.Allowed {
			return &StepBlockedError{Step: StepAddress, Reason: decision.Reason, Cause: decision.Cause}
		}
		session.SelectedAddress = &address
		session.CurrentStep = StepAddress
		advanceIfAllowed(session, StepAddress)
		return nil
	})
}

func validateAddress(a Address) (Address, error) {
	verr := &ValidationError{}

	a.Street = strings.TrimSpace(a.Street)
	a.Number = strings.TrimSpace(a.Number)
	a.Complement = strings.TrimSpace(a.Complement)
	a.Neighborhood = strings.TrimSpace(a.Neighborhood)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.ToUpper(strings.TrimSpace(a.State))
	a.Reference = strings.TrimSpace(a.Reference)

	required := []struct {
		field string
		value string
	}{
		{field: "street", value: a.Street},
		{field: "number", value: a.Number},
		{field: "neighborhood", value: a.Neighborhood},
		{field: "city", value: a.City},
	}
	for _, r := range required {
		if r.value == "" {
			verr.add(r.field, r.field+" is required")
		}
	}

	if strings.TrimSpace(a.ZipCode) != "" {
		digits, err := postalcode.Normalize(a.ZipCode)
		if err != nil {
			verr.add("zipCode", "postal code must have 8 digits")
		} else {
			a.ZipCode = postalcode.Format(digits)
		}
	}

	return a, verr.orNil()
}

func fromBackendAddress(a orderapi.Address) Address {
	return Address{
		UID:          a.UID,
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
		ZipCode:      a.ZipCode,
		Reference:    a.Reference,
	}
}

func toBackendAddress(a Address) orderapi.Address {
	return orderapi.Address{
		UID:          a.UID,
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
		ZipCode:      a.ZipCode,
		Reference:    a.Reference,
	}
}
