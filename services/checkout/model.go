package checkout

import (
	"strings"
	"time"
)

type Step string

const (
	StepAuthentication Step = "authentication"
	StepCustomerData   Step = "customer_data"
	StepAddress        Step = "address"
	StepPayment        Step = "payment"
	StepConfirmation   Step = "confirmation"
)

var stepOrder = []Step{StepAuthentication, StepCustomerData, StepAddress, StepPayment, StepConfirmation}

func ParseStep(s string) (Step, bool) {
	for _, step := range stepOrder {
		if string(step) == s {
			return step, true
		}
	}
	return "", false
}

type AuthenticationMethod string

const (
	AuthenticationMethodExistingAccount AuthenticationMethod = "existing_account"
	AuthenticationMethodNewAccount      AuthenticationMethod = "new_account"
	AuthenticationMethodGuest           AuthenticationMethod = "guest"
)

// SessionKey scopes a checkout to a store and an anonymous device.
type SessionKey struct {
	StoreUID  string
	DeviceUID string
}

func (k SessionKey) String() string {
	return k.StoreUID + ":" + k.DeviceUID
}

type CustomerData struct {
	Name  string `form:"name"`
	Phone string `form:"phone"`
	Email string `form:"email"`
}

func (d CustomerData) IsPresent() bool {
	return strings.TrimSpace(d.Name) != "" || d.Phone != "" || d.Email != ""
}

type Address struct {
	UID          string `form:"-"`
	Street       string `form:"street"`
	Number       string `form:"number"`
	Complement   string `form:"complement"`
	Neighborhood string `form:"neighborhood"`
	City         string `form:"city"`
	State        string `form:"state"`
	ZipCode      string `form:"zipCode"`
	Reference    string `form:"reference"`
}

func (a Address) IsPersisted() bool {
	return a.UID != ""
}

type PaymentMethodName string

const (
	PaymentPix     PaymentMethodName = "pix"
	PaymentCredit  PaymentMethodName = "credit"
	PaymentDebit   PaymentMethodName = "debit"
	PaymentCash    PaymentMethodName = "cash"
	PaymentVoucher PaymentMethodName = "voucher"
)

var paymentMethods = []PaymentMethodName{PaymentPix, PaymentCredit, PaymentDebit, PaymentCash, PaymentVoucher}

type PaymentMethod struct {
	Method         PaymentMethodName
	ChangeForCents int64
}

// PaymentSelection is the raw choice as last submitted, kept even when it does not validate.
type PaymentSelection struct {
	Method    string `form:"method"`
	ChangeFor string `form:"changeFor"`
}

type CheckoutSession struct {
	UID                  string
	StoreUID             string
	DeviceUID            string
	CurrentStep          Step
	CompletedSteps       []Step
	IsAuthenticated      bool
	IsGuest              bool
	AuthenticationMethod AuthenticationMethod `json:",omitempty"`
	CustomerUID          string               `json:",omitempty"`
	CustomerData         CustomerData
	SelectedAddress      *Address          `json:",omitempty"`
	PaymentMethod        *PaymentMethod    `json:",omitempty"`
	PaymentSelection     *PaymentSelection `json:",omitempty"`
	OrderNotes           string            `datastore:",noindex"`
	DeliveryRequired     bool
	StartedAt            time.Time
	LastActivity         time.Time
	ExpiresAt            time.Time
}

func (s CheckoutSession) Key() SessionKey {
	return SessionKey{StoreUID: s.StoreUID, DeviceUID: s.DeviceUID}
}

func (s CheckoutSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (s CheckoutSession) HasCompleted(step Step) bool {
	for _, completed := range s.CompletedSteps {
		if completed == step {
			return true
		}
	}
	return false
}

func (s CheckoutSession) IdentityResolved() bool {
	return s.IsAuthenticated || s.IsGuest
}

// GuestRecord remembers that a device checked out as guest at a store.
type GuestRecord struct {
	StoreUID     string
	DeviceUID    string
	CustomerData CustomerData
	CreatedAt    time.Time
	LastModified time.Time
}

// Result is what every orchestrator operation hands back.
type Result struct {
	Session  CheckoutSession
	Blocked  string   `json:",omitempty"`
	Warnings []string `json:",omitempty"`
}
