package orderapi

import "fmt"

type Store struct {
	UID    string `json:"uid"`
	Name   string `json:"name"`
	IsOpen bool   `json:"isOpen"`
}

type Address struct {
	UID          string `json:"uid,omitempty"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode,omitempty"`
	Reference    string `json:"reference,omitempty"`
}

type OrderLine struct {
	ProductUID     string `json:"productUid"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Notes          string `json:"notes,omitempty"`
}

type Payment struct {
	Method         string `json:"method"`
	ChangeForCents int64  `json:"changeForCents,omitempty"`
}

type Customer struct {
	UID   string `json:"uid,omitempty"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	Guest bool   `json:"guest"`
}

type CreateOrderRequest struct {
	StoreUID        string      `json:"storeUid"`
	Customer        Customer    `json:"customer"`
	Fulfilment      string      `json:"fulfilment"`
	DeliveryAddress *Address    `json:"deliveryAddress,omitempty"`
	Payment         Payment     `json:"payment"`
	Lines           []OrderLine `json:"lines"`
	TotalCents      int64       `json:"totalCents"`
	Notes           string      `json:"notes,omitempty"`
}

type CreateOrderResponse struct {
	Identify string `json:"identify"`
}

// APIError is returned when the backend answered with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend responded with http-status %d: %s", e.Status, e.Message)
}
