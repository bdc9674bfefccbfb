package cart

import (
	"fmt"
	"time"
)

type Fulfilment string

const (
	FulfilmentDelivery Fulfilment = "delivery"
	FulfilmentPickup   Fulfilment = "pickup"
	FulfilmentDineIn   Fulfilment = "dine_in"
)

func ParseFulfilment(s string) (Fulfilment, error) {
	switch f := Fulfilment(s); f {
	case FulfilmentDelivery, FulfilmentPickup, FulfilmentDineIn:
		return f, nil
	}
	return "", fmt.Errorf("unknown fulfilment '%s'", s)
}

type Line struct {
	ProductUID     string `form:"productUid"`
	Name           string `form:"name"`
	Quantity       int    `form:"quantity"`
	UnitPriceCents int64  `form:"unitPriceCents"`
	Notes          string `form:"notes" datastore:",noindex"`
}

func (l Line) TotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

type Basket struct {
	UID          string
	StoreUID     string
	DeviceUID    string
	Fulfilment   Fulfilment
	Lines        []Line
	CreatedAt    time.Time
	LastModified *time.Time
}

func (b Basket) TotalCents() int64 {
	total := int64(0)
	for _, l := range b.Lines {
		total += l.TotalCents()
	}
	return total
}

func (b Basket) IsEmpty() bool {
	return len(b.Lines) == 0
}

func (b Basket) RequiresDelivery() bool {
	return b.Fulfilment == FulfilmentDelivery
}

func basketUID(storeUID string, deviceUID string) string {
	return storeUID + ":" + deviceUID
}
