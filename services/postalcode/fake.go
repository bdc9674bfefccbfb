package postalcode

import (
	"context"
	"sync"
)

// FakeLookup answers from memory; used for local runs and as the reference in contract tests.
type FakeLookup struct {
	sync.Mutex
	Addresses map[string]Address
}

func NewFakeLookup() *FakeLookup {
	return &FakeLookup{
		Addresses: map[string]Address{
			"01001000": {Street: "Praça da Sé", Neighborhood: "Sé", City: "São Paulo", State: "SP"},
			"20040020": {Street: "Avenida Rio Branco", Neighborhood: "Centro", City: "Rio de Janeiro", State: "RJ"},
		},
	}
}

func (f *FakeLookup) Lookup(c context.Context, postalCode string) (Address, bool, error) {
	digits, err := Normalize(postalCode)
	if err != nil {
		return Address{}, false, err
	}

	f.Lock()
	defer f.Unlock()

	address, found := f.Addresses[digits]
	return address, found, nil
}
