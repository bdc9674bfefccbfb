package checkout

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/menucheckout/lib/myerrors"
	"github.com/MarcGrol/menucheckout/services/cart"
	"github.com/MarcGrol/menucheckout/services/orderapi"
)

var newAddress = Address{
	Street:       "Rua Augusta",
	Number:       "100",
	Complement:   "apto 12",
	Neighborhood: "Consolação",
	City:         "São Paulo",
	State:        "SP",
	ZipCode:      "01305000",
}

func TestAddressResolver(t *testing.T) {

	t.Run("Account chooses a saved address", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		env := setupService(t, ctrl)

		// given
		env.carts.put(basketWith(cart.FulfilmentDelivery))
		env.vault.Put(env.c, key1.String(), credentialFor("cust_1"))
		env.backend.EXPECT().ListAddresses(gomock.Any(), "cust_1", "access").Return([]orderapi.Address{
			{UID: "addr_1", Street: "Rua A", Number: "1", Neighborhood: "Centro", City: "São Paulo", State: "SP"},
		}, nil).Times(2)

		// when
		options, err := env.service.addressOptions(env.c, key1)

		// then
		assert.NoError(t, err)
		assert.Len(t, options.Saved, 1)
		assert.False(t, options.ShowNewAddressForm)

		// when
		result, err := env.service.selectSavedAddress(env.c, key1, "addr_1")

		// then
		assert.NoError(t, err)
		assert.Equal(t, "addr_1", result.Session.SelectedAddress.UID)
		assert.True(t, result.Session.SelectedAddress.IsPersisted())
		assert.Equal(t, StepPayment, result.Session.CurrentStep)
		assertConsistent(t, result.Session)
	})

	t.Run("Unavailable address book falls back to the form", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		env := setupService(t, ctrl)

		// given
		env.carts.put(basketWith(cart.FulfilmentDelivery))
		env.vault.Put(env.c, key1.String(), credentialFor("cust_1"))
		env.backend.EXPECT().ListAddresses(gomock.Any(), "cust_1", "access").Return(nil, fmt.Errorf("503"))

		// when
		options, err := env.service.addressOptions(env.c, key1)

		// then
		assert.NoError(t, err)
		assert.Empty(t, options.Saved)
		assert.True(t, options.ShowNewAddressForm)
		assert.NotEmpty(t, options.Warnings)
	})

	t.Run("Guest always gets the form", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		env := setupService(t, ctrl)

		// given
		env.carts.put(basketWith(cart.FulfilmentDelivery))
		env.service.continueAsGuest(env.c, key1)
		env.service.setCustomerData(env.c, key1, CustomerData{Name: "Ana"})

		// when
		options, err := env.service.addressOptions(env.c, key1)

		// then
		assert.NoError(t, err)
		assert.True(t, options.ShowNewAddressForm)
	})

	t.Run("Address before identification is blocked", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		env := setupService(t, ctrl)

		// given
		env.carts.put(basketWith(cart.FulfilmentDelivery))

		// when
		_, err := env.service.addressOptions(env.c, key1)

		// then
		blocked := &StepBlockedError{}
		assert.True(t, errors.As(err, &blocked))
		assert.Equal(t, StepAddress, blocked.Step)
	})

	t.Run("New address is accepted and advances", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		env := setupService(t, ctrl)

		// given
		env.carts.put(basketWith(cart.FulfilmentDelivery))
		env.service.continueAsGuest(env.c, key1)
		env.service.setCustomerData(env.c, key1, CustomerData{Name: "Ana"})

		// when
		result, err := env.service.setNewAddress(env.c, key1, newAddress)

		// then
		assert.NoError(t, err)
		assert.Equal(t, "01305-000", result.Session.SelectedAddress.ZipCode)
		assert.False(t, result.Session.SelectedAddress.IsPersisted())
		assert.Equal(t, StepPayment, result.Session.CurrentStep)
		assert.Contains(t, result.Session.CompletedSteps, StepAddress)
		assertConsistent(t, result.Session)
	})

	t.Run("Invalid new address is rejected per field", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		env := setupService(t, ctrl)

		// given
		env.carts.put(basketWith(cart.FulfilmentDelivery))
		env.service.continueAsGuest(env.c, key1)
		env.service.setCustomerData(env.c, key1, CustomerData{Name: "Ana"})

		// when
		invalid := newAddress
		invalid.ZipCode = "0130-50"
		result, err := env.service.setNewAddress(env.c, key1, invalid)

		// then
		verr := &ValidationError{}
		assert.True(t, errors.As(err, &verr))
		assert.Equal(t, []FieldError{{Field: "zipCode", Message: "postal code must have 8 digits"}}, verr.Fields)
		assert.Nil(t, result.Session.SelectedAddress)
		assert.Equal(t, StepAddress, result.Session.CurrentStep)
	})

	t.Run("No address when the order is not delivered", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		env := setupService(t, ctrl)

		// given
		env.carts.put(basketWith(cart.FulfilmentDineIn))
		env.service.continueAsGuest(env.c, key1)
		env.service.setCustomerData(env.c, key1, CustomerData{Name: "Ana"})

		// when
		_, err := env.service.setNewAddress(env.c, key1, newAddress)

		// then
		assert.Equal(t, 409, myerrors.GetHTTPStatus(err))
	})

	t.Run("Postal code lookup prefills", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		env := setupService(t, ctrl)

		// when
		prefill, err := env.service.lookupPostalCode(env.c, key1, "01001-000")

		// then
		assert.NoError(t, err)
		assert.True(t, prefill.Found)
		assert.Equal(t, "01001-000", prefill.ZipCode)
		assert.Equal(t, "Praça da Sé", prefill.Street)
		assert.Equal(t, "São Paulo", prefill.City)
	})

	t.Run("Unknown postal code leaves the selected address alone", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		env := setupService(t, ctrl)

		// given
		env.carts.put(basketWith(cart.FulfilmentDelivery))
		env.service.continueAsGuest(env.c, key1)
		env.service.setCustomerData(env.c, key1, CustomerData{Name: "Ana"})
		env.service.setNewAddress(env.c, key1, newAddress)
		before := env.stored(t)

		// when
		prefill, err := env.service.lookupPostalCode(env.c, key1, "99999999")

		// then
		assert.NoError(t, err)
		assert.False(t, prefill.Found)
		assert.Equal(t, "99999-999", prefill.ZipCode)
		assert.Equal(t, before, env.stored(t))
	})

	t.Run("Malformed postal code", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		env := setupService(t, ctrl)

		// when
		_, err := env.service.lookupPostalCode(env.c, key1, "123")

		// then
		assert.Equal(t, 400, myerrors.GetHTTPStatus(err))
	})
}
