package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/MarcGrol/menucheckout/lib/mylog"
	"github.com/MarcGrol/menucheckout/services/cart"
	"github.com/MarcGrol/menucheckout/services/checkout/checkoutevents"
	"github.com/MarcGrol/menucheckout/services/notification"
	"github.com/MarcGrol/menucheckout/services/orderapi"
)

type OrderConfirmation struct {
	OrderUID    string
	RedirectURL string
	Warnings    []string `json:",omitempty"`
}

// submit turns a complete session plus cart into an order. Only the order call itself is fatal;
// what follows is best-effort. The submission runs to completion even when the caller goes away.
func (s *service) submit(c context.Context, key SessionKey) (OrderConfirmation, error) {
	_, busy := s.submitting.LoadOrStore(key, true)
	if busy {
		return OrderConfirmation{}, ErrSubmissionInProgress
	}
	defer s.submitting.Delete(key)

	c, span := s.tracer.Start(context.WithoutCancel(c), "checkout.submit")
	defer span.End()

	confirmation, err := s.doSubmit(c, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return OrderConfirmation{}, err
	}
	span.SetAttributes(attribute.String("checkout.order", confirmation.OrderUID))
	return confirmation, nil
}

func (s *service) doSubmit(c context.Context, key SessionKey) (OrderConfirmation, error) {
	session, found, err := s.sessions.Restore(c, key)
	if err != nil {
		return OrderConfirmation{}, err
	}
	if !found {
		return OrderConfirmation{}, &StepBlockedError{Step: StepConfirmation, Reason: "no active checkout"}
	}

	basket, found, err := s.carts.GetBasket(c, key.StoreUID, key.DeviceUID)
	if err != nil {
		return OrderConfirmation{}, fmt.Errorf("error reading cart: %w", err)
	}
	if !found || basket.IsEmpty() {
		return OrderConfirmation{}, newValidationError("cart", "cart is empty")
	}
	session.DeliveryRequired = basket.RequiresDelivery()

	decision := CanEnter(session, StepConfirmation)
	if !decision.Allowed {
		return OrderConfirmation{}, &StepBlockedError{Step: StepConfirmation, Reason: decision.Reason, Cause: decision.Cause}
	}

	accessToken := ""
	if session.IsAuthenticated {
		credential, found, err := s.vault.Get(c, key.String())
		if err != nil || !found || !credential.IsValid(s.nower.Now()) {
			return OrderConfirmation{}, &StepBlockedError{Step: StepAuthentication, Reason: "sign in again to place this order"}
		}
		accessToken = credential.AccessToken
	}

	warnings := []string{}
	storeName := key.StoreUID
	store, err := s.backend.GetStore(c, key.StoreUID)
	if err != nil {
		s.logger.Log(c, key.String(), mylog.SeverityWarn, "Could not check whether store is open: %s", err)
	} else {
		if !store.IsOpen {
			return OrderConfirmation{}, &StoreClosedError{StoreUID: key.StoreUID}
		}
		storeName = store.Name
	}

	order, err := s.backend.CreateOrder(c, accessToken, buildOrder(session, basket))
	if err != nil {
		s.logger.Log(c, key.String(), mylog.SeverityError, "Error submitting order of checkout %s: %s", session.UID, err)
		return OrderConfirmation{}, asSubmissionError(err)
	}
	s.logger.Log(c, key.String(), mylog.SeverityInfo, "Checkout %s placed order %s", session.UID, order.Identify)

	if sideErr := s.saveUsedAddress(c, key, session); sideErr != nil {
		s.logger.Log(c, key.String(), mylog.SeverityWarn, "%s", sideErr)
	}
	if sideErr := s.notify(c, session, basket, storeName, order.Identify); sideErr != nil {
		s.logger.Log(c, key.String(), mylog.SeverityWarn, "%s", sideErr)
	}

	err = s.carts.ClearBasket(c, key.StoreUID, key.DeviceUID)
	if err != nil {
		s.logger.Log(c, key.String(), mylog.SeverityWarn, "Error clearing cart after order %s: %s", order.Identify, err)
	}
	err = s.sessions.Clear(c, key)
	if err != nil {
		s.logger.Log(c, key.String(), mylog.SeverityWarn, "Error clearing checkout after order %s: %s", order.Identify, err)
		warnings = append(warnings, "checkout could not be closed, start a new one before ordering again")
	}
	s.abandonHandshake(c, key)

	s.publish(c, key, checkoutevents.OrderPlaced{
		SessionUID:    session.UID,
		StoreUID:      key.StoreUID,
		DeviceUID:     key.DeviceUID,
		OrderUID:      order.Identify,
		TotalCents:    basket.TotalCents(),
		PaymentMethod: string(session.PaymentMethod.Method),
	})

	return OrderConfirmation{
		OrderUID:    order.Identify,
		RedirectURL: fmt.Sprintf("/order/%s/%s", key.StoreUID, order.Identify),
		Warnings:    warnings,
	}, nil
}

func buildOrder(session CheckoutSession, basket cart.Basket) orderapi.CreateOrderRequest {
	req := orderapi.CreateOrderRequest{
		StoreUID: session.StoreUID,
		Customer: orderapi.Customer{
			UID:   session.CustomerUID,
			Name:  session.CustomerData.Name,
			Phone: session.CustomerData.Phone,
			Email: session.CustomerData.Email,
			Guest: session.IsGuest,
		},
		Fulfilment: string(basket.Fulfilment),
		Payment: orderapi.Payment{
			Method:         string(session.PaymentMethod.Method),
			ChangeForCents: session.PaymentMethod.ChangeForCents,
		},
		Lines:      []orderapi.OrderLine{},
		TotalCents: basket.TotalCents(),
		Notes:      session.OrderNotes,
	}
	if session.DeliveryRequired && session.SelectedAddress != nil {
		address := toBackendAddress(*session.SelectedAddress)
		req.DeliveryAddress = &address
	}
	for _, l := range basket.Lines {
		req.Lines = append(req.Lines, orderapi.OrderLine{
			ProductUID:     l.ProductUID,
			Name:           l.Name,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
			Notes:          l.Notes,
		})
	}
	return req
}

func asSubmissionError(err error) *SubmissionError {
	var apiErr *orderapi.APIError
	if errors.As(err, &apiErr) {
		return &SubmissionError{HTTPStatus: apiErr.Status, Message: apiErr.Message, Cause: err}
	}
	return &SubmissionError{Message: err.Error(), Cause: err}
}

// saveUsedAddress adds a newly typed delivery address to the account's address book.
func (s *service) saveUsedAddress(c context.Context, key SessionKey, session CheckoutSession) error {
	if session.CustomerUID == "" || !session.DeliveryRequired || session.SelectedAddress == nil || session.SelectedAddress.IsPersisted() {
		return nil
	}

	credential, found, err := s.vault.Get(c, key.String())
	if err != nil {
		return &SideEffectError{Effect: "save-address", Cause: err}
	}
	if !found {
		return &SideEffectError{Effect: "save-address", Cause: fmt.Errorf("no credential for customer %s", session.CustomerUID)}
	}

	_, err = s.backend.SaveAddress(c, session.CustomerUID, credential.AccessToken, toBackendAddress(*session.SelectedAddress))
	if err != nil {
		return &SideEffectError{Effect: "save-address", Cause: err}
	}
	return nil
}

func (s *service) notify(c context.Context, session CheckoutSession, basket cart.Basket, storeName string, orderUID string) error {
	items := []notification.Item{}
	for _, l := range basket.Lines {
		items = append(items, notification.Item{
			Name:           l.Name,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
		})
	}

	err := s.notifier.SendOrderConfirmation(c, notification.OrderConfirmation{
		OrderUID:      orderUID,
		StoreName:     storeName,
		CustomerName:  session.CustomerData.Name,
		Phone:         session.CustomerData.Phone,
		Items:         items,
		TotalCents:    basket.TotalCents(),
		PaymentMethod: string(session.PaymentMethod.Method),
		Delivery:      session.DeliveryRequired,
	})
	if err != nil {
		return &SideEffectError{Effect: "notify", Cause: err}
	}
	return nil
}
