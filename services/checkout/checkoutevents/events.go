package checkoutevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/MarcGrol/menucheckout/lib/myerrors"
	"github.com/MarcGrol/menucheckout/lib/myevents"
)

const (
	TopicName                 = "checkout"
	checkoutStartedName       = TopicName + ".started"
	checkoutAuthenticatedName = TopicName + ".authenticated"
	orderPlacedName           = TopicName + ".order.placed"
	checkoutCancelledName     = TopicName + ".cancelled"
)

type CheckoutEventService interface {
	Subscribe(c context.Context) error
	OnCheckoutStarted(c context.Context, topic string, event CheckoutStarted) error
	OnCheckoutAuthenticated(c context.Context, topic string, event CheckoutAuthenticated) error
	OnOrderPlaced(c context.Context, topic string, event OrderPlaced) error
	OnCheckoutCancelled(c context.Context, topic string, event CheckoutCancelled) error
}

func DispatchEvent(c context.Context, reader io.Reader, service CheckoutEventService) error {
	envelope, err := myevents.ParseEventEnvelope(reader)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	switch envelope.EventTypeName {
	case checkoutStartedName:
		{
			event := CheckoutStarted{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnCheckoutStarted(c, envelope.Topic, event)
		}
	case checkoutAuthenticatedName:
		{
			event := CheckoutAuthenticated{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnCheckoutAuthenticated(c, envelope.Topic, event)
		}
	case orderPlacedName:
		{
			event := OrderPlaced{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnOrderPlaced(c, envelope.Topic, event)
		}
	case checkoutCancelledName:
		{
			event := CheckoutCancelled{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnCheckoutCancelled(c, envelope.Topic, event)
		}
	default:
		return myerrors.NewNotImplementedError(fmt.Errorf("unknown event type %s", envelope.EventTypeName))
	}
}

type CheckoutStarted struct {
	SessionUID string
	StoreUID   string
	DeviceUID  string
}

func (e CheckoutStarted) GetEventTypeName() string {
	return checkoutStartedName
}

func (e CheckoutStarted) GetAggregateName() string {
	return e.SessionUID
}

type CheckoutAuthenticated struct {
	SessionUID string
	StoreUID   string
	Method     string
}

func (e CheckoutAuthenticated) GetEventTypeName() string {
	return checkoutAuthenticatedName
}

func (e CheckoutAuthenticated) GetAggregateName() string {
	return e.SessionUID
}

type OrderPlaced struct {
	SessionUID    string
	StoreUID      string
	DeviceUID     string
	OrderUID      string
	TotalCents    int64
	PaymentMethod string
}

func (e OrderPlaced) GetEventTypeName() string {
	return orderPlacedName
}

func (e OrderPlaced) GetAggregateName() string {
	return e.SessionUID
}

type CheckoutCancelled struct {
	SessionUID string
	StoreUID   string
	DeviceUID  string
}

func (e CheckoutCancelled) GetEventTypeName() string {
	return checkoutCancelledName
}

func (e CheckoutCancelled) GetAggregateName() string {
	return e.SessionUID
}
