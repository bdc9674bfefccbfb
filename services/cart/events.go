package cart

import (
	"context"
	"fmt"

	"github.com/MarcGrol/menucheckout/services/checkout/checkoutevents"
)

func (s *service) Subscribe(c context.Context) error {
	err := s.subscriber.Subscribe(c, checkoutevents.TopicName, s.publicHostname+"/cart/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", checkoutevents.TopicName, err)
	}

	return nil
}

func (s *service) OnCheckoutStarted(c context.Context, topic string, event checkoutevents.CheckoutStarted) error {
	return nil
}

func (s *service) OnCheckoutAuthenticated(c context.Context, topic string, event checkoutevents.CheckoutAuthenticated) error {
	return nil
}

// OnOrderPlaced clears the basket again in case the checkout could not; deleting is idempotent.
func (s *service) OnOrderPlaced(c context.Context, topic string, event checkoutevents.OrderPlaced) error {
	return s.clearBasket(c, event.StoreUID, event.DeviceUID)
}

func (s *service) OnCheckoutCancelled(c context.Context, topic string, event checkoutevents.CheckoutCancelled) error {
	return nil
}
