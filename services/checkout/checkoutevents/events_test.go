package checkoutevents

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/menucheckout/lib/myerrors"
	"github.com/MarcGrol/menucheckout/lib/myevents"
)

type recordingService struct {
	placed []OrderPlaced
}

func (s *recordingService) Subscribe(c context.Context) error { return nil }
func (s *recordingService) OnCheckoutStarted(c context.Context, topic string, event CheckoutStarted) error {
	return nil
}
func (s *recordingService) OnCheckoutAuthenticated(c context.Context, topic string, event CheckoutAuthenticated) error {
	return nil
}
func (s *recordingService) OnOrderPlaced(c context.Context, topic string, event OrderPlaced) error {
	s.placed = append(s.placed, event)
	return nil
}
func (s *recordingService) OnCheckoutCancelled(c context.Context, topic string, event CheckoutCancelled) error {
	return nil
}

func pushRequest(t *testing.T, eventTypeName string, payload any) *bytes.Buffer {
	eventPayload, err := json.Marshal(payload)
	assert.NoError(t, err)
	envelope, err := json.Marshal(myevents.EventEnvelope{
		UID:           "env_1",
		Topic:         TopicName,
		EventTypeName: eventTypeName,
		EventPayload:  string(eventPayload),
	})
	assert.NoError(t, err)
	body, err := json.Marshal(myevents.PushRequest{Message: myevents.PushMessage{Data: envelope}})
	assert.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestDispatchEvent(t *testing.T) {
	t.Run("Order placed reaches the service", func(t *testing.T) {
		service := &recordingService{}
		event := OrderPlaced{SessionUID: "s1", StoreUID: "store_1", DeviceUID: "dev_1", OrderUID: "order_42"}

		err := DispatchEvent(context.TODO(), pushRequest(t, event.GetEventTypeName(), event), service)

		assert.NoError(t, err)
		assert.Equal(t, []OrderPlaced{event}, service.placed)
	})

	t.Run("Unknown event", func(t *testing.T) {
		err := DispatchEvent(context.TODO(), pushRequest(t, "checkout.unknown", struct{}{}), &recordingService{})

		assert.Equal(t, http.StatusNotImplemented, myerrors.GetHTTPStatus(err))
	})

	t.Run("Garbage", func(t *testing.T) {
		err := DispatchEvent(context.TODO(), bytes.NewBufferString("{"), &recordingService{})

		assert.Equal(t, http.StatusBadRequest, myerrors.GetHTTPStatus(err))
	})
}
