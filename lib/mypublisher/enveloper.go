package mypublisher

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MarcGrol/menucheckout/lib/myevents"
	"github.com/MarcGrol/menucheckout/lib/mytime"
)

type enveloper struct {
	nower mytime.Nower
}

func newEnveloper(nower mytime.Nower) enveloper {
	return enveloper{
		nower: nower,
	}
}

// seal wraps an event for the outbox. Equal events on the same topic get equal uids.
func (e enveloper) seal(topic string, event myevents.Event) (myevents.EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return myevents.EventEnvelope{}, fmt.Errorf("error marshalling event %s: %s", event.GetEventTypeName(), err)
	}

	envelope := myevents.EventEnvelope{
		Topic:         topic,
		AggregateUID:  event.GetAggregateName(),
		EventTypeName: event.GetEventTypeName(),
		EventPayload:  string(payload),
		CreatedAt:     e.nower.Now(),
	}
	envelope.UID = fingerprint(envelope)

	return envelope, nil
}

func fingerprint(envelope myevents.EventEnvelope) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		envelope.Topic,
		envelope.EventTypeName,
		envelope.AggregateUID,
		envelope.EventPayload,
	}, "\x00")))

	return base64.RawURLEncoding.EncodeToString(sum[:])
}
