package mypublisher

import (
	"context"

	"github.com/MarcGrol/menucheckout/lib/myevents"
)

//go:generate mockgen -source=api.go -package mypublisher -destination publisher_mock.go Publisher
// Publisher delivers domain events, at least once, to everyone subscribed to a topic.
type Publisher interface {
	CreateTopic(c context.Context, topicName string) error
	Publish(c context.Context, topic string, event myevents.Event) error
}
