package mypubsub

import (
	"context"
	"os"

	"github.com/MarcGrol/menucheckout/lib/mylog"
)

// fakePubSub only logs. Locally nothing is pushed to subscribers.
type fakePubSub struct {
	logger mylog.Logger
}

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newFakePubSub
	}
}

func newFakePubSub(c context.Context) (PubSub, func(), error) {
	return &fakePubSub{
		logger: mylog.New("pubsub"),
	}, func() {}, nil
}

func (ps *fakePubSub) Subscribe(c context.Context, topic string, urlToPostTo string) error {
	ps.logger.Log(c, topic, mylog.SeverityDebug, "Would subscribe %s to topic %s", urlToPostTo, topic)
	return nil
}

func (ps *fakePubSub) CreateTopic(c context.Context, topic string) error {
	return nil
}

func (ps *fakePubSub) Publish(c context.Context, topic string, data string) error {
	ps.logger.Log(c, topic, mylog.SeverityDebug, "Would publish on topic %s: %s", topic, data)
	return nil
}
