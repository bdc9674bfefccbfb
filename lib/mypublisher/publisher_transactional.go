package mypublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/menucheckout/lib/mycontext"
	"github.com/MarcGrol/menucheckout/lib/myevents"
	"github.com/MarcGrol/menucheckout/lib/myhttp"
	"github.com/MarcGrol/menucheckout/lib/mylog"
	"github.com/MarcGrol/menucheckout/lib/mypubsub"
	"github.com/MarcGrol/menucheckout/lib/myqueue"
	"github.com/MarcGrol/menucheckout/lib/mystore"
	"github.com/MarcGrol/menucheckout/lib/mytime"
)

// transactionalPublisher writes events to an outbox first. A queued task later moves
// pending envelopes of a topic to pubsub, so an event survives a crash between the two.
type transactionalPublisher struct {
	outbox    mystore.Store[myevents.EventEnvelope]
	queue     myqueue.TaskQueuer
	enveloper enveloper
	pubsub    mypubsub.PubSub
	nower     mytime.Nower
	logger    mylog.Logger
}

func New(c context.Context, pubsub mypubsub.PubSub, queue myqueue.TaskQueuer, nower mytime.Nower) (*transactionalPublisher, func(), error) {
	store, storeCleanup, err := mystore.New[myevents.EventEnvelope](c)
	if err != nil {
		return nil, nil, err
	}

	return newTransactionalPublisher(store, pubsub, queue, nower), storeCleanup, nil
}

func newTransactionalPublisher(outbox mystore.Store[myevents.EventEnvelope], pubsub mypubsub.PubSub, queue myqueue.TaskQueuer, nower mytime.Nower) *transactionalPublisher {
	return &transactionalPublisher{
		outbox:    outbox,
		queue:     queue,
		enveloper: newEnveloper(nower),
		pubsub:    pubsub,
		nower:     nower,
		logger:    mylog.New("outbox"),
	}
}

func (p *transactionalPublisher) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/pubsub/{topic}/{uid}", p.processTriggerPage()).Methods("PUT")
}

func (p *transactionalPublisher) CreateTopic(c context.Context, topicName string) error {
	return p.pubsub.CreateTopic(c, topicName)
}

// Publish is idempotent: an event that was already delivered is not delivered again.
func (p *transactionalPublisher) Publish(c context.Context, topic string, event myevents.Event) error {
	envelope, err := p.enveloper.seal(topic, event)
	if err != nil {
		return err
	}

	existing, found, err := p.outbox.Get(c, envelope.UID)
	if err != nil {
		return fmt.Errorf("error looking up envelope %s: %s", envelope.UID, err)
	}
	if found && existing.Published {
		p.logger.Log(c, envelope.AggregateUID, mylog.SeverityDebug, "Event %s was already published", existing)
		return nil
	}

	if !found {
		err = p.outbox.Put(c, envelope.UID, envelope)
		if err != nil {
			return fmt.Errorf("error storing envelope %s: %s", envelope, err)
		}
	}

	err = p.queue.Enqueue(c, myqueue.Task{
		UID:            envelope.UID,
		WebhookURLPath: fmt.Sprintf("/pubsub/%s/%s", envelope.Topic, envelope.UID),
		Payload:        []byte{},
	})
	if err != nil {
		return fmt.Errorf("error queueing publication-trigger %s: %s", envelope.UID, err)
	}

	p.logger.Log(c, envelope.AggregateUID, mylog.SeverityInfo, "Enqueued event %s", envelope)

	return nil
}

func (p *transactionalPublisher) processTriggerPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(p.logger)

		topicName := mux.Vars(r)["topic"]
		eventUID := mux.Vars(r)["uid"]

		count, err := p.processTrigger(c, topicName, eventUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: fmt.Sprintf("Published %d events on topic %s", count, topicName),
		})
	}
}

// processTrigger publishes every pending envelope of the topic in creation order,
// not only the one that triggered it.
func (p *transactionalPublisher) processTrigger(c context.Context, topicName string, uid string) (int, error) {
	count := 0
	err := p.outbox.RunInTransaction(c, func(c context.Context) error {
		envelopes, err := p.outbox.Query(c, []mystore.Filter{
			{Field: "Topic", Compare: "=", Value: topicName},
			{Field: "Published", Compare: "=", Value: false},
		}, "CreatedAt")
		if err != nil {
			return fmt.Errorf("error fetching pending envelopes of topic %s: %s", topicName, err)
		}

		for _, envelope := range envelopes {
			jsonBytes, err := json.Marshal(envelope)
			if err != nil {
				return fmt.Errorf("error serializing envelope %s: %s", envelope, err)
			}

			err = p.pubsub.Publish(c, envelope.Topic, string(jsonBytes))
			if err != nil {
				return fmt.Errorf("error publishing envelope %s: %s", envelope, err)
			}

			envelope.Published = true
			envelope.PublishedAt = p.nower.Now()
			err = p.outbox.Put(c, envelope.UID, envelope)
			if err != nil {
				return fmt.Errorf("error storing envelope %s: %s", envelope, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	p.logger.Log(c, uid, mylog.SeverityInfo, "Published %d events on topic %s", count, topicName)

	return count, nil
}
