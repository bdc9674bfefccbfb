package checkout

import (
	"context"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/MarcGrol/menucheckout/lib/myevents"
	"github.com/MarcGrol/menucheckout/lib/mylog"
	"github.com/MarcGrol/menucheckout/lib/mypublisher"
	"github.com/MarcGrol/menucheckout/lib/mystore"
	"github.com/MarcGrol/menucheckout/lib/mytime"
	"github.com/MarcGrol/menucheckout/lib/myuuid"
	"github.com/MarcGrol/menucheckout/lib/myvault"
	"github.com/MarcGrol/menucheckout/services/cart"
	"github.com/MarcGrol/menucheckout/services/checkout/checkoutevents"
	"github.com/MarcGrol/menucheckout/services/magiclink"
	"github.com/MarcGrol/menucheckout/services/notification"
	"github.com/MarcGrol/menucheckout/services/orderapi"
	"github.com/MarcGrol/menucheckout/services/postalcode"
)

// CartProvider gives read access to the basket being checked out, and clears it once ordered.
type CartProvider interface {
	GetBasket(c context.Context, storeUID string, deviceUID string) (cart.Basket, bool, error)
	ClearBasket(c context.Context, storeUID string, deviceUID string) error
}

type Collaborators struct {
	Sessions    *SessionStore
	Guests      mystore.Store[GuestRecord]
	Vault       myvault.VaultReadWriter[magiclink.Credential]
	Carts       CartProvider
	Backend     orderapi.Client
	PostalCodes postalcode.Lookup
	LinkClient  magiclink.Client
	Notifier    notification.Notifier
	Publisher   mypublisher.Publisher
	Nower       mytime.Nower
	UUIDer      myuuid.UUIDer
	Handshake   magiclink.Config
}

type service struct {
	sessions        *SessionStore
	guests          mystore.Store[GuestRecord]
	vault           myvault.VaultReadWriter[magiclink.Credential]
	carts           CartProvider
	backend         orderapi.Client
	postalCodes     postalcode.Lookup
	linkClient      magiclink.Client
	notifier        notification.Notifier
	publisher       mypublisher.Publisher
	nower           mytime.Nower
	uuider          myuuid.UUIDer
	logger          mylog.Logger
	handshakeConfig magiclink.Config
	handshakes      *handshakeRegistry
	submitting      sync.Map
	sanitizer       *bluemonday.Policy
	tracer          trace.Tracer
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(deps Collaborators, logger mylog.Logger) *service {
	return &service{
		sessions:        deps.Sessions,
		guests:          deps.Guests,
		vault:           deps.Vault,
		carts:           deps.Carts,
		backend:         deps.Backend,
		postalCodes:     deps.PostalCodes,
		linkClient:      deps.LinkClient,
		notifier:        deps.Notifier,
		publisher:       deps.Publisher,
		nower:           deps.Nower,
		uuider:          deps.UUIDer,
		logger:          logger,
		handshakeConfig: deps.Handshake,
		handshakes:      newHandshakeRegistry(),
		sanitizer:       bluemonday.StrictPolicy(),
		tracer:          otel.Tracer("checkout"),
	}
}

func (s *service) CreateTopics(c context.Context) error {
	return s.publisher.CreateTopic(c, checkoutevents.TopicName)
}

// publish is best-effort: events describe what happened, they never decide it.
func (s *service) publish(c context.Context, key SessionKey, event myevents.Event) {
	err := s.publisher.Publish(c, checkoutevents.TopicName, event)
	if err != nil {
		s.logger.Log(c, key.String(), mylog.SeverityWarn, "Error publishing %s: %s", event.GetEventTypeName(), err)
	}
}
