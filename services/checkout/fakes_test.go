package checkout

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/menucheckout/lib/myevents"
	"github.com/MarcGrol/menucheckout/lib/mylog"
	"github.com/MarcGrol/menucheckout/lib/mystore"
	"github.com/MarcGrol/menucheckout/lib/mytime"
	"github.com/MarcGrol/menucheckout/lib/myuuid"
	"github.com/MarcGrol/menucheckout/services/cart"
	"github.com/MarcGrol/menucheckout/services/magiclink"
	"github.com/MarcGrol/menucheckout/services/notification"
	"github.com/MarcGrol/menucheckout/services/orderapi"
	"github.com/MarcGrol/menucheckout/services/postalcode"
)

var key1 = SessionKey{StoreUID: "store_1", DeviceUID: "dev_1"}

func basketWith(fulfilment cart.Fulfilment) cart.Basket {
	return cart.Basket{
		UID:        "store_1:dev_1",
		StoreUID:   "store_1",
		DeviceUID:  "dev_1",
		Fulfilment: fulfilment,
		Lines: []cart.Line{
			{ProductUID: "pastel", Name: "Pastel", Quantity: 2, UnitPriceCents: 800},
			{ProductUID: "caldo", Name: "Caldo de cana", Quantity: 1, UnitPriceCents: 600},
		},
		CreatedAt: mytime.ExampleTime,
	}
}

type fakeCarts struct {
	sync.Mutex
	baskets map[SessionKey]cart.Basket
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{baskets: map[SessionKey]cart.Basket{}}
}

func (f *fakeCarts) put(b cart.Basket) {
	f.Lock()
	defer f.Unlock()
	f.baskets[SessionKey{StoreUID: b.StoreUID, DeviceUID: b.DeviceUID}] = b
}

func (f *fakeCarts) GetBasket(c context.Context, storeUID string, deviceUID string) (cart.Basket, bool, error) {
	f.Lock()
	defer f.Unlock()
	b, found := f.baskets[SessionKey{StoreUID: storeUID, DeviceUID: deviceUID}]
	return b, found, nil
}

func (f *fakeCarts) ClearBasket(c context.Context, storeUID string, deviceUID string) error {
	f.Lock()
	defer f.Unlock()
	delete(f.baskets, SessionKey{StoreUID: storeUID, DeviceUID: deviceUID})
	return nil
}

type recordingPublisher struct {
	sync.Mutex
	events []myevents.Event
}

func (p *recordingPublisher) CreateTopic(c context.Context, topicName string) error {
	return nil
}

func (p *recordingPublisher) Publish(c context.Context, topic string, event myevents.Event) error {
	p.Lock()
	defer p.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.Lock()
	defer p.Unlock()
	names := []string{}
	for _, e := range p.events {
		names = append(names, e.GetEventTypeName())
	}
	return names
}

type testEnv struct {
	c         context.Context
	service   *service
	sessions  *mystore.InMemoryStore[CheckoutSession]
	guests    *mystore.InMemoryStore[GuestRecord]
	vault     *mystore.InMemoryStore[magiclink.Credential]
	carts     *fakeCarts
	backend   *orderapi.MockClient
	links     *magiclink.MockClient
	notifier  *notification.MockNotifier
	publisher *recordingPublisher
	clock     *mytime.SteppingNower
}

func setupService(t *testing.T, ctrl *gomock.Controller) testEnv {
	c := context.TODO()
	sessionStore, _, _ := mystore.NewInMemoryStore[CheckoutSession](c)
	guestStore, _, _ := mystore.NewInMemoryStore[GuestRecord](c)
	vault, _, _ := mystore.NewInMemoryStore[magiclink.Credential](c)
	nower := mytime.NewSteppingNower(mytime.ExampleTime)

	count := 0
	uuider := myuuid.NewMockUUIDer(ctrl)
	uuider.EXPECT().Create().DoAndReturn(func() string {
		count++
		return fmt.Sprintf("uid_%d", count)
	}).AnyTimes()

	logger := mylog.New("checkout")
	env := testEnv{
		c:         c,
		sessions:  sessionStore,
		guests:    guestStore,
		vault:     vault,
		carts:     newFakeCarts(),
		backend:   orderapi.NewMockClient(ctrl),
		links:     magiclink.NewMockClient(ctrl),
		notifier:  notification.NewMockNotifier(ctrl),
		publisher: &recordingPublisher{},
		clock:     nower,
	}
	env.service = newService(Collaborators{
		Sessions:    NewSessionStore(sessionStore, nower, uuider, logger, 30*time.Minute),
		Guests:      guestStore,
		Vault:       vault,
		Carts:       env.carts,
		Backend:     env.backend,
		PostalCodes: postalcode.NewFakeLookup(),
		LinkClient:  env.links,
		Notifier:    env.notifier,
		Publisher:   env.publisher,
		Nower:       nower,
		UUIDer:      uuider,
		Handshake: magiclink.Config{
			MaxRetries:    3,
			RetryBackoff:  time.Millisecond,
			RedirectDelay: 2 * time.Second,
		},
	}, logger)
	return env
}

// assertConsistent checks what must hold for every session the orchestrator hands out.
func assertConsistent(t *testing.T, s CheckoutSession) {
	assert.False(t, s.IsAuthenticated && s.IsGuest, "authenticated and guest at the same time")
	if s.HasCompleted(StepAuthentication) {
		assert.True(t, s.IsAuthenticated || s.IsGuest, "identity lost after authentication")
	}
	assert.True(t, CanEnter(s, s.CurrentStep).Allowed, "parked on blocked step %s", s.CurrentStep)
}

func (env testEnv) stored(t *testing.T) CheckoutSession {
	session, found, err := env.sessions.Get(env.c, key1.String())
	assert.NoError(t, err)
	assert.True(t, found)
	return session
}
