package checkout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/menucheckout/lib/mylog"
	"github.com/MarcGrol/menucheckout/lib/mystore"
	"github.com/MarcGrol/menucheckout/lib/mytime"
	"github.com/MarcGrol/menucheckout/lib/myuuid"
)

// failingStore refuses every write, as a full or unavailable storage would.
type failingStore[T any] struct {
	mystore.Store[T]
}

func (s failingStore[T]) Put(c context.Context, uid string, value T) error {
	return fmt.Errorf("quota exceeded")
}

func setupSessionStore(t *testing.T, ctrl *gomock.Controller) (context.Context, *SessionStore, *mystore.InMemoryStore[CheckoutSession], *mytime.SteppingNower) {
	c := context.TODO()
	storer, _, _ := mystore.NewInMemoryStore[CheckoutSession](c)
	nower := mytime.NewSteppingNower(mytime.ExampleTime)
	uuider := myuuid.NewMockUUIDer(ctrl)
	uuider.EXPECT().Create().Return("session_1").AnyTimes()

	return c, NewSessionStore(storer, nower, uuider, mylog.New("checkout"), 30*time.Minute), storer, nower
}

func TestSessionStore(t *testing.T) {
	key := SessionKey{StoreUID: "store_1", DeviceUID: "dev_1"}

	t.Run("Create starts at authentication and is not persisted", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, sessions, storer, _ := setupSessionStore(t, ctrl)

		// when
		session := sessions.Create(key)

		// then
		assert.Equal(t, "session_1", session.UID)
		assert.Equal(t, StepAuthentication, session.CurrentStep)
		assert.Equal(t, mytime.ExampleTime.Add(30*time.Minute), session.ExpiresAt)
		_, found, _ := storer.Get(c, key.String())
		assert.False(t, found)
	})

	t.Run("Restore before expiry reproduces the session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, sessions, _, nower := setupSessionStore(t, ctrl)

		// given
		session := sessions.Create(key)
		session.IsGuest = true
		session.AuthenticationMethod = AuthenticationMethodGuest
		session.CustomerData = CustomerData{Name: "Ana"}
		session.CurrentStep = StepPayment
		session.CompletedSteps = []Step{StepAuthentication, StepCustomerData}
		session.PaymentSelection = &PaymentSelection{Method: "cash"}
		assert.Empty(t, sessions.Save(c, session))
		nower.Advance(29 * time.Minute)

		// when
		restored, found, err := sessions.Restore(c, key)

		// then
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, session, restored)
	})

	t.Run("Restore at expiry discards the session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, sessions, storer, nower := setupSessionStore(t, ctrl)

		// given
		sessions.Save(c, sessions.Create(key))
		nower.Advance(30 * time.Minute)

		// when
		_, found, err := sessions.Restore(c, key)

		// then
		assert.NoError(t, err)
		assert.False(t, found)
		_, stillStored, _ := storer.Get(c, key.String())
		assert.False(t, stillStored)
	})

	t.Run("Touch extends expiry from last activity", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, sessions, _, nower := setupSessionStore(t, ctrl)

		// given
		session := sessions.Create(key)
		nower.Advance(10 * time.Minute)

		// when
		session = sessions.Touch(session)

		// then
		assert.Equal(t, mytime.ExampleTime.Add(10*time.Minute), session.LastActivity)
		assert.Equal(t, mytime.ExampleTime.Add(40*time.Minute), session.ExpiresAt)
		assert.Equal(t, mytime.ExampleTime, session.StartedAt)
	})

	t.Run("Save failure becomes a warning", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, _, storer, nower := setupSessionStore(t, ctrl)
		uuider := myuuid.NewMockUUIDer(ctrl)
		uuider.EXPECT().Create().Return("session_2")
		sessions := NewSessionStore(failingStore[CheckoutSession]{Store: storer}, nower, uuider, mylog.New("checkout"), 30*time.Minute)

		// when
		warning := sessions.Save(c, sessions.Create(key))

		// then
		assert.Contains(t, warning, "quota exceeded")
	})

	t.Run("Purge expired sessions", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, sessions, storer, nower := setupSessionStore(t, ctrl)

		// given
		sessions.Save(c, sessions.Create(SessionKey{StoreUID: "store_1", DeviceUID: "old"}))
		nower.Advance(20 * time.Minute)
		sessions.Save(c, sessions.Create(SessionKey{StoreUID: "store_1", DeviceUID: "young"}))
		nower.Advance(15 * time.Minute)

		// when
		count, err := sessions.PurgeExpired(c)

		// then
		assert.NoError(t, err)
		assert.Equal(t, 1, count)
		_, found, _ := storer.Get(c, "store_1:young")
		assert.True(t, found)
		_, found, _ = storer.Get(c, "store_1:old")
		assert.False(t, found)
	})

	t.Run("Clear removes the session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, sessions, _, _ := setupSessionStore(t, ctrl)

		// given
		sessions.Save(c, sessions.Create(key))

		// when
		err := sessions.Clear(c, key)

		// then
		assert.NoError(t, err)
		_, found, _ := sessions.Restore(c, key)
		assert.False(t, found)
	})
}
