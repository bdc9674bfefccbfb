package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/MarcGrol/menucheckout/lib/mylog"
	"github.com/MarcGrol/menucheckout/lib/mystore"
	"github.com/MarcGrol/menucheckout/lib/mytime"
	"github.com/MarcGrol/menucheckout/lib/myuuid"
)

// SessionStore owns the lifecycle of checkout sessions: create, restore, save, touch, clear and expiry.
type SessionStore struct {
	store  mystore.Store[CheckoutSession]
	nower  mytime.Nower
	uuider myuuid.UUIDer
	logger mylog.Logger
	ttl    time.Duration
}

func NewSessionStore(store mystore.Store[CheckoutSession], nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger, ttl time.Duration) *SessionStore {
	return &SessionStore{
		store:  store,
		nower:  nower,
		uuider: uuider,
		logger: logger,
		ttl:    ttl,
	}
}

// Create starts a fresh session at the authentication step. The session is not persisted yet.
func (s *SessionStore) Create(key SessionKey) CheckoutSession {
	now := s.nower.Now()
	return CheckoutSession{
		UID:            s.uuider.Create(),
		StoreUID:       key.StoreUID,
		DeviceUID:      key.DeviceUID,
		CurrentStep:    StepAuthentication,
		CompletedSteps: []Step{},
		StartedAt:      now,
		LastActivity:   now,
		ExpiresAt:      now.Add(s.ttl),
	}
}

// Restore returns the live session for key. An expired session is discarded and reported as absent.
func (s *SessionStore) Restore(c context.Context, key SessionKey) (CheckoutSession, bool, error) {
	session, found, err := s.store.Get(c, key.String())
	if err != nil {
		return CheckoutSession{}, false, fmt.Errorf("error restoring checkout session %s: %w", key, err)
	}
	if !found {
		return CheckoutSession{}, false, nil
	}

	if session.IsExpired(s.nower.Now()) {
		s.logger.Log(c, key.String(), mylog.SeverityInfo, "Checkout session %s expired at %s: discarding", session.UID, session.ExpiresAt.Format(time.RFC3339))
		err = s.store.Delete(c, key.String())
		if err != nil {
			s.logger.Log(c, key.String(), mylog.SeverityWarn, "Error discarding expired checkout session %s: %s", session.UID, err)
		}
		return CheckoutSession{}, false, nil
	}
	if session.CompletedSteps == nil {
		session.CompletedSteps = []Step{}
	}

	return session, true, nil
}

// Save persists the session. It never fails: a storage problem comes back as a warning and the
// caller continues with the in-memory state.
func (s *SessionStore) Save(c context.Context, session CheckoutSession) string {
	err := s.store.Put(c, session.Key().String(), session)
	if err != nil {
		s.logger.Log(c, session.Key().String(), mylog.SeverityWarn, "Error saving checkout session %s: %s", session.UID, err)
		return fmt.Sprintf("checkout progress could not be saved: %s", err)
	}
	return ""
}

// Touch extends the session: expiresAt = lastActivity + ttl.
func (s *SessionStore) Touch(session CheckoutSession) CheckoutSession {
	session.LastActivity = s.nower.Now()
	session.ExpiresAt = session.LastActivity.Add(s.ttl)
	return session
}

func (s *SessionStore) Clear(c context.Context, key SessionKey) error {
	err := s.store.Delete(c, key.String())
	if err != nil {
		return fmt.Errorf("error clearing checkout session %s: %w", key, err)
	}
	return nil
}

// PurgeExpired deletes every session whose expiry has passed and returns how many were removed.
func (s *SessionStore) PurgeExpired(c context.Context) (int, error) {
	expired, err := s.store.Query(c, []mystore.Filter{
		{Field: "ExpiresAt", Compare: "<", Value: s.nower.Now()},
	}, "ExpiresAt")
	if err != nil {
		return 0, fmt.Errorf("error querying expired checkout sessions: %w", err)
	}

	count := 0
	for _, session := range expired {
		err = s.store.Delete(c, session.Key().String())
		if err != nil {
			s.logger.Log(c, session.Key().String(), mylog.SeverityWarn, "Error purging checkout session %s: %s", session.UID, err)
			continue
		}
		count++
	}
	return count, nil
}
