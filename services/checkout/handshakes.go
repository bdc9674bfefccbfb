package checkout

import (
	"sync"

	"github.com/MarcGrol/menucheckout/services/magiclink"
)

// handshakeRegistry keeps the in-flight magic-link handshakes; they are never persisted.
type handshakeRegistry struct {
	sync.Mutex
	handshakes map[SessionKey]*magiclink.Handshake
}

func newHandshakeRegistry() *handshakeRegistry {
	return &handshakeRegistry{
		handshakes: map[SessionKey]*magiclink.Handshake{},
	}
}

func (r *handshakeRegistry) get(key SessionKey) (*magiclink.Handshake, bool) {
	r.Lock()
	defer r.Unlock()

	h, found := r.handshakes[key]
	return h, found
}

// put replaces any previous handshake for key; the replaced one is returned so its retries can be cancelled.
func (r *handshakeRegistry) put(key SessionKey, h *magiclink.Handshake) *magiclink.Handshake {
	r.Lock()
	defer r.Unlock()

	previous := r.handshakes[key]
	r.handshakes[key] = h
	return previous
}

func (r *handshakeRegistry) remove(key SessionKey) *magiclink.Handshake {
	r.Lock()
	defer r.Unlock()

	h := r.handshakes[key]
	delete(r.handshakes, key)
	return h
}

// removeIf removes h only while it is still the handshake registered for key.
func (r *handshakeRegistry) removeIf(key SessionKey, h *magiclink.Handshake) bool {
	r.Lock()
	defer r.Unlock()

	if r.handshakes[key] != h {
		return false
	}
	delete(r.handshakes, key)
	return true
}
