package mytime

import (
	"sync"
	"time"
)

var (
	ExampleTime time.Time
)

func init() {
	ExampleTime, _ = time.Parse("2006-01-02T15:04:05Z", "2023-02-27T23:58:59Z")
}

//go:generate mockgen -source=api.go -package mytime -destination nower_mock.go Nower
type Nower interface {
	Now() time.Time
}

type RealNower struct{}

func (n RealNower) Now() time.Time {
	return time.Now().UTC()
}

// SteppingNower stands still until told to move. Handy to let sessions and tokens expire in tests.
type SteppingNower struct {
	sync.Mutex
	now time.Time
}

func NewSteppingNower(start time.Time) *SteppingNower {
	return &SteppingNower{now: start}
}

func (n *SteppingNower) Now() time.Time {
	n.Lock()
	defer n.Unlock()
	return n.now
}

func (n *SteppingNower) Advance(d time.Duration) {
	n.Lock()
	defer n.Unlock()
	n.now = n.now.Add(d)
}
