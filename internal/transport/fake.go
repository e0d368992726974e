package transport

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/models"
)

// Fake is an in-memory Publisher used by tests and offline runs. Connect
// reports every url as connected.
type Fake struct {
	mu        sync.Mutex
	live      bool
	err       error
	published []FakeEvent
	dialed    []string
	updates   chan StatusUpdate
	closed    bool
}

type FakeEvent struct {
	ID      string
	Target  string
	Payload []byte
}

func NewFake(live bool) *Fake {
	return &Fake{live: live, updates: make(chan StatusUpdate, 64)}
}

func (f *Fake) SetLive(live bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live = live
}

// FailWith makes every following Send return err until reset with nil.
func (f *Fake) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *Fake) HasLiveConnection() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live
}

// Prepare assigns a random id. The fake's Event is the payload itself.
func (f *Fake) Prepare(payload []byte, target string) (Envelope, error) {
	id, err := common.MakeRandHexString(32)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{ID: id, Target: target, Event: append([]byte(nil), payload...)}, nil
}

// Send records env unless the fake was told to fail.
func (f *Fake) Send(ctx context.Context, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, FakeEvent{ID: env.ID, Target: env.Target, Payload: env.Event})
	return nil
}

func (f *Fake) Published() []FakeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeEvent(nil), f.published...)
}

// Connect marks the fake live when urls is non-empty and emits a
// connected update per url. Updates beyond the buffer are dropped.
func (f *Fake) Connect(_ context.Context, urls []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.dialed = append(f.dialed, urls...)
	for _, u := range urls {
		select {
		case f.updates <- StatusUpdate{URL: u, Status: models.RelayConnected}:
		default:
		}
	}
	if len(urls) > 0 {
		f.live = true
	}
}

func (f *Fake) Dialed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.dialed...)
}

func (f *Fake) Updates() <-chan StatusUpdate {
	return f.updates
}

// Close closes Updates and drops the live flag. It is idempotent.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		f.live = false
		close(f.updates)
	}
	return nil
}

func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
