package nostrx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip04"

	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/transport"
)

// ErrNoConnection is returned by Send when no relay socket is open.
var ErrNoConnection = errors.New("no connected relay")

const defaultDialTimeout = 10 * time.Second

// Transport publishes NIP-04 direct messages to a set of relays and
// reports per-relay status on Updates.
type Transport struct {
	secret string
	pubkey string
	log    logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	relays  map[string]*nostr.Relay
	updates chan transport.StatusUpdate
	closed  bool

	DialTimeout time.Duration
}

var _ transport.Publisher = (*Transport)(nil)

func NewTransport(secretHex string, log logging.Logger) (*Transport, error) {
	sk, pk, err := ParseSecret(secretHex)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{
		secret:      sk,
		pubkey:      pk,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
		relays:      map[string]*nostr.Relay{},
		updates:     make(chan transport.StatusUpdate, 64),
		DialTimeout: defaultDialTimeout,
	}, nil
}

func (t *Transport) Pubkey() string {
	return t.pubkey
}

// Updates streams relay status changes. It is closed by Close.
func (t *Transport) Updates() <-chan transport.StatusUpdate {
	return t.updates
}

func (t *Transport) emit(ctx context.Context, url string, status models.RelayStatus, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.updates <- transport.StatusUpdate{URL: url, Status: status, Err: reason}:
	default:
		t.log.Warn(ctx, "relay status dropped, consumer is behind", "url", url, "status", string(status))
	}
}

// Connect dials every url that is not already connected. Failures are
// reported as status updates, not returned.
func (t *Transport) Connect(ctx context.Context, urls []string) {
	var wg sync.WaitGroup
	for _, url := range urls {
		t.mu.Lock()
		r, ok := t.relays[url]
		t.mu.Unlock()
		if ok && r.Context().Err() == nil {
			continue
		}

		status := models.RelayConnecting
		if ok {
			status = models.RelayReconnecting
		}
		t.emit(ctx, url, status, "")

		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			t.dial(ctx, url)
		}(url)
	}
	wg.Wait()
}

func (t *Transport) dial(ctx context.Context, url string) {
	dialCtx, cancel := context.WithTimeout(ctx, t.DialTimeout)
	defer cancel()

	r := nostr.NewRelay(t.ctx, url)
	if err := r.Connect(dialCtx); err != nil {
		t.log.Warn(ctx, "relay connect failed", "url", url, "error", err)
		t.emit(ctx, url, models.RelayFailed, err.Error())
		return
	}

	t.mu.Lock()
	t.relays[url] = r
	t.mu.Unlock()

	t.log.Info(ctx, "relay connected", "url", url)
	t.emit(ctx, url, models.RelayConnected, "")

	go func() {
		<-r.Context().Done()
		t.emit(context.Background(), url, models.RelayDisconnected, "connection closed")
	}()
}

// Disconnect closes the relay connection, if any.
func (t *Transport) Disconnect(url string) {
	t.mu.Lock()
	r, ok := t.relays[url]
	delete(t.relays, url)
	t.mu.Unlock()
	if ok {
		_ = r.Close()
	}
}

func (t *Transport) HasLiveConnection() bool {
	return len(t.live()) > 0
}

func (t *Transport) live() []*nostr.Relay {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*nostr.Relay
	for _, r := range t.relays {
		if r.Context().Err() == nil {
			out = append(out, r)
		}
	}
	return out
}

// Prepare encrypts payload to target and signs a kind 4 event.
func (t *Transport) Prepare(payload []byte, targetPubkey string) (transport.Envelope, error) {
	ev, err := t.buildEvent(payload, targetPubkey)
	if err != nil {
		return transport.Envelope{}, err
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return transport.Envelope{}, fmt.Errorf("encode event: %w", err)
	}
	target, _ := NormalizePubkey(targetPubkey)
	return transport.Envelope{ID: ev.ID, Target: target, Event: raw}, nil
}

// Send delivers env to every live relay. The first relay to accept
// decides success.
func (t *Transport) Send(ctx context.Context, env transport.Envelope) error {
	var ev nostr.Event
	if err := json.Unmarshal(env.Event, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if ev.ID != env.ID {
		return fmt.Errorf("envelope id %s does not match event %s", env.ID, ev.ID)
	}

	relays := t.live()
	if len(relays) == 0 {
		return ErrNoConnection
	}

	type result struct {
		url string
		err error
	}
	results := make(chan result, len(relays))
	for _, r := range relays {
		go func(r *nostr.Relay) {
			results <- result{url: r.URL, err: r.Publish(ctx, ev)}
		}(r)
	}

	var rejected *transport.RejectedError
	var lastErr error
	for range relays {
		res := <-results
		if res.err == nil {
			t.log.Debug(ctx, "event accepted", "url", res.url, "id", ev.ID)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if reason, ok := rejectionReason(res.err); ok {
			if IsReadOnlyReason(reason) {
				t.emit(ctx, res.url, models.RelayReadOnly, reason)
			}
			if rejected == nil {
				rejected = &transport.RejectedError{Relay: res.url, Reason: reason}
			}
			continue
		}
		lastErr = res.err
	}

	if rejected != nil {
		return rejected
	}
	return fmt.Errorf("publish failed: %w", lastErr)
}

func (t *Transport) buildEvent(payload []byte, targetPubkey string) (nostr.Event, error) {
	target, err := NormalizePubkey(targetPubkey)
	if err != nil {
		return nostr.Event{}, err
	}
	shared, err := nip04.ComputeSharedSecret(target, t.secret)
	if err != nil {
		return nostr.Event{}, fmt.Errorf("compute shared secret: %w", err)
	}
	content, err := nip04.Encrypt(string(payload), shared)
	if err != nil {
		return nostr.Event{}, fmt.Errorf("encrypt payload: %w", err)
	}

	ev := nostr.Event{
		PubKey:    t.pubkey,
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindEncryptedDirectMessage,
		Tags:      nostr.Tags{{"p", target}},
		Content:   content,
	}
	if err := ev.Sign(t.secret); err != nil {
		return nostr.Event{}, fmt.Errorf("sign event: %w", err)
	}
	return ev, nil
}

// Close drops every connection and closes Updates.
func (t *Transport) Close() error {
	t.cancel()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	var errs []error
	for url, r := range t.relays {
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", url, err))
		}
		delete(t.relays, url)
	}
	close(t.updates)
	return errors.Join(errs...)
}

// rejectionReason extracts the relay's OK message from a publish error.
// go-nostr reports a negative OK as "msg: <reason>".
func rejectionReason(err error) (string, bool) {
	msg := err.Error()
	if i := strings.Index(msg, "msg: "); i >= 0 {
		return strings.TrimSpace(msg[i+len("msg: "):]), true
	}
	return "", false
}

// IsReadOnlyReason reports whether a relay refusal means the relay will
// not accept writes from this identity at all.
func IsReadOnlyReason(reason string) bool {
	r := strings.ToLower(strings.TrimSpace(reason))
	return strings.HasPrefix(r, "restricted:") || strings.HasPrefix(r, "auth-required:")
}
