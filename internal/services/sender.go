package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/conversation"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/nostrx"
	"github.com/dmitrijs2005/linkdrop/internal/transport"
)

// SendMode chooses when a sent post is persisted.
type SendMode int

const (
	// ModeAwaitConfirm waits for relay readiness, publishes and persists
	// only after the relay accepted the event.
	ModeAwaitConfirm SendMode = iota
	// ModeLocalFirst persists under the signed event's id, then
	// publishes. A publish failure is returned but the row stays.
	ModeLocalFirst
)

// Waiter blocks until relays are ready to accept a publish.
type Waiter interface {
	Await(ctx context.Context, timeout, poll time.Duration) error
}

type SenderConfig struct {
	ReadinessTimeout time.Duration
	PollInterval     time.Duration
	PublishTimeout   time.Duration
	Mode             SendMode
}

type Sender struct {
	readiness Waiter
	publisher transport.Publisher
	messages  MessageService
	cfg       SenderConfig
	log       logging.Logger
	now       func() time.Time
}

func NewSender(readiness Waiter, publisher transport.Publisher, messages MessageService, cfg SenderConfig, log logging.Logger) *Sender {
	return &Sender{
		readiness: readiness,
		publisher: publisher,
		messages:  messages,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// SendRoot shares url with target in their one-to-one conversation.
func (s *Sender) SendRoot(ctx context.Context, owner, target, url string) (*models.MessageView, error) {
	return s.send(ctx, owner, target, models.Payload{Kind: models.KindRoot, URL: url})
}

// SendReply comments on the root post rootID.
func (s *Sender) SendReply(ctx context.Context, owner, target, rootID, note string) (*models.MessageView, error) {
	return s.send(ctx, owner, target, models.Payload{Kind: models.KindReply, RootID: rootID, Note: note})
}

func (s *Sender) send(ctx context.Context, owner, target string, p models.Payload) (*models.MessageView, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	target, err = nostrx.NormalizePubkey(target)
	if err != nil {
		return nil, err
	}

	ts := s.now().UTC()
	p.ConversationID = conversation.ID(owner, target)
	p.Timestamp = ts.UnixMilli()
	body, err := p.Marshal()
	if err != nil {
		return nil, err
	}

	rec := MessageRecord{
		Owner:          owner,
		Kind:           p.Kind,
		ConversationID: p.ConversationID,
		RootID:         p.RootID,
		Sender:         owner,
		Receiver:       target,
		URL:            p.URL,
		Note:           p.Note,
		Timestamp:      ts,
	}

	env, err := s.publisher.Prepare(body, target)
	if err != nil {
		return nil, err
	}
	rec.EventID = env.ID

	if s.cfg.Mode == ModeLocalFirst {
		return s.sendLocalFirst(ctx, rec, env)
	}

	if err := s.deliver(ctx, env); err != nil {
		return nil, err
	}
	// The relay accepted the event; store it even if the caller is gone.
	v, err := s.messages.Record(context.WithoutCancel(ctx), rec)
	if err != nil {
		return nil, fmt.Errorf("published %s but failed to store it: %w", env.ID, err)
	}
	s.log.Info(ctx, "post sent", "kind", string(p.Kind), "event", env.ID)
	return v, nil
}

// sendLocalFirst stores the row under the id of the signed event before
// delivering it, so a later confirmation needs no re-keying.
func (s *Sender) sendLocalFirst(ctx context.Context, rec MessageRecord, env transport.Envelope) (*models.MessageView, error) {
	v, err := s.messages.Record(ctx, rec)
	if err != nil {
		return nil, err
	}

	if err := s.deliver(ctx, env); err != nil {
		s.log.Warn(ctx, "post stored locally but not published", "event", env.ID, "error", err)
		return v, err
	}
	s.log.Info(ctx, "post sent", "kind", string(rec.Kind), "event", env.ID)
	return v, nil
}

func (s *Sender) deliver(ctx context.Context, env transport.Envelope) error {
	if err := s.readiness.Await(ctx, s.cfg.ReadinessTimeout, s.cfg.PollInterval); err != nil {
		return err
	}

	pctx := ctx
	if s.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, s.cfg.PublishTimeout)
		defer cancel()
	}
	return s.publisher.Send(pctx, env)
}
