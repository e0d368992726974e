package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/relay"
)

// RelayService manages the device-wide relay list.
type RelayService interface {
	Add(ctx context.Context, rawURL string) (*models.Relay, error)
	Remove(ctx context.Context, rawURL string) error
	SetEnabled(ctx context.Context, rawURL string, enabled bool) error
	List(ctx context.Context) ([]models.Relay, error)
	Connectivity(ctx context.Context) (relay.Connectivity, error)
}

type relayService struct {
	db        *sql.DB
	readiness *relay.Readiness
	log       logging.Logger
	now       func() time.Time
}

func NewRelayService(db *sql.DB, readiness *relay.Readiness, log logging.Logger) RelayService {
	return &relayService{db: db, readiness: readiness, log: log, now: time.Now}
}

// NormalizeRelayURL accepts ws:// and wss:// URLs with a host and returns
// them with a lower-case scheme and host and without a trailing slash.
func NormalizeRelayURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidURL, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return "", fmt.Errorf("%w: relay url must be ws:// or wss://, got %q", common.ErrInvalidURL, raw)
	}
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}

func (s *relayService) Add(ctx context.Context, rawURL string) (*models.Relay, error) {
	u, err := NormalizeRelayURL(rawURL)
	if err != nil {
		return nil, err
	}
	repo := newStores(s.db).relays
	if _, err := repo.Get(ctx, u); err == nil {
		return nil, common.ErrDuplicateRelay
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	now := s.now().UTC()
	r := &models.Relay{
		URL:       u,
		IsEnabled: true,
		Status:    models.RelayDisconnected,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Insert(ctx, r); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "relay added", "url", u)
	return r, nil
}

func (s *relayService) Remove(ctx context.Context, rawURL string) error {
	u, err := NormalizeRelayURL(rawURL)
	if err != nil {
		return err
	}
	return newStores(s.db).relays.Delete(ctx, u)
}

func (s *relayService) SetEnabled(ctx context.Context, rawURL string, enabled bool) error {
	u, err := NormalizeRelayURL(rawURL)
	if err != nil {
		return err
	}
	return newStores(s.db).relays.SetEnabled(ctx, u, enabled, s.now().UTC())
}

func (s *relayService) List(ctx context.Context) ([]models.Relay, error) {
	return newStores(s.db).relays.List(ctx)
}

func (s *relayService) Connectivity(ctx context.Context) (relay.Connectivity, error) {
	return s.readiness.Check(ctx)
}
