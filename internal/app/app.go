package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/config"
	"github.com/dmitrijs2005/linkdrop/internal/cryptox"
	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/filex"
	"github.com/dmitrijs2005/linkdrop/internal/keystore"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/nostrx"
	"github.com/dmitrijs2005/linkdrop/internal/relay"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/relays"
	"github.com/dmitrijs2005/linkdrop/internal/services"
	"github.com/dmitrijs2005/linkdrop/internal/sharedstore"
	"github.com/dmitrijs2005/linkdrop/internal/transport"
)

const identityAccountFmt = common.AppName + ":identity:%s"

// Dialer builds a relay transport for an identity secret. The default uses
// go-nostr; tests supply an in-memory one.
type Dialer func(secretHex string, log logging.Logger) (Connection, error)

// Connection is a relay transport the Context owns until Close.
type Connection interface {
	transport.Publisher
	Connect(ctx context.Context, urls []string)
	Updates() <-chan transport.StatusUpdate
	Close() error
}

// Context is the explicit application context of one process.
type Context struct {
	Config *config.Config
	Log    logging.Logger

	DB     *sql.DB
	Keys   keystore.KeyStore
	Cipher *cryptox.AccountCipher
	Shared *sharedstore.Store

	Accounts services.AccountService
	Contacts services.ContactService
	Sessions services.SessionService
	Messages services.MessageService
	Relays   services.RelayService

	Readiness *relay.Readiness
	Tracker   *relay.Tracker

	dial Dialer

	mu          sync.Mutex
	conn        Connection
	trackerDone chan struct{}
}

// Option customises New.
type Option func(*Context)

// WithKeyStore replaces the on-disk key directory, e.g. with keystore.Memory.
func WithKeyStore(ks keystore.KeyStore) Option {
	return func(c *Context) { c.Keys = ks }
}

func WithDialer(d Dialer) Option {
	return func(c *Context) { c.dial = d }
}

// New opens every store named by cfg, seeds configured relays and restores
// the identity that was active when the previous process exited.
func New(ctx context.Context, cfg *config.Config, log logging.Logger, opts ...Option) (_ *Context, err error) {
	c := &Context{Config: cfg, Log: log, dial: DialNostr}
	for _, o := range opts {
		o(c)
	}

	if c.Keys == nil {
		dir, err := keystore.NewDir(cfg.KeysDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open key directory: %w", err)
		}
		c.Keys = dir
	}
	if cfg.ThumbnailDir != "" {
		if _, err := filex.EnsureDir(cfg.ThumbnailDir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create thumbnail directory: %w", err)
		}
	}

	c.DB, err = dbx.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			c.DB.Close()
		}
	}()

	c.Shared, err = sharedstore.Open(cfg.ContainerDir, log)
	if err != nil {
		return nil, err
	}

	c.Cipher = cryptox.NewAccountCipher(c.Keys)
	c.Readiness = relay.NewReadiness(relays.NewSQLiteRepository(c.DB), c.hasLiveConnection, log)
	c.Tracker = relay.NewTracker(relays.NewSQLiteRepository(c.DB), log)

	c.Accounts = services.NewAccountService(c.DB, c.Cipher, log)
	c.Contacts = services.NewContactService(c.DB, c.Cipher, c.Shared, log)
	c.Sessions = services.NewSessionService(c.DB, c.Cipher, log)
	c.Messages = services.NewMessageService(c.DB, c.Cipher, log)
	c.Relays = services.NewRelayService(c.DB, c.Readiness, log)

	if err := c.seedRelays(ctx); err != nil {
		return nil, err
	}
	if _, _, err := c.Accounts.Restore(ctx); err != nil {
		return nil, fmt.Errorf("failed to restore active identity: %w", err)
	}
	return c, nil
}

func (c *Context) seedRelays(ctx context.Context) error {
	for _, url := range c.Config.Relays {
		_, err := c.Relays.Add(ctx, url)
		if err != nil && !errors.Is(err, common.ErrDuplicateRelay) {
			return fmt.Errorf("failed to add relay %s: %w", url, err)
		}
	}
	return nil
}

// Owner returns the active identity or common.ErrNotLoggedIn.
func (c *Context) Owner() (string, error) {
	owner, ok := c.Accounts.Active()
	if !ok {
		return "", common.ErrNotLoggedIn
	}
	return owner, nil
}

// Login stores the identity secret in the key store and makes its public
// key the active owner. Any open relay connection of the previous identity
// is closed.
func (c *Context) Login(ctx context.Context, secret string) (string, error) {
	sk, pk, err := nostrx.ParseSecret(secret)
	if err != nil {
		return "", err
	}
	if err := c.Keys.Store(ctx, identityAccount(pk), []byte(sk)); err != nil {
		return "", fmt.Errorf("failed to store identity: %w", err)
	}
	if err := c.disconnect(); err != nil {
		c.Log.Warn(ctx, "closing previous transport failed", "error", err)
	}
	return c.Accounts.Login(ctx, pk)
}

// Logout closes the transport, forgets the identity secret and delegates
// to AccountService.Logout.
func (c *Context) Logout(ctx context.Context, clearLocalData bool) error {
	owner, err := c.Owner()
	if err != nil {
		return err
	}
	if err := c.disconnect(); err != nil {
		c.Log.Warn(ctx, "closing transport failed", "error", err)
	}
	if err := c.Keys.Delete(ctx, identityAccount(owner)); err != nil {
		return err
	}
	return c.Accounts.Logout(ctx, clearLocalData)
}

func identityAccount(owner string) string {
	return fmt.Sprintf(identityAccountFmt, owner)
}

func (c *Context) hasLiveConnection() bool {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	return conn != nil && conn.HasLiveConnection()
}

// Connect dials the enabled relays for the active identity and starts the
// tracker that persists their status. It is a no-op when already connected.
func (c *Context) Connect(ctx context.Context) (Connection, error) {
	owner, err := c.Owner()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn, nil
	}

	secret, err := c.Keys.Load(ctx, identityAccount(owner))
	if errors.Is(err, keystore.ErrKeyNotFound) {
		return nil, fmt.Errorf("identity secret missing, log in again: %w", common.ErrNotLoggedIn)
	}
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(secret)

	enabled, err := relays.NewSQLiteRepository(c.DB).ListEnabled(ctx)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(enabled))
	for _, r := range enabled {
		urls = append(urls, r.URL)
	}

	conn, err := c.dial(string(secret), c.Log)
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Tracker.Run(context.Background(), conn.Updates())
	}()
	c.conn = conn
	c.trackerDone = done

	// Tracker is already draining, so no update is lost while dialing.
	conn.Connect(ctx, urls)
	return conn, nil
}

// Sender connects if needed and returns a sender configured from Config.
func (c *Context) Sender(ctx context.Context) (*services.Sender, error) {
	conn, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	mode := services.ModeAwaitConfirm
	if c.Config.SendMode == config.SendModeLocalFirst {
		mode = services.ModeLocalFirst
	}
	return services.NewSender(c.Readiness, conn, c.Messages, services.SenderConfig{
		ReadinessTimeout: c.Config.ReadinessTimeout,
		PollInterval:     c.Config.ReadinessPollInterval,
		PublishTimeout:   c.Config.PublishTimeout,
		Mode:             mode,
	}, c.Log), nil
}

// Inbox returns the drain loop over the shared container's queue.
func (c *Context) Inbox(ctx context.Context) (*services.ShareInbox, error) {
	s, err := c.Sender(ctx)
	if err != nil {
		return nil, err
	}
	return services.NewShareInbox(c.Shared, s, c.Log), nil
}

func (c *Context) disconnect() error {
	c.mu.Lock()
	conn, done := c.conn, c.trackerDone
	c.conn, c.trackerDone = nil, nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close()
	<-done
	return err
}

// Close releases the transport and the database.
func (c *Context) Close() error {
	return errors.Join(c.disconnect(), c.DB.Close())
}
