package cryptox

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/keystore"
)

const (
	fieldKeyInfo    = common.AppName + " field encryption v1"
	digestKeyInfo   = common.AppName + " lookup digest v1"
	digestAccount   = common.AppName + ":lookup-digest"
	ownerAccountFmt = common.AppName + ":owner:%s"
)

// AccountCipher encrypts account-scoped fields under a key derived per owning
// identity, and computes owner-independent lookup digests so equality
// queries work over encrypted columns.
//
// Root secrets live in the KeyStore; derived keys are cached in memory.
// Plaintext is never cached.
type AccountCipher struct {
	keys keystore.KeyStore

	mu        sync.Mutex
	fieldKeys map[string][]byte
	digestKey []byte
}

func NewAccountCipher(keys keystore.KeyStore) *AccountCipher {
	return &AccountCipher{keys: keys, fieldKeys: make(map[string][]byte)}
}

// Seal encrypts plaintext for owner. An empty plaintext yields an empty
// ciphertext so optional fields stay empty. Errors wrap common.ErrCrypto.
func (c *AccountCipher) Seal(ctx context.Context, plaintext, owner string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	key, err := c.fieldKey(ctx, owner, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrCrypto, err)
	}
	sealed, err := SealGCM(key, []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrCrypto, err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value sealed for owner. It reports false for empty input,
// for rows sealed under another owner or a forgotten key, and for corrupted
// data; it never fails a read path.
func (c *AccountCipher) Open(ctx context.Context, ciphertext, owner string) (string, bool) {
	if ciphertext == "" {
		return "", false
	}
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", false
	}
	key, err := c.fieldKey(ctx, owner, false)
	if err != nil {
		return "", false
	}
	plaintext, err := OpenGCM(key, sealed)
	if err != nil {
		return "", false
	}
	return string(plaintext), true
}

// Digest returns a hex HMAC-SHA256 of value under the device-wide digest key.
// Equal inputs always produce equal digests regardless of owner.
func (c *AccountCipher) Digest(ctx context.Context, value string) (string, error) {
	key, err := c.lookupKey(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrCrypto, err)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Forget drops the owner's root secret. Existing ciphertext for that owner
// becomes undecryptable; the next Seal creates a fresh secret.
func (c *AccountCipher) Forget(ctx context.Context, owner string) error {
	owner = strings.ToLower(owner)

	c.mu.Lock()
	if k, ok := c.fieldKeys[owner]; ok {
		common.WipeByteArray(k)
		delete(c.fieldKeys, owner)
	}
	c.mu.Unlock()

	if err := c.keys.Delete(ctx, fmt.Sprintf(ownerAccountFmt, owner)); err != nil {
		return fmt.Errorf("forget key: %w", err)
	}
	return nil
}

func (c *AccountCipher) fieldKey(ctx context.Context, owner string, create bool) ([]byte, error) {
	owner = strings.ToLower(owner)
	if owner == "" {
		return nil, common.ErrNotLoggedIn
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if k, ok := c.fieldKeys[owner]; ok {
		return k, nil
	}

	secret, err := c.rootSecret(ctx, fmt.Sprintf(ownerAccountFmt, owner), create)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(secret)

	key, err := DeriveKey(secret, []byte(owner), fieldKeyInfo)
	if err != nil {
		return nil, err
	}
	c.fieldKeys[owner] = key
	return key, nil
}

func (c *AccountCipher) lookupKey(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.digestKey != nil {
		return c.digestKey, nil
	}
	secret, err := c.rootSecret(ctx, digestAccount, true)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(secret)

	key, err := DeriveKey(secret, nil, digestKeyInfo)
	if err != nil {
		return nil, err
	}
	c.digestKey = key
	return key, nil
}

// rootSecret loads the secret for account, generating and storing one when
// it is missing and create is set. Callers hold c.mu.
func (c *AccountCipher) rootSecret(ctx context.Context, account string, create bool) ([]byte, error) {
	secret, err := c.keys.Load(ctx, account)
	if err == nil {
		if len(secret) != KeySize {
			return nil, fmt.Errorf("secret for %s has length %d", account, len(secret))
		}
		return secret, nil
	}
	if !errors.Is(err, keystore.ErrKeyNotFound) || !create {
		return nil, err
	}

	secret = common.GenerateRandByteArray(KeySize)
	if err := c.keys.Store(ctx, account, secret); err != nil {
		return nil, err
	}
	return secret, nil
}

// StorageID builds the persisted key of an account-scoped row:
// owner ":" hex(SHA256(domain \x00 part1 \x00 part2 ...)).
// The owner prefix keeps the same upstream identifier distinct per account.
func StorageID(owner, domain string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return strings.ToLower(owner) + ":" + hex.EncodeToString(h.Sum(nil))
}
