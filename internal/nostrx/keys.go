// Package nostrx adapts github.com/nbd-wtf/go-nostr to the store: key
// encoding helpers and a relay transport implementing transport.Publisher.
package nostrx

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
)

// NormalizePubkey accepts an npub (optionally with a "nostr:" prefix) or a
// 64-char hex key and returns the lower-case hex form. Malformed input
// yields common.ErrInvalidKey.
func NormalizePubkey(s string) (string, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "nostr:")

	if strings.HasPrefix(strings.ToLower(s), "npub1") {
		prefix, value, err := nip19.Decode(strings.ToLower(s))
		if err != nil {
			return "", fmt.Errorf("%w: %v", common.ErrInvalidKey, err)
		}
		pk, ok := value.(string)
		if prefix != "npub" || !ok {
			return "", common.ErrInvalidKey
		}
		return checkHexKey(pk)
	}
	return checkHexKey(s)
}

// NPub encodes a hex public key as npub.
func NPub(pubkeyHex string) (string, error) {
	pk, err := checkHexKey(pubkeyHex)
	if err != nil {
		return "", err
	}
	npub, err := nip19.EncodePublicKey(pk)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidKey, err)
	}
	return npub, nil
}

// ParseSecret accepts an nsec or a 64-char hex secret key and returns the
// hex secret and its public key.
func ParseSecret(s string) (secretHex, pubkeyHex string, err error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "nsec1") {
		prefix, value, err := nip19.Decode(s)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", common.ErrInvalidKey, err)
		}
		sk, ok := value.(string)
		if prefix != "nsec" || !ok {
			return "", "", common.ErrInvalidKey
		}
		s = sk
	}
	sk, err := checkHexKey(s)
	if err != nil {
		return "", "", err
	}
	pk, err := nostr.GetPublicKey(sk)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", common.ErrInvalidKey, err)
	}
	return sk, pk, nil
}

func checkHexKey(s string) (string, error) {
	s = strings.ToLower(s)
	if len(s) != common.PubkeyHexLen {
		return "", common.ErrInvalidKey
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", common.ErrInvalidKey
	}
	return s, nil
}
