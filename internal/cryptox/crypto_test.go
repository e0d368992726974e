package cryptox

import (
	"bytes"
	"testing"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")

	k1, err := DeriveKey(secret, []byte("owner-a"), "info")
	require.NoError(t, err)
	k2, err := DeriveKey(secret, []byte("owner-a"), "info")
	require.NoError(t, err)
	require.Equal(t, k1, k2)
	require.Len(t, k1, KeySize)
}

func TestDeriveKey_SaltAndInfoSeparateKeys(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")

	a, _ := DeriveKey(secret, []byte("salt-1"), "info")
	b, _ := DeriveKey(secret, []byte("salt-2"), "info")
	c, _ := DeriveKey(secret, []byte("salt-1"), "other")

	if bytes.Equal(a, b) || bytes.Equal(a, c) {
		t.Fatalf("expected distinct keys for distinct salt/info")
	}
}

func TestGCM_RoundTrip(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	sealed, err := SealGCM(key, []byte("hello"))
	require.NoError(t, err)

	plain, err := OpenGCM(key, sealed)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), plain)
}

func TestGCM_NonceIsRandom(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	a, _ := SealGCM(key, []byte("same"))
	b, _ := SealGCM(key, []byte("same"))
	require.NotEqual(t, a, b)
}

func TestGCM_WrongKeyAndShortInput(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	sealed, err := SealGCM(key, []byte("hello"))
	require.NoError(t, err)

	_, err = OpenGCM(common.GenerateRandByteArray(KeySize), sealed)
	require.Error(t, err)

	_, err = OpenGCM(key, []byte{1, 2})
	require.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestXChaCha_RoundTripAndTamper(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	sealed, err := SealXChaCha(key, []byte("payload"))
	require.NoError(t, err)

	plain, err := OpenXChaCha(key, sealed)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), plain)

	sealed[len(sealed)-1] ^= 0xff
	_, err = OpenXChaCha(key, sealed)
	require.Error(t, err)
}

func TestXChaCha_RejectsBadKeyLength(t *testing.T) {
	_, err := SealXChaCha([]byte("short"), []byte("x"))
	require.Error(t, err)
}

func TestJSON_RoundTrip(t *testing.T) {
	type item struct {
		URL  string `json:"url"`
		Note string `json:"note"`
	}
	key := common.GenerateRandByteArray(KeySize)

	sealed, err := SealJSON([]item{{URL: "https://a", Note: "n"}}, key)
	require.NoError(t, err)

	var out []item
	require.NoError(t, OpenJSON(sealed, key, &out))
	require.Equal(t, []item{{URL: "https://a", Note: "n"}}, out)
}
