package nostrx

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/stretchr/testify/require"
)

// Vectors from NIP-19.
const (
	vecHex  = "7e7e9c42a91bfef19fa929e5fda1b72e0ebc1a4c1141673e2794234d86addf4e"
	vecNpub = "npub10elfcs4fr0l0r8af98jlmgdh9c8tcxjvz9qkw038js35mp4dma8qzvjptg"
	vecSk   = "67dea2ed018072d675f5415ecfaed7d2597555e202d85b3d65ea4e58d2d92ffa"
	vecNsec = "nsec1vl029mgpspedva04g90vltkh6fvh240zqtv9k0t9af8935ke9laqsnlfe5"
)

func TestNormalizePubkey(t *testing.T) {
	cases := []string{
		vecHex,
		strings.ToUpper(vecHex),
		"  " + vecHex + "\n",
		vecNpub,
		"nostr:" + vecNpub,
	}
	for _, in := range cases {
		got, err := NormalizePubkey(in)
		require.NoError(t, err, in)
		require.Equal(t, vecHex, got)
	}
}

func TestNormalizePubkey_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"abc",
		strings.Repeat("z", 64),
		"npub1invalid",
		vecNsec,
		vecHex + "00",
	} {
		_, err := NormalizePubkey(in)
		require.ErrorIs(t, err, common.ErrInvalidKey, in)
		require.ErrorIs(t, err, common.ErrValidation, in)
	}
}

func TestNPub_RoundTrip(t *testing.T) {
	npub, err := NPub(vecHex)
	require.NoError(t, err)
	require.Equal(t, vecNpub, npub)

	back, err := NormalizePubkey(npub)
	require.NoError(t, err)
	require.Equal(t, vecHex, back)

	_, err = NPub("nope")
	require.ErrorIs(t, err, common.ErrInvalidKey)
}

func TestParseSecret(t *testing.T) {
	for _, in := range []string{vecSk, vecNsec} {
		sk, pk, err := ParseSecret(in)
		require.NoError(t, err)
		require.Equal(t, vecSk, sk)
		require.Len(t, pk, 64)
	}

	_, _, err := ParseSecret("nsec1bad")
	require.ErrorIs(t, err, common.ErrInvalidKey)
}
