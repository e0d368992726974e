package common

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandByteArray(t *testing.T) {
	a := GenerateRandByteArray(32)
	b := GenerateRandByteArray(32)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Empty(t, GenerateRandByteArray(0))
}

func TestMakeRandHexString(t *testing.T) {
	s, err := MakeRandHexString(32)
	require.NoError(t, err)
	assert.Len(t, s, 64)
	_, err = hex.DecodeString(s)
	require.NoError(t, err)

	s, err = MakeRandHexString(0)
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestWipeByteArray(t *testing.T) {
	b := []byte("secret key")
	WipeByteArray(b)
	assert.Equal(t, make([]byte, len(b)), b)

	WipeByteArray(nil)
}

func TestSentinelHierarchy(t *testing.T) {
	for _, err := range []error{ErrInvalidKey, ErrInvalidURL, ErrEmptyField} {
		assert.True(t, errors.Is(err, ErrValidation), err.Error())
	}
	for _, err := range []error{ErrDuplicateContact, ErrDuplicateRelay} {
		assert.True(t, errors.Is(err, ErrDuplicate), err.Error())
	}
	assert.False(t, errors.Is(ErrDuplicate, ErrValidation))
	assert.False(t, errors.Is(ErrNotLoggedIn, ErrValidation))
}
