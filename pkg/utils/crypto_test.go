package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestTokenCipherRoundTrip(t *testing.T) {
	c, err := NewTokenCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.Encrypt("EAAB-page-token")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "EAAB-page-token")

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "EAAB-page-token", plain)
}

func TestTokenCipherRejectsBadInput(t *testing.T) {
	_, err := NewTokenCipher([]byte("short"))
	assert.Error(t, err)

	c, err := NewTokenCipher(testKey)
	require.NoError(t, err)

	_, err = c.Decrypt("!!!not-base64")
	assert.Error(t, err)

	_, err = c.Decrypt("AAAA")
	assert.ErrorIs(t, err, ErrCiphertextTooShort)

	other, err := NewTokenCipher([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)
	sealed, err := other.Encrypt("secret")
	require.NoError(t, err)
	_, err = c.Decrypt(sealed)
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("signing-secret", "42", 7, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("signing-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, int64(7), claims.WorkspaceID)

	_, err = ValidateToken("other-secret", token)
	assert.Error(t, err)
}
