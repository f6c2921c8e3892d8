package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"album-grid/internal/common/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-encryption-key"

func TestNewTokenEncryptor(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantError bool
	}{
		{"valid key", testKey, false},
		{"short key", "k", false},
		{"long key", strings.Repeat("a", 128), false},
		{"empty key", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewTokenEncryptor(tt.key)
			if tt.wantError {
				assert.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
				assert.Nil(t, enc)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, enc)
		})
	}
}

func TestTokenEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewTokenEncryptor(testKey)
	require.NoError(t, err)

	for _, plaintext := range []string{"AQB-refresh-token", "ünïcödé", strings.Repeat("x", 4096)} {
		sealed, err := enc.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, sealed)

		opened, err := enc.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, plaintext, opened)
	}
}

func TestTokenEncryptor_EmptyPassesThrough(t *testing.T) {
	enc, err := NewTokenEncryptor(testKey)
	require.NoError(t, err)

	sealed, err := enc.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	opened, err := enc.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, opened)
}

func TestTokenEncryptor_NonceIsRandom(t *testing.T) {
	enc, err := NewTokenEncryptor(testKey)
	require.NoError(t, err)

	a, err := enc.Encrypt("same")
	require.NoError(t, err)
	b, err := enc.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenEncryptor_SharedPassphrase(t *testing.T) {
	writer, err := NewTokenEncryptor(testKey)
	require.NoError(t, err)
	reader, err := NewTokenEncryptor(testKey)
	require.NoError(t, err)
	other, err := NewTokenEncryptor("another-key")
	require.NoError(t, err)

	sealed, err := writer.Encrypt("token")
	require.NoError(t, err)

	opened, err := reader.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "token", opened)

	_, err = other.Decrypt(sealed)
	assert.Error(t, err)
}

func TestTokenEncryptor_DecryptInvalid(t *testing.T) {
	enc, err := NewTokenEncryptor(testKey)
	require.NoError(t, err)

	tests := []struct {
		name       string
		ciphertext string
	}{
		{"invalid base64", "not-base64!@#$"},
		{"too short", base64.StdEncoding.EncodeToString([]byte("abc"))},
		{"zeroed payload", base64.StdEncoding.EncodeToString(make([]byte, 50))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.Decrypt(tt.ciphertext)
			assert.Error(t, err)
		})
	}
}

func TestTokenEncryptor_JSON(t *testing.T) {
	enc, err := NewTokenEncryptor(testKey)
	require.NoError(t, err)

	type record struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	in := record{AccessToken: "abc", ExpiresAt: 1700000000000}

	sealed, err := enc.EncryptJSON(in)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "abc")

	var out record
	require.NoError(t, enc.DecryptJSON(sealed, &out))
	assert.Equal(t, in, out)

	_, err = enc.EncryptJSON(make(chan int))
	assert.Error(t, err)
}

func BenchmarkTokenEncryptor_Encrypt(b *testing.B) {
	enc, err := NewTokenEncryptor(testKey)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < b.N; i++ {
		if _, err := enc.Encrypt("benchmark-refresh-token"); err != nil {
			b.Fatal(err)
		}
	}
}
