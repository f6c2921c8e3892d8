// Package crypto provides AES-256-GCM encryption for token records kept in the store.
//
// Each call to Encrypt uses a fresh random nonce, so encrypting the same
// plaintext twice yields different ciphertexts. GCM authenticates the data,
// so a tampered or truncated value fails to decrypt rather than returning garbage.
//
//	enc, err := crypto.NewTokenEncryptor(os.Getenv("TOKEN_ENCRYPTION_KEY"))
//	if err != nil {
//		return err
//	}
//	sealed, err := enc.Encrypt(refreshToken)
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"

	"album-grid/internal/common/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	keyLength        = 32
	pbkdf2Iterations = 10000
)

// TokenEncryptor seals and opens strings with a key derived from a passphrase.
// It is safe for concurrent use.
type TokenEncryptor struct {
	aead cipher.AEAD
}

// NewTokenEncryptor derives a 32-byte key from passphrase with PBKDF2.
// The salt is static so that every instance sharing a passphrase can read
// records written by the others.
func NewTokenEncryptor(passphrase string) (*TokenEncryptor, error) {
	if passphrase == "" {
		return nil, errors.ValidationError("encryption key cannot be empty")
	}

	salt := []byte("album-grid-token-salt")
	key := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.InternalError("failed to create cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.InternalError("failed to create GCM", err)
	}

	return &TokenEncryptor{aead: gcm}, nil
}

// Encrypt returns base64(nonce || ciphertext). Empty input stays empty.
func (e *TokenEncryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.InternalError("failed to create nonce", err)
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (e *TokenEncryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.InternalError("failed to decode ciphertext", err)
	}

	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.ValidationError("ciphertext too short")
	}

	plaintext, err := e.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", errors.InternalError("failed to decrypt", err)
	}
	return string(plaintext), nil
}

// EncryptJSON marshals v and encrypts the result.
func (e *TokenEncryptor) EncryptJSON(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", errors.InternalError("failed to marshal JSON", err)
	}
	return e.Encrypt(string(raw))
}

// DecryptJSON decrypts ciphertext and unmarshals it into v.
func (e *TokenEncryptor) DecryptJSON(ciphertext string, v interface{}) error {
	plaintext, err := e.Decrypt(ciphertext)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(plaintext), v); err != nil {
		return errors.InternalError("failed to unmarshal JSON", err)
	}
	return nil
}
