package securetoken

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"tubedigest/domain/model"
	"tubedigest/infrastructure/logger"

	"golang.org/x/crypto/argon2"
)

const keySize = 32

// Cipher seals and opens OAuth tokens with AES-256-GCM. Each Encrypt call
// draws a fresh 12-byte nonce; the stored layout is base64(nonce || ciphertext+tag).
type Cipher struct {
	aead cipher.AEAD
}

// New builds a Cipher from a hex-encoded 32-byte key. An empty key derives a
// deterministic development-only key and logs a warning; never rely on that
// path in production.
func New(hexKey string) (*Cipher, error) {
	if hexKey == "" {
		logger.GetLogger().Warn("TOKEN_ENC_KEY not set; using derived development key. Do not use in production.")
		return NewWithKey(deriveDevKey())
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode token encryption key: %w", err)
	}
	return NewWithKey(key)
}

// NewWithKey builds a Cipher from a raw 32-byte key.
func NewWithKey(key []byte) (*Cipher, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("token encryption key must be %d bytes, got %d", keySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. A ciphertext whose tag does not
// verify (tampering or wrong key) returns model.ErrDecryptionFailed.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrDecryptionFailed, err)
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns {
		return "", fmt.Errorf("%w: ciphertext shorter than nonce", model.ErrDecryptionFailed)
	}
	nonce, sealed := raw[:ns], raw[ns:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}

// deriveDevKey produces the fixed development key. Same inputs, same key, so
// local restarts keep decrypting local records.
func deriveDevKey() []byte {
	return argon2.IDKey([]byte("tubedigest-dev-credential-key"), []byte("tubedigest.local"), 1, 64*1024, 4, keySize)
}
