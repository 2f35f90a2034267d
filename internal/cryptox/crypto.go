// Package cryptox implements the per-object encryption used by the store:
// AES-256-GCM sealing of whole-object buffers with a fresh key and nonce per
// object. The nonce is carried in object metadata only and is never embedded
// in the ciphertext stream.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/Barnamoyy/fileshare/internal/common"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// ErrDecryptFailed is returned when a ciphertext fails authenticated
// decryption: truncated or corrupted data, or mismatched key/nonce.
// GCM cannot tell corruption from tampering apart; both surface here.
var ErrDecryptFailed = errors.New("decryption failed")

// GenerateKey returns a fresh random AES-256 key. Keys are unique per
// object and never reused.
func GenerateKey() ([]byte, error) {
	return common.GenerateRandByteArray(KeySize)
}

// Encrypt seals plaintext with AES-256-GCM under key, using a newly
// generated random nonce. The nonce is returned separately so the caller
// can persist it as metadata.
func Encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("cipher init error: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("gcm init error: %w", err)
	}

	nonce, err = common.GenerateRandByteArray(aesgcm.NonceSize())
	if err != nil {
		return nil, nil, err
	}

	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// Decrypt opens a ciphertext produced by Encrypt. It returns ErrDecryptFailed
// when authentication fails; partial plaintext is never returned.
func Decrypt(ciphertext, nonce, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init error: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init error: %w", err)
	}

	if len(nonce) != aesgcm.NonceSize() {
		return nil, ErrDecryptFailed
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}

	return plaintext, nil
}
