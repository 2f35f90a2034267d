package cryptox

import (
	"crypto/cipher"
	"fmt"

	"github.com/Barnamoyy/fileshare/internal/common"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeyWrapper seals per-object data keys with a process-wide master key
// before they are persisted beside object metadata. The metadata store
// therefore never holds a plaintext data key.
type KeyWrapper struct {
	aead cipher.AEAD
}

// NewKeyWrapper builds a wrapper from a 32-byte master key
// (XChaCha20-Poly1305).
func NewKeyWrapper(masterKey []byte) (*KeyWrapper, error) {
	aead, err := chacha20poly1305.NewX(masterKey)
	if err != nil {
		return nil, fmt.Errorf("master key error: %w", err)
	}
	return &KeyWrapper{aead: aead}, nil
}

// WrapKey seals key under the master key. The random nonce is prepended to
// the sealed output so the result is a single opaque blob.
func (w *KeyWrapper) WrapKey(key []byte) ([]byte, error) {
	nonce, err := common.GenerateRandByteArray(w.aead.NonceSize())
	if err != nil {
		return nil, err
	}
	return w.aead.Seal(nonce, nonce, key, nil), nil
}

// UnwrapKey opens a blob produced by WrapKey. Returns ErrDecryptFailed when
// the blob is truncated or was sealed under a different master key.
func (w *KeyWrapper) UnwrapKey(wrapped []byte) ([]byte, error) {
	ns := w.aead.NonceSize()
	if len(wrapped) < ns {
		return nil, ErrDecryptFailed
	}
	key, err := w.aead.Open(nil, wrapped[:ns], wrapped[ns:], nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return key, nil
}
