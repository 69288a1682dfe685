// Package encryption defines the encryption service contract. Encryption
// services are used whenever sensitive data has to be transferred between
// actors and the connection cannot be considered secure.
package encryption

import (
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/xerrors"

	"github.com/ipynbsrv/coco/internal/backend"
)

var ErrEncryption = errors.New("encryption service error")

const KeySize = 32

// Service implementations must treat the options bag the same way backends
// do: validate what they consume, ignore the rest.
type Service interface {
	Encrypt(plaintext []byte, key []byte, opts ...backend.Options) ([]byte, error)
	Decrypt(ciphertext []byte, key []byte, opts ...backend.Options) ([]byte, error)
}

type secretboxService struct{}

var _ Service = secretboxService{}

func NewSecretbox() Service {
	return secretboxService{}
}

func (secretboxService) Encrypt(plaintext []byte, key []byte, opts ...backend.Options) ([]byte, error) {
	secretKey, err := makeKey(key)
	if err != nil {
		return nil, err
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, xerrors.Errorf("%w: Failed to generate a nonce: %s", ErrEncryption, err)
	}

	// The nonce is prepended to the box, so decryption needs only the key.
	return secretbox.Seal(nonce[:], plaintext, &nonce, secretKey), nil
}

func (secretboxService) Decrypt(ciphertext []byte, key []byte, opts ...backend.Options) ([]byte, error) {
	secretKey, err := makeKey(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < 24 {
		return nil, xerrors.Errorf("%w: The ciphertext is truncated", ErrEncryption)
	}

	var nonce [24]byte
	copy(nonce[:], ciphertext[:24])

	plaintext, ok := secretbox.Open(nil, ciphertext[24:], &nonce, secretKey)
	if !ok {
		return nil, xerrors.Errorf("%w: Failed to decrypt the ciphertext", ErrEncryption)
	}

	return plaintext, nil
}

func makeKey(key []byte) (*[KeySize]byte, error) {
	if len(key) != KeySize {
		return nil, xerrors.Errorf("%w: The key must be %d bytes long, but got %d", ErrEncryption, KeySize, len(key))
	}

	var secretKey [KeySize]byte
	copy(secretKey[:], key)
	return &secretKey, nil
}
