// Package integrity defines the integrity service contract, used whenever the
// integrity of a resource (message, status etc.) needs to be ensured.
package integrity

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"

	"golang.org/x/xerrors"

	"github.com/ipynbsrv/coco/internal/backend"
)

var (
	ErrIntegrity           = errors.New("integrity service error")
	ErrIntegrityValidation = errors.New("integrity validation failed")
)

type Service interface {
	Sign(text []byte, key []byte, opts ...backend.Options) ([]byte, error)

	// Verify returns ErrIntegrityValidation when the signature doesn't match
	// the text.
	Verify(text []byte, signature []byte, key []byte, opts ...backend.Options) error
}

type hmacService struct{}

var _ Service = hmacService{}

func NewHMAC() Service {
	return hmacService{}
}

func (hmacService) Sign(text []byte, key []byte, opts ...backend.Options) ([]byte, error) {
	if len(key) == 0 {
		return nil, xerrors.Errorf("%w: An empty key", ErrIntegrity)
	}

	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(text)
	return mac.Sum(nil), nil
}

func (s hmacService) Verify(text []byte, signature []byte, key []byte, opts ...backend.Options) error {
	expected, err := s.Sign(text, key, opts...)
	if err != nil {
		return err
	}

	if !hmac.Equal(expected, signature) {
		return xerrors.Errorf("The signature doesn't match the text: %w", ErrIntegrityValidation)
	}

	return nil
}
