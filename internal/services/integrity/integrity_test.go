package integrity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHMAC(t *testing.T) {
	service := NewHMAC()
	key := []byte("signing key")
	text := []byte("container status report")

	signature, err := service.Sign(text, key)
	require.NoError(t, err)
	require.NoError(t, service.Verify(text, signature, key))
}

func TestHMACValidationFailures(t *testing.T) {
	service := NewHMAC()
	key := []byte("signing key")
	text := []byte("container status report")

	signature, err := service.Sign(text, key)
	require.NoError(t, err)

	require.ErrorIs(t, service.Verify([]byte("tampered report"), signature, key), ErrIntegrityValidation)
	require.ErrorIs(t, service.Verify(text, signature, []byte("other key")), ErrIntegrityValidation)

	tampered := append([]byte{}, signature...)
	tampered[0] ^= 0xff
	require.ErrorIs(t, service.Verify(text, tampered, key), ErrIntegrityValidation)
}

func TestHMACEmptyKey(t *testing.T) {
	service := NewHMAC()

	_, err := service.Sign([]byte("text"), nil)
	require.ErrorIs(t, err, ErrIntegrity)
	require.NotErrorIs(t, err, ErrIntegrityValidation)
}
