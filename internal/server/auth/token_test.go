package auth

import (
	"testing"
	"time"

	"github.com/Barnamoyy/fileshare/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepToken_RoundTrip(t *testing.T) {
	secret := []byte("sweep-secret")

	token, err := GenerateSweepToken(secret, time.Minute)
	require.NoError(t, err)

	assert.NoError(t, ValidateSweepToken(token, secret))
}

func TestSweepToken_WrongSecret(t *testing.T) {
	token, err := GenerateSweepToken([]byte("secret-a"), time.Minute)
	require.NoError(t, err)

	err = ValidateSweepToken(token, []byte("secret-b"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestSweepToken_Expired(t *testing.T) {
	secret := []byte("sweep-secret")

	token, err := GenerateSweepToken(secret, -time.Minute)
	require.NoError(t, err)

	err = ValidateSweepToken(token, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestSweepToken_Garbage(t *testing.T) {
	err := ValidateSweepToken("not-a-token", []byte("sweep-secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
