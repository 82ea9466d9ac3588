package auth

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashKey_RoundTrip(t *testing.T) {
	hash, err := HashKey("s3cret")
	require.NoError(t, err)

	assert.True(t, VerifyKey(hash, "s3cret"))
	assert.False(t, VerifyKey(hash, "wrong"))
	assert.False(t, VerifyKey(hash, ""))
	assert.False(t, VerifyKey("", "s3cret"))
}

func TestHashKey_Empty(t *testing.T) {
	_, err := HashKey("")
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("ops"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := NewService(string(hash), zerolog.Nop())

	assert.True(t, svc.Enabled())
	assert.NoError(t, svc.Authenticate(context.Background(), "ops"))
	assert.ErrorIs(t, svc.Authenticate(context.Background(), "nope"), ErrUnauthorized)
}

func TestAuthenticate_Disabled(t *testing.T) {
	svc := NewService("  ", zerolog.Nop())

	assert.False(t, svc.Enabled())
	assert.ErrorIs(t, svc.Authenticate(context.Background(), "anything"), ErrDisabled)
}
