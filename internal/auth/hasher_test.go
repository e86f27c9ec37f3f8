package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	a, err := h.Hash("pw123456")
	require.NoError(t, err)
	b, err := h.Hash("pw123456")
	require.NoError(t, err)

	assert.NotEqual(t, "pw123456", a)
	assert.NotEqual(t, a, b, "each hash carries its own salt")
	assert.True(t, h.Verify("pw123456", a))
	assert.True(t, h.Verify("pw123456", b))
	assert.False(t, h.Verify("pw1234567", a))
	assert.False(t, h.Verify("pw123456", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("pw123456", ""))
}

func TestNewBcryptHasherClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).Cost)
	assert.Equal(t, bcrypt.MaxCost, NewBcryptHasher(99).Cost)
	assert.Equal(t, 12, NewBcryptHasher(12).Cost)
}
