package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHasher(t *testing.T) {
	h := PasswordHasher{Iterations: 1000}

	hash, salt, err := h.Hash("password123")
	require.NoError(t, err)
	assert.Len(t, salt, 32)
	assert.Len(t, hash, 128)

	assert.True(t, h.Verify("password123", hash, salt))
	assert.False(t, h.Verify("password124", hash, salt))
	assert.False(t, h.Verify("password123", hash, ""))
	assert.False(t, PasswordHasher{Iterations: 1001}.Verify("password123", hash, salt))

	hash2, salt2, err := h.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, salt, salt2)
	assert.NotEqual(t, hash, hash2)
}
