package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret")

	token, err := m.Generate("tenant-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	tenantID, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "tenant-123", tenantID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a").Generate("tenant-123")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b").Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewTokenManager("secret").Validate("not.a.token")
	assert.Error(t, err)
}
