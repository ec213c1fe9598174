// AngelaMos | 2026
// security_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifySecret(t *testing.T) {
	hash, err := HashSecret("sk_live_abc123")
	require.NoError(t, err)
	assert.NotContains(t, hash, "sk_live_abc123")

	ok, err := VerifySecret("sk_live_abc123", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifySecret("sk_live_wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashSecretSalted(t *testing.T) {
	first, err := HashSecret("same-secret")
	require.NoError(t, err)
	second, err := HashSecret("same-secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifySecretTimingSafe(t *testing.T) {
	hash, err := HashSecret("real-key")
	require.NoError(t, err)

	t.Run("match", func(t *testing.T) {
		ok, err := VerifySecretTimingSafe("real-key", &hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("nil hash still burns a comparison", func(t *testing.T) {
		ok, err := VerifySecretTimingSafe("real-key", nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGenerateAPIKey(t *testing.T) {
	first, err := GenerateAPIKey()
	require.NoError(t, err)
	second, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestTokenHashRoundTrip(t *testing.T) {
	token, err := GenerateSecureToken(32)
	require.NoError(t, err)

	hash := HashToken(token)
	assert.True(t, CompareTokenHash(token, hash))
	assert.False(t, CompareTokenHash("tampered", hash))
}
