// AngelaMos | 2026
// region_test.go

package geofence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegplug/pegplug-backend/internal/core"
)

func TestParseRegionKey(t *testing.T) {
	t.Run("simple", func(t *testing.T) {
		key, err := ParseRegionKey("merchant-1_location-1")
		require.NoError(t, err)
		assert.Equal(t, "merchant-1", key.MerchantID)
		assert.Equal(t, "location-1", key.LocationID)
	})

	t.Run("splits on first underscore only", func(t *testing.T) {
		key, err := ParseRegionKey("m1_loc_with_underscores")
		require.NoError(t, err)
		assert.Equal(t, "m1", key.MerchantID)
		assert.Equal(t, "loc_with_underscores", key.LocationID)
	})

	t.Run("round trip", func(t *testing.T) {
		key, err := NewRegionKey("merchant-1", "location-1")
		require.NoError(t, err)

		parsed, err := ParseRegionKey(key.String())
		require.NoError(t, err)
		assert.Equal(t, key, parsed)
	})

	for _, bad := range []string{"", "noseparator", "_loc", "m1_"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseRegionKey(bad)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}
}

func TestNewRegionKeyRejectsUnderscoreMerchant(t *testing.T) {
	_, err := NewRegionKey("has_underscore", "location-1")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
