// AngelaMos | 2026
// region.go

package geofence

import (
	"fmt"
	"strings"

	"github.com/pegplug/pegplug-backend/internal/core"
)

// RegionKey identifies one monitored geofence region: a merchant
// location. Internal APIs pass the struct; the legacy wire form
// "{merchantID}_{locationID}" survives only at the inbound event edge.
type RegionKey struct {
	MerchantID string
	LocationID string
}

func (k RegionKey) String() string {
	return k.MerchantID + "_" + k.LocationID
}

// NewRegionKey builds a key from explicit ids. Merchant ids carrying
// an underscore would be unparseable on the way back in, so they are
// rejected here.
func NewRegionKey(merchantID, locationID string) (RegionKey, error) {
	if merchantID == "" || locationID == "" ||
		strings.Contains(merchantID, "_") {
		return RegionKey{}, fmt.Errorf(
			"region key ids %q/%q: %w",
			merchantID, locationID, core.ErrInvalidInput,
		)
	}

	return RegionKey{
		MerchantID: merchantID,
		LocationID: locationID,
	}, nil
}

// ParseRegionKey parses the legacy composite form, splitting on the
// first underscore. Merchant ids must therefore not contain
// underscores; UUIDs never do.
func ParseRegionKey(s string) (RegionKey, error) {
	merchantID, locationID, found := strings.Cut(s, "_")
	if !found || merchantID == "" || locationID == "" {
		return RegionKey{}, fmt.Errorf(
			"parse region key %q: %w",
			s, core.ErrInvalidInput,
		)
	}

	return RegionKey{
		MerchantID: merchantID,
		LocationID: locationID,
	}, nil
}
