// AngelaMos | 2026
// entity_test.go

package merchant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDealIsActiveAt(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	cases := []struct {
		name string
		deal Deal
		want bool
	}{
		{"active no bounds", Deal{Active: true}, true},
		{"inactive flag wins", Deal{Active: false}, false},
		{
			"inside window",
			Deal{Active: true, StartDate: &yesterday, EndDate: &tomorrow},
			true,
		},
		{
			"not started yet",
			Deal{Active: true, StartDate: &tomorrow},
			false,
		},
		{
			"already ended",
			Deal{Active: true, EndDate: &yesterday},
			false,
		},
		{
			"open ended start only",
			Deal{Active: true, StartDate: &yesterday},
			true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.deal.IsActiveAt(now))
		})
	}
}
