// AngelaMos | 2026
// spin.go

package reward

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/pegplug/pegplug-backend/internal/merchant"
	"github.com/pegplug/pegplug-backend/internal/user"
)

var ErrNoDealsAvailable = errors.New("no deals available")

type Outcome struct {
	Won  bool
	Deal *merchant.Deal
}

// Engine decides win/lose for a single spin and, on a win, which deal
// from the candidate pool is awarded. The draw is a uniform value in
// [0,1) compared against the tier win probability; the awarded deal is
// picked uniformly. Reel symbols and any "matching symbols" bonus are
// client-side presentation and play no part here.
type Engine struct {
	policy Policy

	mu  sync.Mutex
	rng *rand.Rand
}

func NewEngine(policy Policy, src rand.Source) *Engine {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	return &Engine{
		policy: policy,
		rng:    rand.New(src),
	}
}

func (e *Engine) Spin(
	u *user.User,
	candidates []merchant.Deal,
) (Outcome, error) {
	if len(candidates) == 0 {
		return Outcome{}, ErrNoDealsAvailable
	}

	if !CanSpin(u) {
		return Outcome{}, fmt.Errorf("spin: %w", user.ErrInsufficientSpins)
	}

	e.mu.Lock()
	draw := e.rng.Float64()
	pick := e.rng.IntN(len(candidates))
	e.mu.Unlock()

	if draw >= e.policy.WinProbability(u.Tier) {
		return Outcome{Won: false}, nil
	}

	awarded := candidates[pick]
	return Outcome{Won: true, Deal: &awarded}, nil
}
