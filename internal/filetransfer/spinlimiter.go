package filetransfer

import (
	"context"

	"golang.org/x/time/rate"
)

// spinLimiter paces a hot loop that has nothing productive to do (an empty
// send buffer, an Enqueue waiting on a full inflight window) instead of busy-spinning
// or reaching for an arbitrary time.Sleep. Grounded on
// github.com/geph-official/geph2's libs/cwl.CopyWithLimit, which uses the
// same golang.org/x/time/rate.Limiter to pace a hot copy loop.
type spinLimiter struct {
	limiter *rate.Limiter
}

// newSpinLimiter allows up to 200 unproductive spins per second with a
// small burst, enough to notice newly-enqueued work quickly without
// pegging a CPU core while idle.
func newSpinLimiter() *spinLimiter {
	return &spinLimiter{limiter: rate.NewLimiter(rate.Limit(200), 1)}
}

func (s *spinLimiter) wait() {
	_ = s.limiter.Wait(context.Background())
}
