package timing

import "time"

// TickerLimiter uses time.Ticker for simple, consistent tick timing.
// Less accurate than AdaptiveLimiter but simpler and good enough for most cases.
type TickerLimiter struct {
	ticker *time.Ticker
	tick   time.Duration
}

func NewTickerLimiter(tick time.Duration) *TickerLimiter {
	return &TickerLimiter{
		ticker: time.NewTicker(tick),
		tick:   tick,
	}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ticker.C
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(t.tick)
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
