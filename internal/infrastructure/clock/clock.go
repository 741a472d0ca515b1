// Package clock abstracts wall-clock time so punch timestamps, day windows
// and the status refresh ticker can be driven deterministically in tests.
package clock

import "time"

// Clock provides the current time and tickers
type Clock interface {
	// Now returns the current time
	Now() time.Time

	// NewTicker returns a ticker firing every d. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker

	// After returns a channel that receives once d has elapsed
	After(d time.Duration) <-chan time.Time
}

// Ticker delivers ticks on C until stopped
type Ticker struct {
	C <-chan time.Time

	stop func()
}

// Stop turns the ticker off; no more ticks are delivered afterwards
func (t *Ticker) Stop() { t.stop() }

// Real returns a Clock backed by the time package
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) NewTicker(d time.Duration) *Ticker {
	t := time.NewTicker(d)
	return &Ticker{C: t.C, stop: t.Stop}
}
