package drop

import "time"

// Clock supplies "now" for sale-window evaluation. The engine never reads
// wall time directly: the clock is injected by the surrounding
// environment, which keeps window logic deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by wall time.
func SystemClock() Clock { return systemClock{} }
