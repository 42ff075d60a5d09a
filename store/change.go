package store

import (
	"time"

	"github.com/on-the-ground/loadable_go/signal"
	"github.com/rickb777/date/v2/timespan"
)

type TimeSpan = timespan.TimeSpan

const epsilon = time.Millisecond

func now() TimeSpan {
	now := time.Now()
	return timespan.BetweenTimes(now.Add(-1*epsilon), now.Add(epsilon))
}

// Change describes one signal folded by the store.
type Change struct {
	Family  string
	Type    signal.Type
	Kind    signal.Kind
	Applied bool // false when a stale guard discarded the signal
	At      TimeSpan
}
