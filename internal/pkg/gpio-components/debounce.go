package gpio

import (
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
)

// debouncer filters raw transitions of one line down to the configured edge,
// drops those within the debounce window of the last accepted event and
// hands the rest to the handler one at a time.
type debouncer struct {
	pin     int
	edge    Edge
	window  time.Duration
	clock   clock.Clock
	handler EventHandler

	mu    sync.Mutex
	last  time.Time
	seen  bool
	seqno uint32
}

func newDebouncer(pin int, cfg InputConfig, clk clock.Clock) *debouncer {
	return &debouncer{
		pin:     pin,
		edge:    cfg.Edge,
		window:  cfg.Debounce,
		clock:   clk,
		handler: cfg.Handler,
	}
}

// see is called by a backend for every transition it observes
func (d *debouncer) see(transition Edge) {
	if !d.edge.Matches(transition) {
		return
	}
	now := d.clock.Now()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen && now.Sub(d.last) < d.window {
		return
	}
	d.seen = true
	d.last = now
	d.seqno++
	if d.handler == nil {
		return
	}
	d.handler(Event{
		Pin:   d.pin,
		Edge:  transition,
		Time:  now,
		Seqno: d.seqno,
	})
}
