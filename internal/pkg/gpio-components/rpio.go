package gpio

import (
	"fmt"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/stianeikeland/go-rpio/v4"
)

// DefaultEdgePollInterval is how often polled backends check for a latched or new edge
const DefaultEdgePollInterval = 5 * time.Millisecond

// RPIO is a Platform that drives the BCM283x registers through /dev/gpiomem.
// The SoC latches edges; each line polls its latch on a goroutine of its own.
type RPIO struct {
	clock    clock.Clock
	interval time.Duration
	log      *logrus.Entry
	pins     lineSet
}

var _ Platform = &RPIO{}

// NewRPIO maps the GPIO registers. Only one RPIO should be open per process.
func NewRPIO(clk clock.Clock) (*RPIO, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("error mapping gpio memory: %w", err)
	}
	return &RPIO{
		clock:    clk,
		interval: DefaultEdgePollInterval,
		log:      logrus.WithField("platform", "rpio"),
	}, nil
}

// RequestInput implements Platform
func (r *RPIO) RequestInput(pin int, cfg InputConfig) (Line, error) {
	if pin < 0 || pin > 53 {
		return nil, fmt.Errorf("gpio: invalid pin %d", pin)
	}
	if err := r.pins.claim(pin); err != nil {
		return nil, err
	}

	p := rpio.Pin(pin)
	p.Input()
	p.Pull(rpioPull(cfg.Pull))
	p.Detect(rpioEdge(cfg.Edge))

	l := &rpioLine{
		platform:  r,
		pin:       p,
		debouncer: newDebouncer(pin, cfg, r.clock),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	r.pins.set(pin, l)
	go l.watch(r.clock.NewTicker(r.interval))
	r.log.WithFields(logrus.Fields{"pin": pin, "edge": cfg.Edge}).Debug("Watching pin")
	return l, nil
}

// Close implements Platform
func (r *RPIO) Close() error {
	var result error
	if err := r.pins.closeAll(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := rpio.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

func rpioPull(p Pull) rpio.Pull {
	switch p {
	case PullUp:
		return rpio.PullUp
	case PullDown:
		return rpio.PullDown
	}
	return rpio.PullOff
}

func rpioEdge(e Edge) rpio.Edge {
	switch e {
	case RisingEdge:
		return rpio.RiseEdge
	case FallingEdge:
		return rpio.FallEdge
	case BothEdges:
		return rpio.AnyEdge
	}
	return rpio.NoEdge
}

type rpioLine struct {
	platform  *RPIO
	pin       rpio.Pin
	debouncer *debouncer

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func (l *rpioLine) watch(ticker clock.Ticker) {
	defer close(l.stopped)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C():
			if !l.pin.EdgeDetected() {
				continue
			}
			level := High
			if l.pin.Read() == rpio.Low {
				level = Low
			}
			l.debouncer.see(detectedTransition(l.debouncer.edge, level))
		}
	}
}

func (l *rpioLine) Pin() int {
	return int(l.pin)
}

func (l *rpioLine) Level() (Level, error) {
	select {
	case <-l.done:
		return Low, ErrClosed
	default:
	}
	if l.pin.Read() == rpio.Low {
		return Low, nil
	}
	return High, nil
}

// Close stops polling and disables edge detection. It must not be called from the event handler.
func (l *rpioLine) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
		<-l.stopped
		l.pin.Detect(rpio.NoEdge)
		l.platform.pins.release(int(l.pin))
		l.platform.log.WithField("pin", int(l.pin)).Debug("Stopped watching pin")
	})
	return nil
}
