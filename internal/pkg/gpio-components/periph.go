package gpio

import (
	"fmt"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/sirupsen/logrus"
	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// edgeWaitTimeout bounds each WaitForEdge so a closing line notices promptly
const edgeWaitTimeout = 100 * time.Millisecond

// Periph is a Platform using the periph.io host drivers
type Periph struct {
	clock clock.Clock
	log   *logrus.Entry
	pins  lineSet
}

var _ Platform = &Periph{}

// NewPeriph initialises the periph.io host drivers
func NewPeriph(clk clock.Clock) (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	return &Periph{
		clock: clk,
		log:   logrus.WithField("platform", "periph"),
	}, nil
}

// RequestInput implements Platform. pin is a BCM number.
func (p *Periph) RequestInput(pin int, cfg InputConfig) (Line, error) {
	name := fmt.Sprintf("GPIO%d", pin)
	pinIO := gpioreg.ByName(name)
	if pinIO == nil {
		return nil, fmt.Errorf("pin %d (%s) not found in hardware", pin, name)
	}
	if err := p.pins.claim(pin); err != nil {
		return nil, err
	}
	if err := pinIO.In(periphPull(cfg.Pull), periphEdge(cfg.Edge)); err != nil {
		p.pins.release(pin)
		return nil, fmt.Errorf("set %s to input: %w", name, err)
	}

	l := &periphLine{
		platform:  p,
		io:        pinIO,
		pin:       pin,
		debouncer: newDebouncer(pin, cfg, p.clock),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	p.pins.set(pin, l)
	go l.watch()
	p.log.WithFields(logrus.Fields{"pin": pin, "edge": cfg.Edge}).Debug("Watching pin")
	return l, nil
}

// Close implements Platform
func (p *Periph) Close() error {
	return p.pins.closeAll()
}

func periphPull(pull Pull) pgpio.Pull {
	switch pull {
	case PullUp:
		return pgpio.PullUp
	case PullDown:
		return pgpio.PullDown
	}
	return pgpio.Float
}

func periphEdge(e Edge) pgpio.Edge {
	switch e {
	case RisingEdge:
		return pgpio.RisingEdge
	case FallingEdge:
		return pgpio.FallingEdge
	case BothEdges:
		return pgpio.BothEdges
	}
	return pgpio.NoEdge
}

type periphLine struct {
	platform  *Periph
	io        pgpio.PinIO
	pin       int
	debouncer *debouncer

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func (l *periphLine) watch() {
	defer close(l.stopped)
	for {
		select {
		case <-l.done:
			return
		default:
		}
		if !l.io.WaitForEdge(edgeWaitTimeout) {
			continue
		}
		level := High
		if l.io.Read() == pgpio.Low {
			level = Low
		}
		l.debouncer.see(detectedTransition(l.debouncer.edge, level))
	}
}

func (l *periphLine) Pin() int {
	return l.pin
}

func (l *periphLine) Level() (Level, error) {
	select {
	case <-l.done:
		return Low, ErrClosed
	default:
	}
	if l.io.Read() == pgpio.High {
		return High, nil
	}
	return Low, nil
}

// Close stops edge detection. It must not be called from the event handler.
func (l *periphLine) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		<-l.stopped
		err = l.io.In(pgpio.PullNoChange, pgpio.NoEdge)
		l.platform.pins.release(l.pin)
		l.platform.log.WithField("pin", l.pin).Debug("Stopped watching pin")
	})
	return err
}
