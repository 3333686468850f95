package gpio

import (
	"fmt"
	"sync"

	"code.cloudfoundry.org/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/warthog618/gpiod"
)

// ChipName is the GPIO character device of the Raspberry Pi header
const ChipName string = "gpiochip0"

const consumer = "pi-button"

// Chip is a Platform backed by a GPIO character device.
// Edge events come from the kernel and are delivered on the chip's watcher goroutine.
type Chip struct {
	chip  *gpiod.Chip
	clock clock.Clock
	log   *logrus.Entry
	pins  lineSet
}

var _ Platform = &Chip{}

// NewChip opens the named GPIO chip, e.g. ChipName
func NewChip(name string, clk clock.Clock) (*Chip, error) {
	chip, err := gpiod.NewChip(name, gpiod.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", name, err)
	}
	return &Chip{
		chip:  chip,
		clock: clk,
		log:   logrus.WithField("chip", name),
	}, nil
}

// RequestInput implements Platform
func (c *Chip) RequestInput(pin int, cfg InputConfig) (Line, error) {
	if err := c.pins.claim(pin); err != nil {
		return nil, err
	}

	d := newDebouncer(pin, cfg, c.clock)
	line, err := c.chip.RequestLine(pin,
		gpiod.AsInput,
		gpiodBias(cfg.Pull),
		gpiodEdge(cfg.Edge),
		gpiod.WithEventHandler(func(evt gpiod.LineEvent) {
			transition := RisingEdge
			if evt.Type == gpiod.LineEventFallingEdge {
				transition = FallingEdge
			}
			d.see(transition)
		}))
	if err != nil {
		c.pins.release(pin)
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"pin": pin, "edge": cfg.Edge}).Debug("Requested line")

	l := &chipLine{platform: c, line: line, pin: pin}
	c.pins.set(pin, l)
	return l, nil
}

// Close implements Platform
func (c *Chip) Close() error {
	var result error
	if err := c.pins.closeAll(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.chip.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

func gpiodBias(p Pull) gpiod.LineReqOption {
	switch p {
	case PullUp:
		return gpiod.WithPullUp
	case PullDown:
		return gpiod.WithPullDown
	}
	return gpiod.WithBiasDisabled
}

func gpiodEdge(e Edge) gpiod.LineReqOption {
	switch e {
	case RisingEdge:
		return gpiod.WithRisingEdge
	case FallingEdge:
		return gpiod.WithFallingEdge
	case BothEdges:
		return gpiod.WithBothEdges
	}
	return gpiod.AsInput
}

// requestedLine is the part of *gpiod.Line a chipLine uses
type requestedLine interface {
	Value() (int, error)
	Close() error
}

// chipLine is a requested line of a Chip.
//
// gpiod's Line.Close waits for the event handler to return while holding the
// lock Line.Value needs, so a handler still reading the line (a held button)
// would never return. closed is set before the gpiod line is closed, and
// Level reports ErrClosed from then on.
type chipLine struct {
	platform *Chip
	line     requestedLine
	pin      int

	mu     sync.RWMutex
	closed bool
}

func (l *chipLine) Pin() int {
	return l.pin
}

func (l *chipLine) Level() (Level, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return Low, ErrClosed
	}
	value, err := l.line.Value()
	if err != nil {
		return Low, err
	}
	if value == 0 {
		return Low, nil
	}
	return High, nil
}

// Close releases the line and its event registration.
// It waits for a running event handler to return.
func (l *chipLine) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	err := l.line.Close()
	l.platform.pins.release(l.pin)
	l.platform.log.WithField("pin", l.pin).Debug("Released line")
	return err
}
