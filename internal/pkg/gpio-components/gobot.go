package gpio

import (
	"fmt"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"gobot.io/x/gobot"
	gobotgpio "gobot.io/x/gobot/drivers/gpio"
	"gobot.io/x/gobot/platforms/raspi"

	"github.com/stuartleeks/pi-button/internal/pkg/pi"
)

// gobotAdaptor is the part of a gobot adaptor the backend uses
type gobotAdaptor interface {
	gobotgpio.DigitalReader
	Finalize() error
}

// Gobot is a Platform built on gobot's raspi adaptor. Each line runs a gobot
// ButtonDriver that polls the pin and publishes push/release events.
//
// The raspi adaptor does not configure pull resistors; the board default
// (or an external resistor) applies. BCM pins 9 to 27 default to pull-down.
type Gobot struct {
	adaptor  gobotAdaptor
	clock    clock.Clock
	interval time.Duration
	log      *logrus.Entry
	pins     lineSet
}

var _ Platform = &Gobot{}

// NewGobot connects a raspi adaptor
func NewGobot(clk clock.Clock) (*Gobot, error) {
	raspberryPi := raspi.NewAdaptor()
	if err := raspberryPi.Connect(); err != nil {
		return nil, fmt.Errorf("error connecting raspi adaptor: %w", err)
	}
	return newGobot(raspberryPi, clk, DefaultEdgePollInterval), nil
}

func newGobot(adaptor gobotAdaptor, clk clock.Clock, interval time.Duration) *Gobot {
	return &Gobot{
		adaptor:  adaptor,
		clock:    clk,
		interval: interval,
		log:      logrus.WithField("platform", "gobot"),
	}
}

// RequestInput implements Platform. pin is a BCM number.
func (g *Gobot) RequestInput(pin int, cfg InputConfig) (Line, error) {
	header, err := pi.HeaderPin(pin)
	if err != nil {
		return nil, err
	}
	if err := g.pins.claim(pin); err != nil {
		return nil, err
	}
	if cfg.Pull != PullNone {
		g.log.WithFields(logrus.Fields{"pin": pin, "pull": cfg.Pull}).
			Warn("Pull resistors are not configured by gobot; the board default or an external resistor applies")
	}

	button := gobotgpio.NewButtonDriver(g.adaptor, header, g.interval)
	// push is any read that differs from the idle level
	button.DefaultState = 1
	if cfg.Pull == PullDown {
		button.DefaultState = 0
	}

	l := &gobotLine{
		platform:  g,
		button:    button,
		pin:       pin,
		header:    header,
		debouncer: newDebouncer(pin, cfg, g.clock),
		events:    button.Subscribe(),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go l.watch()
	if err := button.Start(); err != nil {
		l.stopWatching()
		g.pins.release(pin)
		return nil, fmt.Errorf("error starting button driver: %w", err)
	}

	g.pins.set(pin, l)
	g.log.WithFields(logrus.Fields{"pin": pin, "header": header, "edge": cfg.Edge}).Debug("Started button driver")
	return l, nil
}

// Close implements Platform
func (g *Gobot) Close() error {
	var result error
	if err := g.pins.closeAll(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := g.adaptor.Finalize(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

type gobotLine struct {
	platform  *Gobot
	button    *gobotgpio.ButtonDriver
	pin       int
	header    string
	debouncer *debouncer

	events  chan *gobot.Event
	done    chan struct{}
	stopped chan struct{}

	mu     sync.Mutex
	closed bool
}

func (l *gobotLine) watch() {
	defer close(l.stopped)
	for {
		select {
		case <-l.done:
			return
		case evt := <-l.events:
			if l.isClosed() {
				continue
			}
			switch evt.Name {
			case gobotgpio.ButtonPush, gobotgpio.ButtonRelease:
				value, _ := evt.Data.(int)
				l.debouncer.see(transitionTo(Level(value)))
			case gobotgpio.Error:
				err, _ := evt.Data.(error)
				l.platform.log.WithField("pin", l.pin).WithError(err).Warn("Error reading pin")
			}
		}
	}
}

// stopWatching unsubscribes from the driver and waits for watch to return
func (l *gobotLine) stopWatching() {
	l.button.Unsubscribe(l.events)
	close(l.done)
	<-l.stopped
}

func (l *gobotLine) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *gobotLine) Pin() int {
	return l.pin
}

func (l *gobotLine) Level() (Level, error) {
	if l.isClosed() {
		return Low, ErrClosed
	}
	value, err := l.platform.adaptor.DigitalRead(l.header)
	if err != nil {
		return Low, err
	}
	if value == 0 {
		return Low, nil
	}
	return High, nil
}

// Close halts the button driver and stops event delivery.
// It must not be called from the event handler.
//
// The driver's eventer keeps one goroutine per line after Close; gobot gives no way to stop it.
func (l *gobotLine) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	err := l.button.Halt()
	l.stopWatching()
	l.platform.pins.release(l.pin)
	l.platform.log.WithField("pin", l.pin).Debug("Halted button driver")
	return err
}
