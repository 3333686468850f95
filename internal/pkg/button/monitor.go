package button

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/sirupsen/logrus"

	gpio "github.com/stuartleeks/pi-button/internal/pkg/gpio-components"
)

// Action is called for each press, and for each repeat while a press is held.
// evt is the edge event that started the press.
type Action func(evt gpio.Event)

func noAction(gpio.Event) {}

// Monitor watches a push button on one input pin
type Monitor struct {
	name          string
	pin           int
	edge          gpio.Edge
	debounce      time.Duration
	holdThreshold time.Duration
	repeatOnHold  bool
	activeLevel   gpio.Level
	pollInterval  time.Duration

	action atomic.Pointer[Action]
	clock  clock.Clock
	log    *logrus.Entry

	line       gpio.Line
	registered chan struct{}
	closeOnce  sync.Once
}

// New requests pin from platform as a pulled input and calls action on each press.
// A nil action does nothing until replaced with SetAction.
func New(platform gpio.Platform, pin int, action Action, opts ...Option) (*Monitor, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	edge, err := ResolveEdge(cfg.edge)
	if err != nil {
		return nil, err
	}
	log := cfg.log
	if log == nil {
		log = logrus.WithFields(logrus.Fields{"button": cfg.name, "pin": pin})
	}

	m := &Monitor{
		name:          cfg.name,
		pin:           pin,
		edge:          edge,
		debounce:      cfg.debounce,
		holdThreshold: cfg.holdThreshold,
		repeatOnHold:  cfg.repeatOnHold,
		activeLevel:   cfg.pull.ActiveLevel(),
		pollInterval:  cfg.pollInterval,
		clock:         cfg.clock,
		log:           log,
		registered:    make(chan struct{}),
	}
	m.SetAction(action)

	line, err := platform.RequestInput(pin, gpio.InputConfig{
		Pull:     cfg.pull,
		Edge:     edge,
		Debounce: cfg.debounce,
		Handler:  m.handle,
	})
	if err != nil {
		return nil, err
	}
	m.line = line
	close(m.registered)

	m.log.WithFields(logrus.Fields{
		"edge":          edge,
		"debounce":      m.debounce,
		"repeatOnHold":  m.repeatOnHold,
		"holdThreshold": m.holdThreshold,
	}).Debug("Registered button")
	return m, nil
}

// SetAction replaces the action. A press already being held picks it up on its next repeat.
func (m *Monitor) SetAction(action Action) {
	if action == nil {
		action = noAction
	}
	m.action.Store(&action)
}

// IsPressed reports whether the pin is currently at the pressed level
func (m *Monitor) IsPressed() (bool, error) {
	level, err := m.line.Level()
	if err != nil {
		return false, err
	}
	return level == m.activeLevel, nil
}

// Close releases the pin. Calling it again, or on a nil Monitor, does nothing.
func (m *Monitor) Close() error {
	if m == nil || m.line == nil {
		return nil
	}
	var err error
	m.closeOnce.Do(func() {
		err = m.line.Close()
		if err != nil {
			m.log.WithError(err).Warn("Failed to release button")
			return
		}
		m.log.Debug("Released button")
	})
	return err
}

func (m *Monitor) String() string {
	return fmt.Sprintf("<Button-%s(pin %d,holdRepeat=%t,holdTime=%s)>", m.name, m.pin, m.repeatOnHold, m.holdThreshold)
}

// handle runs on the platform's delivery goroutine and blocks it for the whole of a held press
func (m *Monitor) handle(evt gpio.Event) {
	<-m.registered
	m.log.WithField("event", evt).Debug("Button pressed")
	m.fire(evt)
	if !m.repeatOnHold {
		return
	}

	repeats := 0
	for {
		held, err := StaysAt(m.clock, m.line, m.activeLevel, m.holdThreshold, m.pollInterval)
		if err != nil {
			m.log.WithError(err).Warn("Stopped hold detection")
			return
		}
		if !held {
			m.log.WithField("repeats", repeats).Debug("Button released")
			return
		}
		repeats++
		m.fire(evt)
	}
}

func (m *Monitor) fire(evt gpio.Event) {
	(*m.action.Load())(evt)
}
