package gpio

import (
	"fmt"
	"sync"

	"code.cloudfoundry.org/clock"
)

// Sim is an in-memory Platform for running without hardware.
// Edge events are delivered synchronously on the goroutine that changes the level,
// so a handler that blocks (e.g. while a button is held) blocks that caller too.
type Sim struct {
	clock clock.Clock
	pins  lineSet

	mu     sync.Mutex
	levels map[int]Level
	onRead func(pin int)
}

var _ Platform = &Sim{}

// NewSim creates a simulated platform using clk for event timestamps and debouncing
func NewSim(clk clock.Clock) *Sim {
	return &Sim{
		clock:  clk,
		levels: make(map[int]Level),
	}
}

// OnRead registers fn to be called before every line read, outside any Sim lock.
// fn may change levels, but must not cause an event to be delivered to the line being read.
func (s *Sim) OnRead(fn func(pin int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRead = fn
}

// RequestInput implements Platform
func (s *Sim) RequestInput(pin int, cfg InputConfig) (Line, error) {
	if pin < 0 {
		return nil, fmt.Errorf("gpio: invalid pin %d", pin)
	}
	if err := s.pins.claim(pin); err != nil {
		return nil, err
	}

	s.mu.Lock()
	switch cfg.Pull {
	case PullUp:
		s.levels[pin] = High
	case PullDown:
		s.levels[pin] = Low
	}
	s.mu.Unlock()

	l := &simLine{
		sim:       s,
		pin:       pin,
		pull:      cfg.Pull,
		debouncer: newDebouncer(pin, cfg, s.clock),
	}
	s.pins.set(pin, l)
	return l, nil
}

// Requested reports whether pin is currently held by a line
func (s *Sim) Requested(pin int) bool {
	return s.pins.claimed(pin)
}

// SetLevel drives pin to level, delivering an edge event if a line is watching it
func (s *Sim) SetLevel(pin int, level Level) {
	s.Drive(pin, level)()
}

// Drive sets pin to level straight away and returns the delivery of the
// resulting edge, to be run by the caller. Levels change in call order even
// when deliveries run elsewhere.
func (s *Sim) Drive(pin int, level Level) (deliver func()) {
	s.mu.Lock()
	prev := s.levels[pin]
	s.levels[pin] = level
	s.mu.Unlock()

	if prev == level {
		return func() {}
	}
	return func() {
		if l, ok := s.line(pin); ok {
			l.debouncer.see(transitionTo(level))
		}
	}
}

// Press drives pin to the level a pressed button reads with the line's pull
func (s *Sim) Press(pin int) {
	s.SetLevel(pin, s.PressedLevel(pin))
}

// Release drives pin back to its idle level
func (s *Sim) Release(pin int) {
	s.SetLevel(pin, s.IdleLevel(pin))
}

// PressedLevel is the level pin reads while pressed, given the pull of its line
func (s *Sim) PressedLevel(pin int) Level {
	return s.pull(pin).ActiveLevel()
}

// IdleLevel is the level pin reads while released
func (s *Sim) IdleLevel(pin int) Level {
	if s.PressedLevel(pin) == High {
		return Low
	}
	return High
}

// Close implements Platform
func (s *Sim) Close() error {
	return s.pins.closeAll()
}

func (s *Sim) line(pin int) (*simLine, bool) {
	s.pins.mu.Lock()
	defer s.pins.mu.Unlock()
	l, ok := s.pins.lines[pin].(*simLine)
	return l, ok && l != nil
}

func (s *Sim) pull(pin int) Pull {
	if l, ok := s.line(pin); ok {
		return l.pull
	}
	return PullUp
}

type simLine struct {
	sim       *Sim
	pin       int
	pull      Pull
	debouncer *debouncer

	closeOnce sync.Once
	closed    bool
}

func (l *simLine) Pin() int {
	return l.pin
}

func (l *simLine) Level() (Level, error) {
	l.sim.mu.Lock()
	closed := l.closed
	hook := l.sim.onRead
	l.sim.mu.Unlock()
	if closed {
		return Low, ErrClosed
	}
	if hook != nil {
		hook(l.pin)
	}

	l.sim.mu.Lock()
	defer l.sim.mu.Unlock()
	return l.sim.levels[l.pin], nil
}

func (l *simLine) Close() error {
	l.closeOnce.Do(func() {
		l.sim.mu.Lock()
		l.closed = true
		l.sim.mu.Unlock()
		l.sim.pins.release(l.pin)
	})
	return nil
}
