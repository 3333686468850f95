package gpio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Level is the electrical level of a line
type Level int

const (
	// Low is a line pulled to ground
	Low Level = iota
	// High is a line pulled to the supply voltage
	High
)

func (l Level) String() string {
	if l == Low {
		return "low"
	}
	return "high"
}

// Pull is the bias applied to an input line
type Pull int

const (
	// PullNone leaves the line floating (or to an external resistor)
	PullNone Pull = iota
	// PullUp idles the line high; a button shorting it to ground reads low
	PullUp
	// PullDown idles the line low; a button connecting it to the supply reads high
	PullDown
)

// ActiveLevel returns the level a pressed button reads with this pull
func (p Pull) ActiveLevel() Level {
	if p == PullDown {
		return High
	}
	return Low
}

// Edge selects which transitions of a line generate events
type Edge int

const (
	NoEdge Edge = iota
	RisingEdge
	FallingEdge
	BothEdges
)

func (e Edge) String() string {
	switch e {
	case NoEdge:
		return "none"
	case RisingEdge:
		return "rising"
	case FallingEdge:
		return "falling"
	case BothEdges:
		return "both"
	}
	return fmt.Sprintf("Edge(%d)", int(e))
}

// Valid reports whether e is one of RisingEdge, FallingEdge or BothEdges
func (e Edge) Valid() bool {
	return e == RisingEdge || e == FallingEdge || e == BothEdges
}

// Matches reports whether a transition is selected by e
func (e Edge) Matches(transition Edge) bool {
	switch e {
	case BothEdges:
		return transition == RisingEdge || transition == FallingEdge
	case RisingEdge, FallingEdge:
		return transition == e
	}
	return false
}

// transitionTo returns the edge that ends at level
func transitionTo(level Level) Edge {
	if level == High {
		return RisingEdge
	}
	return FallingEdge
}

// detectedTransition names an edge reported by hardware that detects only the
// configured edge. With BothEdges the level read after the edge decides; it can
// be wrong during contact bounce, so it is not trusted for single edges.
func detectedTransition(configured Edge, level Level) Edge {
	if configured == RisingEdge || configured == FallingEdge {
		return configured
	}
	return transitionTo(level)
}

// Event describes an accepted edge on a line
type Event struct {
	Pin   int       `json:"pin"`
	Edge  Edge      `json:"edge"`
	Time  time.Time `json:"time"`
	Seqno uint32    `json:"seqno"`
}

func (e Event) String() string {
	return fmt.Sprintf("pin %d %s edge #%d", e.Pin, e.Edge, e.Seqno)
}

// EventHandler receives accepted edge events. Calls for one line are never concurrent.
type EventHandler func(Event)

// InputConfig describes an input line request
type InputConfig struct {
	Pull Pull
	// Edge selects the transitions that are passed to Handler
	Edge Edge
	// Debounce drops events arriving within this window of the previously accepted one
	Debounce time.Duration
	Handler  EventHandler
}

// Line is an input line owned by a single caller
type Line interface {
	Pin() int
	Level() (Level, error)
	// Close stops event delivery and releases the line
	Close() error
}

// Platform gives access to the input lines of a board
type Platform interface {
	// RequestInput configures pin as an input and registers cfg.Handler for its edges
	RequestInput(pin int, cfg InputConfig) (Line, error)
	// Close releases any lines still held and then the platform itself
	Close() error
}

var (
	// ErrPinBusy is returned when a pin is requested while another caller owns it
	ErrPinBusy = errors.New("gpio: pin already requested")
	// ErrClosed is returned when reading a line that has been closed
	ErrClosed = errors.New("gpio: line closed")
)

// lineSet tracks the lines a platform has handed out
type lineSet struct {
	mu    sync.Mutex
	lines map[int]Line
}

func (s *lineSet) claim(pin int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lines == nil {
		s.lines = make(map[int]Line)
	}
	if _, ok := s.lines[pin]; ok {
		return fmt.Errorf("pin %d: %w", pin, ErrPinBusy)
	}
	s.lines[pin] = nil
	return nil
}

func (s *lineSet) set(pin int, l Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[pin] = l
}

func (s *lineSet) release(pin int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lines, pin)
}

func (s *lineSet) claimed(pin int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lines[pin]
	return ok
}

// closeAll closes every line still held, collecting the errors
func (s *lineSet) closeAll() error {
	s.mu.Lock()
	open := make([]Line, 0, len(s.lines))
	for _, l := range s.lines {
		if l != nil {
			open = append(open, l)
		}
	}
	s.mu.Unlock()

	var result error
	for _, l := range open {
		if err := l.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close pin %d: %w", l.Pin(), err))
		}
	}
	return result
}
