package button

import (
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/sirupsen/logrus"

	gpio "github.com/stuartleeks/pi-button/internal/pkg/gpio-components"
)

const (
	DefaultDebounce      = 500 * time.Millisecond
	DefaultHoldThreshold = 100 * time.Millisecond
	DefaultPollInterval  = time.Millisecond
)

type config struct {
	name          string
	debounce      time.Duration
	edge          interface{}
	holdThreshold time.Duration
	repeatOnHold  bool
	pull          gpio.Pull
	pollInterval  time.Duration
	clock         clock.Clock
	log           *logrus.Entry
}

func defaultConfig() config {
	return config{
		debounce:      DefaultDebounce,
		edge:          gpio.FallingEdge,
		holdThreshold: DefaultHoldThreshold,
		pull:          gpio.PullUp,
		pollInterval:  DefaultPollInterval,
		clock:         clock.NewClock(),
	}
}

// Option configures a Monitor
type Option func(*config)

// WithName sets the name used in logs and String
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithDebounce sets the window after an accepted press in which further edges are ignored
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		c.debounce = d
	}
}

// WithEdge selects the transition that counts as a press
func WithEdge(e gpio.Edge) Option {
	return func(c *config) {
		c.edge = e
	}
}

// WithEdgeName selects the transition by name, see ParseEdge
func WithEdgeName(name string) Option {
	return func(c *config) {
		c.edge = name
	}
}

// WithHoldThreshold sets how long the button must stay pressed for each repeat
func WithHoldThreshold(d time.Duration) Option {
	return func(c *config) {
		c.holdThreshold = d
	}
}

// WithRepeatOnHold makes the action repeat every hold threshold while the button stays pressed
func WithRepeatOnHold(repeat bool) Option {
	return func(c *config) {
		c.repeatOnHold = repeat
	}
}

// WithPull sets the pull resistor; PullDown makes a high level count as pressed
func WithPull(p gpio.Pull) Option {
	return func(c *config) {
		c.pull = p
	}
}

// WithPollInterval sets the pause between samples while detecting a hold
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		c.pollInterval = d
	}
}

func WithClock(clk clock.Clock) Option {
	return func(c *config) {
		c.clock = clk
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(c *config) {
		c.log = log
	}
}
