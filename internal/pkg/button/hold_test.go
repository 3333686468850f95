package button

import (
	"errors"
	"testing"
	"time"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gpio "github.com/stuartleeks/pi-button/internal/pkg/gpio-components"
)

// scriptedLine advances a fake clock by step on every read and reports level(n) for the nth read
type scriptedLine struct {
	clk   *fakeclock.FakeClock
	step  time.Duration
	level func(n int) gpio.Level
	err   error
	reads int
}

func (s *scriptedLine) Level() (gpio.Level, error) {
	s.reads++
	s.clk.Increment(s.step)
	if s.err != nil {
		return gpio.Low, s.err
	}
	return s.level(s.reads), nil
}

func lowUntil(n int) func(int) gpio.Level {
	return func(read int) gpio.Level {
		if read < n {
			return gpio.Low
		}
		return gpio.High
	}
}

func alwaysLow(int) gpio.Level {
	return gpio.Low
}

func TestStaysAtHeldForWholeDuration(t *testing.T) {
	line := &scriptedLine{
		clk:   fakeclock.NewFakeClock(time.Unix(0, 0)),
		step:  time.Millisecond,
		level: alwaysLow,
	}
	held, err := StaysAt(line.clk, line, gpio.Low, 10*time.Millisecond, 0)
	require.NoError(t, err)
	assert.True(t, held)
	// eleven samples inside the budget, one final check
	assert.Equal(t, 12, line.reads)
}

func TestStaysAtReturnsPromptlyOnChange(t *testing.T) {
	for _, changeAt := range []int{1, 3, 11} {
		line := &scriptedLine{
			clk:   fakeclock.NewFakeClock(time.Unix(0, 0)),
			step:  time.Millisecond,
			level: lowUntil(changeAt),
		}
		held, err := StaysAt(line.clk, line, gpio.Low, 10*time.Millisecond, 0)
		require.NoError(t, err)
		assert.False(t, held, "change at read %d", changeAt)
		assert.Equal(t, changeAt, line.reads, "change at read %d", changeAt)
	}
}

func TestStaysAtFinalCheckIsAuthoritative(t *testing.T) {
	line := &scriptedLine{
		clk:   fakeclock.NewFakeClock(time.Unix(0, 0)),
		step:  time.Millisecond,
		level: lowUntil(12),
	}
	held, err := StaysAt(line.clk, line, gpio.Low, 10*time.Millisecond, 0)
	require.NoError(t, err)
	assert.False(t, held)
	assert.Equal(t, 12, line.reads)
}

func TestStaysAtHighLevel(t *testing.T) {
	line := &scriptedLine{
		clk:   fakeclock.NewFakeClock(time.Unix(0, 0)),
		step:  time.Millisecond,
		level: func(int) gpio.Level { return gpio.High },
	}
	held, err := StaysAt(line.clk, line, gpio.High, 5*time.Millisecond, 0)
	require.NoError(t, err)
	assert.True(t, held)
}

func TestStaysAtReadError(t *testing.T) {
	readErr := errors.New("read failed")
	line := &scriptedLine{
		clk:  fakeclock.NewFakeClock(time.Unix(0, 0)),
		step: time.Millisecond,
		err:  readErr,
	}
	held, err := StaysAt(line.clk, line, gpio.Low, 10*time.Millisecond, 0)
	assert.False(t, held)
	assert.True(t, errors.Is(err, readErr))
	assert.Equal(t, 1, line.reads)
}

type constantLine gpio.Level

func (c constantLine) Level() (gpio.Level, error) {
	return gpio.Level(c), nil
}

func TestStaysAtWithSleepInterval(t *testing.T) {
	start := time.Now()
	held, err := StaysAt(clock.NewClock(), constantLine(gpio.Low), gpio.Low, 20*time.Millisecond, time.Millisecond)
	require.NoError(t, err)
	assert.True(t, held)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
