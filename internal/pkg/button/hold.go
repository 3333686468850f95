package button

import (
	"time"

	"code.cloudfoundry.org/clock"

	gpio "github.com/stuartleeks/pi-button/internal/pkg/gpio-components"
)

// LevelReader reports the current level of a line
type LevelReader interface {
	Level() (gpio.Level, error)
}

// StaysAt samples r until it leaves want (false) or d has elapsed with r at want (true).
// interval is the pause between samples; 0 spins.
//
// Once d has elapsed the line is read one final time and that read decides the result.
func StaysAt(clk clock.Clock, r LevelReader, want gpio.Level, d, interval time.Duration) (bool, error) {
	start := clk.Now()
	for clk.Now().Sub(start) <= d {
		level, err := r.Level()
		if err != nil {
			return false, err
		}
		if level != want {
			return false, nil
		}
		if interval > 0 {
			clk.Sleep(interval)
		}
	}

	level, err := r.Level()
	if err != nil {
		return false, err
	}
	return level == want, nil
}
