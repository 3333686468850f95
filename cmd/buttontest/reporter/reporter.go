package reporter

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"code.cloudfoundry.org/clock"
	"github.com/microsoft/ApplicationInsights-Go/appinsights"
	"github.com/sirupsen/logrus"

	"github.com/stuartleeks/pi-button/internal/pkg/events"
	gpio "github.com/stuartleeks/pi-button/internal/pkg/gpio-components"
)

// Reporter turns button actions into events, printing and tracking each one
type Reporter struct {
	telemetryClient appinsights.TelemetryClient
	source          string
	out             io.Writer
	clock           clock.Clock
	log             *logrus.Entry

	mu       sync.Mutex
	press    uint32
	pressing bool
	repeat   int
}

// New creates a Reporter. telemetryClient may be nil to disable telemetry.
func New(telemetryClient appinsights.TelemetryClient, source string, out io.Writer, clk clock.Clock) *Reporter {
	return &Reporter{
		telemetryClient: telemetryClient,
		source:          source,
		out:             out,
		clock:           clk,
		log:             logrus.WithField("source", source),
	}
}

// Action is a button.Action. The first call for an edge event is a press,
// later calls for the same event are repeats of the held press.
func (r *Reporter) Action(evt gpio.Event) {
	r.mu.Lock()
	eventType := events.ButtonPressed
	if r.pressing && evt.Seqno == r.press {
		r.repeat++
		eventType = events.ButtonHeld
	} else {
		r.press = evt.Seqno
		r.pressing = true
		r.repeat = 0
	}
	repeat := r.repeat
	r.mu.Unlock()

	fmt.Fprintf(r.out, "FunctionCall with %s\n", evt)

	event := events.NewButtonEvent(eventType, r.source)
	event.Pin = evt.Pin
	event.Edge = evt.Edge.String()
	event.Repeat = repeat
	event.Time = r.clock.Now()
	if err := r.Track(event); err != nil {
		r.log.WithError(err).Error("Error tracking button event")
		r.TrackException(err)
	}
}

// Track logs the event as JSON and sends it to Application Insights
func (r *Reporter) Track(event events.Event) error {
	jsonValue, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("error converting event to JSON: %w", err)
	}
	r.log.WithField("event", jsonValue).Info("Event")

	if r.telemetryClient != nil {
		eventTelemetry := appinsights.NewEventTelemetry(event.GetType())
		for name, value := range event.GetProperties() {
			eventTelemetry.Properties[name] = value
		}
		r.telemetryClient.Track(eventTelemetry)
		r.telemetryClient.Channel().Flush()
	}
	return nil
}

// TrackException records err in Application Insights, if enabled
func (r *Reporter) TrackException(err error) {
	if r.telemetryClient == nil {
		return
	}
	r.telemetryClient.TrackException(err)
	r.telemetryClient.Channel().Flush()
}

// RunStdioReader drives a simulated button from console input until input ends:
// 'p' presses pin and 'r' releases it.
//
// Levels change as each key is read. Edge events are delivered in key order on
// a separate goroutine, since a held press blocks its delivery until release.
func (r *Reporter) RunStdioReader(in io.Reader, sim *gpio.Sim, pin int) {
	deliveries := make(chan func(), 16)
	go func() {
		for deliver := range deliveries {
			deliver()
		}
	}()
	defer close(deliveries)

	consoleReader := bufio.NewReaderSize(in, 1)
	r.log.Info("Starting stdio loop")
	for {
		input, err := consoleReader.ReadByte()
		if err != nil {
			if err != io.EOF {
				r.log.WithError(err).Warn("Error reading stdin")
			}
			break
		}
		switch input {
		case 'p': // press
			deliveries <- sim.Drive(pin, sim.PressedLevel(pin))
		case 'r': // release
			deliveries <- sim.Drive(pin, sim.IdleLevel(pin))
			event := events.NewButtonEvent(events.ButtonReleased, "keyboard")
			event.Pin = pin
			event.Time = r.clock.Now()
			if err := r.Track(event); err != nil {
				r.log.WithError(err).Error("Error tracking button event")
			}
		}
	}
	r.log.Info("Exiting stdio loop")
}
