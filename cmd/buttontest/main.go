package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/microsoft/ApplicationInsights-Go/appinsights"
	"github.com/sirupsen/logrus"

	"github.com/stuartleeks/pi-button/cmd/buttontest/reporter"
	"github.com/stuartleeks/pi-button/internal/pkg/button"
	gpio "github.com/stuartleeks/pi-button/internal/pkg/gpio-components"
)

const (
	backendGpiod  = "gpiod"
	backendRPIO   = "rpio"
	backendGobot  = "gobot"
	backendPeriph = "periph"
	backendSim    = "sim"
)

var (
	backend  = flag.String("backend", envOrDefault("BUTTON_BACKEND", backendGpiod), "gpio backend: gpiod, rpio, gobot, periph or sim")
	chipName = flag.String("chip", gpio.ChipName, "gpio chip for the gpiod backend")
	pin      = flag.Int("pin", -1, "BCM pin number of the button (prompted for if not set)")
	name     = flag.String("name", "", "button name")
	edge     = flag.String("edge", "falling", "edge to trigger on: falling, raising or both")
	debounce = flag.Duration("debounce", button.DefaultDebounce, "debounce window")
	hold     = flag.Duration("hold", button.DefaultHoldThreshold, "hold threshold between repeats")
	repeat   = flag.Bool("repeat", true, "repeat the action while the button is held")
	pullDown = flag.Bool("pull-down", false, "use a pull-down resistor (button connects to 3v3)")
	verbose  = flag.Bool("v", false, "verbose logging")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := run(); err != nil {
		logrus.WithError(err).Error("Exiting")
		os.Exit(1)
	}
}

func run() error {
	if strings.ToLower(os.Getenv("DISABLE_GPIO")) == "true" {
		*backend = backendSim
	}

	var telemetryClient appinsights.TelemetryClient
	if key := os.Getenv("APPINSIGHTS_INSTRUMENTATIONKEY"); key != "" {
		telemetryClient = appinsights.NewTelemetryClient(key)
		defer func() {
			select {
			case <-telemetryClient.Channel().Close(5 * time.Second):
			case <-time.After(10 * time.Second):
			}
		}()
	}

	input := bufio.NewReader(os.Stdin)
	pinNumber := *pin
	if pinNumber < 0 {
		var err error
		if pinNumber, err = promptPin(input, os.Stdout); err != nil {
			return err
		}
	}

	clk := clock.NewClock()
	platform, err := openPlatform(*backend, clk)
	if err != nil {
		return err
	}
	defer func() {
		if err := platform.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing gpio platform")
		}
	}()

	pull := gpio.PullUp
	if *pullDown {
		pull = gpio.PullDown
	}
	r := reporter.New(telemetryClient, *backend, os.Stdout, clk)
	monitor, err := button.New(platform, pinNumber, r.Action,
		button.WithName(*name),
		button.WithEdgeName(*edge),
		button.WithDebounce(*debounce),
		button.WithHoldThreshold(*hold),
		button.WithRepeatOnHold(*repeat),
		button.WithPull(pull),
		button.WithClock(clk),
	)
	if err != nil {
		r.TrackException(err)
		return fmt.Errorf("error setting up button on pin %d: %w", pinNumber, err)
	}
	defer monitor.Close() // nolint:errcheck
	fmt.Println(monitor)

	if sim, ok := platform.(*gpio.Sim); ok {
		fmt.Println("Simulated button: press 'p' then enter to press, 'r' then enter to release")
		go r.RunStdioReader(input, sim, pinNumber)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	logrus.Info("Interrupted")
	return nil
}

func promptPin(in *bufio.Reader, out io.Writer) (int, error) {
	fmt.Fprint(out, "please enter pin no to test: ")
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return 0, fmt.Errorf("error reading pin: %w", err)
	}
	value, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid pin %q", strings.TrimSpace(line))
	}
	return value, nil
}

func openPlatform(backend string, clk clock.Clock) (gpio.Platform, error) {
	switch backend {
	case backendGpiod:
		return gpio.NewChip(*chipName, clk)
	case backendRPIO:
		return gpio.NewRPIO(clk)
	case backendGobot:
		return gpio.NewGobot(clk)
	case backendPeriph:
		return gpio.NewPeriph(clk)
	case backendSim:
		return gpio.NewSim(clk), nil
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

func envOrDefault(key, value string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return value
}
