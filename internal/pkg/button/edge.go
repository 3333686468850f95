package button

import (
	"errors"
	"fmt"
	"strings"

	gpio "github.com/stuartleeks/pi-button/internal/pkg/gpio-components"
)

// ErrInvalidConfiguration is returned for button settings that can never work
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ParseEdge converts "falling", "raising" or "both" (any case) to an edge
func ParseEdge(s string) (gpio.Edge, error) {
	switch strings.ToLower(s) {
	case "falling":
		return gpio.FallingEdge, nil
	case "raising":
		return gpio.RisingEdge, nil
	case "both":
		return gpio.BothEdges, nil
	}
	return gpio.NoEdge, fmt.Errorf("%w: unknown edge type %q", ErrInvalidConfiguration, s)
}

// ResolveEdge accepts either a gpio.Edge or an edge name understood by ParseEdge
func ResolveEdge(v interface{}) (gpio.Edge, error) {
	switch edge := v.(type) {
	case gpio.Edge:
		if edge.Valid() {
			return edge, nil
		}
		return gpio.NoEdge, fmt.Errorf("%w: unknown edge type %s", ErrInvalidConfiguration, edge)
	case string:
		return ParseEdge(edge)
	}
	return gpio.NoEdge, fmt.Errorf("%w: unknown edge type %v (%T)", ErrInvalidConfiguration, v, v)
}
