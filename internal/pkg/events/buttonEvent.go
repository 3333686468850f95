package events

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gobuffalo/uuid"
)

//ButtonEventType indicates the type of button event
type ButtonEventType int

const (
	// ButtonPressed occurs when a button is pressed
	ButtonPressed ButtonEventType = iota
	// ButtonReleased occurs when a button is released after being pressed
	ButtonReleased
	// ButtonHeld occurs for each hold interval a pressed button stays down
	ButtonHeld
)

func (t ButtonEventType) String() string {
	switch t {
	case ButtonPressed:
		return "pressed"
	case ButtonReleased:
		return "released"
	case ButtonHeld:
		return "held"
	}
	return "ButtonEventType(" + strconv.Itoa(int(t)) + ")"
}

// ButtonEvent represents an event for a button
type ButtonEvent struct {
	EventCommon
	ID     uuid.UUID       `json:"id"`
	Type   ButtonEventType `json:"type"`
	Source string          `json:"source"`
	Pin    int             `json:"pin"`
	Edge   string          `json:"edge,omitempty"`
	// Repeat counts the held events since the press
	Repeat int       `json:"repeat"`
	Time   time.Time `json:"time"`
}

var _ Event = ButtonEvent{}

func NewButtonEvent(buttonEventType ButtonEventType, source string) *ButtonEvent {
	return &ButtonEvent{
		EventCommon: EventCommon{
			EventType: EventTypeButton,
		},
		ID:     uuid.Must(uuid.NewV4()),
		Type:   buttonEventType,
		Source: source,
	}
}

// ToJSON converts the event to JSON
func (e ButtonEvent) ToJSON() (string, error) {
	jsonValue, err := json.Marshal(e)
	return string(jsonValue), err
}

func (e ButtonEvent) GetType() string {
	return e.EventType
}

func (e ButtonEvent) GetProperties() map[string]string {
	return map[string]string{
		"type":        e.EventType,
		"id":          e.ID.String(),
		"buttonEvent": e.Type.String(),
		"source":      e.Source,
		"pin":         strconv.Itoa(e.Pin),
		"edge":        e.Edge,
		"repeat":      strconv.Itoa(e.Repeat),
	}
}

// ParseButtonEventJSON parses the JSON representation of a ButtonEvent
func ParseButtonEventJSON(jsonValue []byte) (*ButtonEvent, error) {

	var buttonEvent ButtonEvent
	err := json.Unmarshal(jsonValue, &buttonEvent)
	if err != nil {
		return nil, err
	}
	return &buttonEvent, nil
}
