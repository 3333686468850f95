package events

// EventTypeButton tags every ButtonEvent, in JSON and in telemetry
const EventTypeButton = "button-event"

// EventCommon holds the fields shared by all events
type EventCommon struct {
	EventType string `json:"eventType"`
}

// Event is something the button tester reports: logged as JSON and tracked
// as telemetry with GetType as its name and GetProperties as its properties.
type Event interface {
	GetType() string
	GetProperties() map[string]string
	ToJSON() (string, error)
}
