package eventbus

import "time"

// Event is a notification published to the bus.
type Event struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// Listener handles an event. Listeners run on bus workers and should not block.
type Listener func(Event)
