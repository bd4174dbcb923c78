package events

import "time"

// Envelope is the shared shape for best-effort engine events delivered to
// notification and logging sinks. Sinks are fire-and-forget; nothing in the
// engine blocks on, retries, or rolls back because of event delivery.
type Envelope struct {
	EventID       string         `json:"event_id"`
	EventType     string         `json:"event_type"`
	SourceService string         `json:"source_service"`
	OccurredAtUTC time.Time      `json:"occurred_at_utc"`
	EntityType    string         `json:"entity_type"`
	EntityID      string         `json:"entity_id"`
	Payload       map[string]any `json:"payload"`
}
