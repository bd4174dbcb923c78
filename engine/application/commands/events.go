package commands

import (
	"time"

	"crossvote/engine/ports"
)

const sourceService = "crossvote-engine"

func newEngineEnvelope(
	eventID string,
	eventType string,
	entityType string,
	entityID string,
	occurredAt time.Time,
	payload map[string]any,
) ports.EventEnvelope {
	return ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		SourceService: sourceService,
		OccurredAtUTC: occurredAt.UTC(),
		EntityType:    entityType,
		EntityID:      entityID,
		Payload:       payload,
	}
}
