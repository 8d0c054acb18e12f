package ws

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventUserRegistered EventType = "user.registered"
	EventUserDeleted    EventType = "user.deleted"
	EventMatchCompleted EventType = "match.completed"
	EventStateChanged   EventType = "state.changed"
)

type Event struct {
	ID        uuid.UUID   `json:"id"`
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
