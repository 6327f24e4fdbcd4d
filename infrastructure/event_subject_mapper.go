package infrastructure

import (
	"fmt"

	"wagerpool/events"
)

// EventSubjectMapper handles mapping between events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts an event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeBetPlaced:
		return "bets.placed"
	case events.EventTypeBettorAdded:
		return "bets.bettor_added"
	case events.EventTypeBetStatusChanged:
		return "bets.status_changed"
	case events.EventTypeBetSettled:
		return "bets.settled"
	case events.EventTypeBalanceChange:
		return "accounts.balance_changed"
	default:
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case "bets.placed":
		return events.EventTypeBetPlaced
	case "bets.bettor_added":
		return events.EventTypeBettorAdded
	case "bets.status_changed":
		return events.EventTypeBetStatusChanged
	case "bets.settled":
		return events.EventTypeBetSettled
	case "accounts.balance_changed":
		return events.EventTypeBalanceChange
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"bets.placed",
		"bets.bettor_added",
		"bets.status_changed",
		"bets.settled",
		"accounts.balance_changed",
	}
}
