package services

import (
	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

// Notifier delivers live updates to an event's subscribers. brackets.Hub
// implements it.
type Notifier interface {
	Publish(eventID uuid.UUID, update models.LiveUpdate)
}

// notify is a no-op without a notifier. It is only called after commit.
func notify(n Notifier, eventID uuid.UUID, updateType string, payload interface{}) {
	if n == nil {
		return
	}
	n.Publish(eventID, models.LiveUpdate{Type: updateType, Payload: payload})
}
