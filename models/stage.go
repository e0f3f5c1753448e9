package models

import "github.com/google/uuid"

type Stage struct {
	ID         uuid.UUID `json:"id"`
	EventID    uuid.UUID `json:"event_id"`
	Name       string    `json:"name"`
	RoundOrder int       `json:"round_order"`
}
