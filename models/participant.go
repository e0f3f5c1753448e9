package models

import "github.com/google/uuid"

// Participant is a user as seen by the engine. Identity is owned by the user
// directory; the engine only references it by id.
type Participant struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Fullname string    `json:"fullname,omitempty"`
}

type Event struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}
