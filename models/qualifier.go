package models

import "github.com/google/uuid"

type Qualifier struct {
	ID            uuid.UUID `json:"id"`
	EventID       uuid.UUID `json:"event_id"`
	StageID       uuid.UUID `json:"stage_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	Username      string    `json:"username,omitempty" db:"-"`
}

// StageQualifiers groups an event's qualifiers by stage.
type StageQualifiers struct {
	Stage      Stage       `json:"stage"`
	Qualifiers []Qualifier `json:"qualifiers"`
}
