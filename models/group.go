package models

import "github.com/google/uuid"

type Group struct {
	ID      uuid.UUID     `json:"id"`
	EventID uuid.UUID     `json:"event_id"`
	StageID uuid.UUID     `json:"stage_id"`
	Name    string        `json:"name"`
	Members []GroupMember `json:"members,omitempty" db:"-"`
}

type GroupMember struct {
	GroupID       uuid.UUID `json:"group_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	Username      string    `json:"username,omitempty" db:"-"`
}
