package models

import "github.com/google/uuid"

// StandingColumn is an admin-defined metric of a stage. Columns are data, so
// the set of columns differs from stage to stage.
type StandingColumn struct {
	ID           uuid.UUID `json:"id"`
	StageID      uuid.UUID `json:"stage_id"`
	Name         string    `json:"column_field"`
	DefaultValue string    `json:"default_value"`
	ToShow       bool      `json:"to_show"`
}

type ColumnValue struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	ColumnID      uuid.UUID `json:"column_id"`
	Value         string    `json:"value"`
}

// ColumnEntry is one column of a participant's values, in column order.
type ColumnEntry struct {
	ColumnID uuid.UUID `json:"column_id"`
	Name     string    `json:"column_field"`
	Value    string    `json:"value"`
	ToShow   bool      `json:"to_show"`
}
