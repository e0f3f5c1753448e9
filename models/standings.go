package models

import "github.com/google/uuid"

// StandingsRow is one pivoted row: a participant with one value per column name.
type StandingsRow struct {
	StageID       uuid.UUID         `json:"stage_id"`
	StageName     string            `json:"stage_name"`
	ParticipantID uuid.UUID         `json:"participant_id"`
	Username      string            `json:"username"`
	Values        map[string]string `json:"values"`
}

type StandingsPage struct {
	Columns    []string       `json:"columns"`
	Rows       []StandingsRow `json:"rows"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
}

type MemberStanding struct {
	ParticipantID uuid.UUID     `json:"participant_id"`
	Username      string        `json:"username"`
	Columns       []ColumnEntry `json:"columns"`
}

type GroupStanding struct {
	GroupID   uuid.UUID        `json:"group_id"`
	GroupName string           `json:"group_name"`
	Members   []MemberStanding `json:"members"`
}

type StageStanding struct {
	StageID   uuid.UUID       `json:"stage_id"`
	StageName string          `json:"stage_name"`
	Groups    []GroupStanding `json:"groups"`
}

// LiveUpdate is pushed to an event's subscribers after a committed write.
type LiveUpdate struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

const (
	UpdateStagesChanged     = "STAGES_UPDATED"
	UpdateColumnsChanged    = "COLUMNS_UPDATED"
	UpdateStandingsChanged  = "STANDINGS_UPDATED"
	UpdateQualifiersChanged = "QUALIFIERS_UPDATED"
	UpdateGroupsChanged     = "GROUPS_UPDATED"
	UpdateTiesheetChanged   = "TIESHEET_UPDATED"
	UpdateTiesheetDeleted   = "TIESHEET_DELETED"
)
