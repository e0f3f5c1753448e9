package models

import "github.com/google/uuid"

type Match struct {
	ID         uuid.UUID    `json:"id"`
	TiesheetID uuid.UUID    `json:"tiesheet_id"`
	Name       string       `json:"match_name"`
	Scores     []MatchScore `json:"scores,omitempty" db:"-"`
}

type MatchScore struct {
	ID               uuid.UUID `json:"id"`
	MatchID          uuid.UUID `json:"match_id"`
	TiesheetPlayerID uuid.UUID `json:"tiesheet_player_id"`
	Points           string    `json:"points"`
	Winner           bool      `json:"winner"`

	ParticipantID uuid.UUID `json:"participant_id" db:"-"`
	Username      string    `json:"username,omitempty" db:"-"`
}

// MatchResult is one match of a tiesheet with the scores of every player who
// has a score recorded.
type MatchResult struct {
	MatchID   uuid.UUID    `json:"match_id"`
	MatchName string       `json:"match_name"`
	Scores    []MatchScore `json:"scores"`
}
