package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TiesheetStatus string

const (
	TiesheetScheduled TiesheetStatus = "scheduled"
	TiesheetOngoing   TiesheetStatus = "ongoing"
	TiesheetCompleted TiesheetStatus = "completed"
)

func (s TiesheetStatus) Valid() bool {
	switch s {
	case TiesheetScheduled, TiesheetOngoing, TiesheetCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the tiesheet may move from s to next.
// Keeping the same status is always allowed.
func (s TiesheetStatus) CanTransitionTo(next TiesheetStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case TiesheetScheduled:
		return next == TiesheetOngoing || next == TiesheetCompleted
	case TiesheetOngoing:
		return next == TiesheetCompleted
	}
	return false
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Date is a calendar day without time of day. It is stored as a DATE column
// and marshalled as "2006-01-02".
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan accepts the representations drivers use for DATE columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	// Some drivers hand back a full timestamp for DATE columns.
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type Tiesheet struct {
	ID            uuid.UUID        `json:"id"`
	StageID       uuid.UUID        `json:"stage_id"`
	GroupID       *uuid.UUID       `json:"group_id,omitempty"`
	ScheduledDate *Date            `json:"scheduled_date,omitempty"`
	ScheduledTime string           `json:"scheduled_time,omitempty"`
	Status        TiesheetStatus   `json:"status"`
	StageName     string           `json:"stage_name,omitempty" db:"-"`
	GroupName     string           `json:"group_name,omitempty" db:"-"`
	Players       []TiesheetPlayer `json:"players,omitempty" db:"-"`
}

type TiesheetPlayer struct {
	ID            uuid.UUID     `json:"id"`
	TiesheetID    uuid.UUID     `json:"tiesheet_id"`
	ParticipantID uuid.UUID     `json:"participant_id"`
	Username      string        `json:"username,omitempty" db:"-"`
	IsWinner      bool          `json:"is_winner"`
	Columns       []ColumnEntry `json:"columns,omitempty" db:"-"`
}

// TiesheetDetail is a tiesheet with its roster, every player's column values
// for the stage and all matches with their scores.
type TiesheetDetail struct {
	Tiesheet
	Matches []Match `json:"matches"`
}
