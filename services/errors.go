package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-engine/repositories"
)

// Виды ошибок. Каждая конкретная ошибка ниже оборачивает ровно один вид,
// так что вызывающий код проверяет вид через errors.Is.
var (
	ErrNotFound   = errors.New("requested resource not found")
	ErrConflict   = errors.New("conflict with existing state")
	ErrBadRequest = errors.New("invalid request")
	ErrInternal   = errors.New("internal error")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	ErrEventNotFound          = newError(ErrNotFound, "event not found")
	ErrParticipantNotFound    = newError(ErrNotFound, "participant not found")
	ErrStageNotFound          = newError(ErrNotFound, "stage not found")
	ErrColumnNotFound         = newError(ErrNotFound, "standing column not found")
	ErrQualifierNotFound      = newError(ErrNotFound, "qualifier not found")
	ErrGroupNotFound          = newError(ErrNotFound, "group not found")
	ErrGroupMemberNotFound    = newError(ErrNotFound, "group member not found")
	ErrTiesheetNotFound       = newError(ErrNotFound, "tiesheet not found")
	ErrTiesheetPlayerNotFound = newError(ErrNotFound, "participant is not on the tiesheet roster")
	ErrMatchNotFound          = newError(ErrNotFound, "match not found")
	ErrMatchScoreNotFound     = newError(ErrNotFound, "match score not found")

	ErrQualifierConflict    = newError(ErrConflict, "participant already qualified for this stage")
	ErrParticipantConflict  = newError(ErrConflict, "participant already registered for this event")
	ErrGroupMemberConflict  = newError(ErrConflict, "participant already belongs to a group of this stage")
	ErrTiesheetConflict     = newError(ErrConflict, "a tiesheet with the same roster already exists for this stage")
	ErrMatchScoreConflict   = newError(ErrConflict, "score already recorded for this player in this match")
	ErrTiesheetPlayerExists = newError(ErrConflict, "participant listed twice on the tiesheet")

	ErrNameRequired             = newError(ErrBadRequest, "name is required")
	ErrParticipantsRequired     = newError(ErrBadRequest, "at least one participant is required")
	ErrInvalidReference         = newError(ErrBadRequest, "referenced participant, stage or event does not exist")
	ErrNotQualified             = newError(ErrBadRequest, "participant is not qualified for this stage")
	ErrStageMismatch            = newError(ErrBadRequest, "stages belong to different events")
	ErrGroupStageMismatch       = newError(ErrBadRequest, "group does not belong to the tiesheet stage")
	ErrColumnStageMismatch      = newError(ErrBadRequest, "column does not belong to the tiesheet stage")
	ErrRosterTooSmall           = newError(ErrBadRequest, "a tiesheet needs at least two distinct participants")
	ErrInvalidStatus            = newError(ErrBadRequest, "invalid tiesheet status")
	ErrInvalidStatusTransition  = newError(ErrBadRequest, "invalid tiesheet status transition")
	ErrWinnerRequiresCompletion = newError(ErrBadRequest, "an overall winner can only be set on a completed tiesheet")
	ErrPointsRequired           = newError(ErrBadRequest, "points are required for every player once a match has been scored")
	ErrMatchNameRequired        = newError(ErrBadRequest, "match name is required")
	ErrUnknownGenerator         = newError(ErrBadRequest, "unknown pairing generator")
	ErrInvalidScheduledTime     = newError(ErrBadRequest, "scheduled time must be HH:MM")
	ErrInvalidPagination        = newError(ErrBadRequest, "page and limit must be positive")
	ErrExportDisabled           = newError(ErrBadRequest, "standings export is not configured")
)

// repoErrors maps repository sentinels onto service errors.
var repoErrors = []struct {
	repo error
	svc  error
}{
	{repositories.ErrEventNotFound, ErrEventNotFound},
	{repositories.ErrParticipantNotFound, ErrParticipantNotFound},
	{repositories.ErrParticipantConflict, ErrParticipantConflict},
	{repositories.ErrParticipantInvalid, ErrInvalidReference},
	{repositories.ErrStageNotFound, ErrStageNotFound},
	{repositories.ErrStageEventInvalid, ErrEventNotFound},
	{repositories.ErrColumnNotFound, ErrColumnNotFound},
	{repositories.ErrColumnStageInvalid, ErrStageNotFound},
	{repositories.ErrColumnValueReference, ErrInvalidReference},
	{repositories.ErrQualifierNotFound, ErrQualifierNotFound},
	{repositories.ErrQualifierConflict, ErrQualifierConflict},
	{repositories.ErrQualifierReference, ErrInvalidReference},
	{repositories.ErrGroupNotFound, ErrGroupNotFound},
	{repositories.ErrGroupReference, ErrInvalidReference},
	{repositories.ErrGroupMemberNotFound, ErrGroupMemberNotFound},
	{repositories.ErrGroupMemberConflict, ErrGroupMemberConflict},
	{repositories.ErrGroupMemberReference, ErrInvalidReference},
	{repositories.ErrTiesheetNotFound, ErrTiesheetNotFound},
	{repositories.ErrTiesheetReference, ErrInvalidReference},
	{repositories.ErrTiesheetPlayerNotFound, ErrTiesheetPlayerNotFound},
	{repositories.ErrTiesheetPlayerConflict, ErrTiesheetPlayerExists},
	{repositories.ErrTiesheetPlayerReference, ErrInvalidReference},
	{repositories.ErrMatchNotFound, ErrMatchNotFound},
	{repositories.ErrMatchReference, ErrTiesheetNotFound},
	{repositories.ErrMatchScoreNotFound, ErrMatchScoreNotFound},
	{repositories.ErrMatchScoreConflict, ErrMatchScoreConflict},
	{repositories.ErrMatchScoreReference, ErrInvalidReference},
}

// handleRepositoryError translates a repository error. Errors that are
// already service errors pass through; unknown ones become ErrInternal.
func handleRepositoryError(err error, op string) error {
	if err == nil {
		return nil
	}
	var ke *kindError
	if errors.As(err, &ke) {
		return err
	}
	for _, m := range repoErrors {
		if errors.Is(err, m.repo) {
			return m.svc
		}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}
