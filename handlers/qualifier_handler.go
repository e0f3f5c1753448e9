package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-engine/services"
	"github.com/google/uuid"
)

type QualifierHandler struct {
	qualifierService services.QualifierService
}

func NewQualifierHandler(qs services.QualifierService) *QualifierHandler {
	return &QualifierHandler{qualifierService: qs}
}

type participantsInput struct {
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
}

func (h *QualifierHandler) AddQualifiers(w http.ResponseWriter, r *http.Request) {
	eventID, err := getUUIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageID, err := getUUIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input participantsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	qualifiers, err := h.qualifierService.AddQualifiers(r.Context(), eventID, stageID, input.ParticipantIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"qualifiers": qualifiers}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Promote qualifies participants of the stage in the URL for another stage.
func (h *QualifierHandler) Promote(w http.ResponseWriter, r *http.Request) {
	eventID, err := getUUIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	fromStageID, err := getUUIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		ToStageID      uuid.UUID   `json:"to_stage_id"`
		ParticipantIDs []uuid.UUID `json:"participant_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	qualifiers, err := h.qualifierService.Promote(r.Context(), eventID, fromStageID, input.ToStageID, input.ParticipantIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"qualifiers": qualifiers}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *QualifierHandler) RegisterParticipant(w http.ResponseWriter, r *http.Request) {
	eventID, err := getUUIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		ParticipantID uuid.UUID `json:"participant_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	qualifier, err := h.qualifierService.RegisterParticipant(r.Context(), eventID, input.ParticipantID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"qualifier": qualifier}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListUnassigned supports ?excluding_group_id= for editing an existing group.
func (h *QualifierHandler) ListUnassigned(w http.ResponseWriter, r *http.Request) {
	eventID, err := getUUIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageID, err := getUUIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	excluding, err := optionalUUIDQuery(r, "excluding_group_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participants, err := h.qualifierService.ListUnassigned(r.Context(), eventID, stageID, excluding)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *QualifierHandler) ListQualifiers(w http.ResponseWriter, r *http.Request) {
	stageID, err := getUUIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	qualifiers, err := h.qualifierService.ListQualifiers(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"qualifiers": qualifiers}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *QualifierHandler) ListQualifiersByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := getUUIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stages, err := h.qualifierService.ListQualifiersByEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stages": stages}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *QualifierHandler) DeleteQualifier(w http.ResponseWriter, r *http.Request) {
	qualifierID, err := getUUIDFromURL(r, "qualifierID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.qualifierService.DeleteQualifier(r.Context(), qualifierID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
