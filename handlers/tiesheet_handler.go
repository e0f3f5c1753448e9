package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-engine/services"
)

type TiesheetHandler struct {
	tiesheetService services.TiesheetService
	matchService    services.MatchService
}

func NewTiesheetHandler(ts services.TiesheetService, ms services.MatchService) *TiesheetHandler {
	return &TiesheetHandler{tiesheetService: ts, matchService: ms}
}

// ListTiesheets accepts ?stage_id= and ?today=true.
func (h *TiesheetHandler) ListTiesheets(w http.ResponseWriter, r *http.Request) {
	eventID, err := getUUIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageID, err := optionalUUIDQuery(r, "stage_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	today, err := boolQuery(r, "today")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tiesheets, err := h.tiesheetService.ListTiesheets(r.Context(), eventID, stageID, today)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tiesheets": tiesheets}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TiesheetHandler) CreateTiesheet(w http.ResponseWriter, r *http.Request) {
	stageID, err := getUUIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.TiesheetInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.StageID = stageID
	tiesheet, err := h.tiesheetService.CreateTiesheet(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tiesheet": tiesheet}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TiesheetHandler) GetTiesheet(w http.ResponseWriter, r *http.Request) {
	tiesheetID, err := getUUIDFromURL(r, "tiesheetID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	detail, err := h.tiesheetService.GetTiesheet(r.Context(), tiesheetID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tiesheet": detail}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TiesheetHandler) EditTiesheet(w http.ResponseWriter, r *http.Request) {
	tiesheetID, err := getUUIDFromURL(r, "tiesheetID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.EditTiesheetInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	detail, err := h.tiesheetService.EditTiesheet(r.Context(), tiesheetID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tiesheet": detail}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TiesheetHandler) DeleteTiesheet(w http.ResponseWriter, r *http.Request) {
	tiesheetID, err := getUUIDFromURL(r, "tiesheetID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.tiesheetService.DeleteTiesheet(r.Context(), tiesheetID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ScheduleStage seeds the stage's qualifiers by standings into new tiesheets.
func (h *TiesheetHandler) ScheduleStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := getUUIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.ScheduleInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tiesheets, err := h.tiesheetService.ScheduleStage(r.Context(), stageID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tiesheets": tiesheets}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TiesheetHandler) RecordMatches(w http.ResponseWriter, r *http.Request) {
	tiesheetID, err := getUUIDFromURL(r, "tiesheetID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.RecordMatchesInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matches, err := h.matchService.RecordMatches(r.Context(), tiesheetID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TiesheetHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	tiesheetID, err := getUUIDFromURL(r, "tiesheetID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matches, err := h.matchService.ListMatches(r.Context(), tiesheetID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TiesheetHandler) GetOverallScore(w http.ResponseWriter, r *http.Request) {
	tiesheetID, err := getUUIDFromURL(r, "tiesheetID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	results, err := h.matchService.GetOverallScore(r.Context(), tiesheetID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TiesheetHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getUUIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.matchService.DeleteMatch(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
