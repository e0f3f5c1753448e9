package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-engine/services"
)

const defaultStandingsLimit = 10

type StandingsHandler struct {
	standingsService services.StandingsService
	exportService    services.ExportService
}

func NewStandingsHandler(ss services.StandingsService, es services.ExportService) *StandingsHandler {
	return &StandingsHandler{standingsService: ss, exportService: es}
}

// PivotStandings accepts ?stage_id=, ?page= and ?limit=.
func (h *StandingsHandler) PivotStandings(w http.ResponseWriter, r *http.Request) {
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
	page, err := intQuery(r, "page", 1)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit", defaultStandingsLimit)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.standingsService.PivotStandings(r.Context(), eventID, stageID, page, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, standings, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StandingsHandler) GroupStandings(w http.ResponseWriter, r *http.Request) {
	eventID, err := getUUIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stages, err := h.standingsService.GroupStandings(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stages": stages}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StandingsHandler) ExportStandings(w http.ResponseWriter, r *http.Request) {
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
	result, err := h.exportService.ExportStandings(r.Context(), eventID, stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"export": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
