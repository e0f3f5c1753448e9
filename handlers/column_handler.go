package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-engine/services"
)

type ColumnHandler struct {
	columnService services.ColumnService
}

func NewColumnHandler(cs services.ColumnService) *ColumnHandler {
	return &ColumnHandler{columnService: cs}
}

func (h *ColumnHandler) ListColumns(w http.ResponseWriter, r *http.Request) {
	stageID, err := getUUIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	columns, err := h.columnService.ListColumns(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"columns": columns}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ColumnHandler) CreateColumn(w http.ResponseWriter, r *http.Request) {
	stageID, err := getUUIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.ColumnInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	column, err := h.columnService.CreateColumn(r.Context(), stageID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"column": column}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ColumnHandler) UpdateColumn(w http.ResponseWriter, r *http.Request) {
	columnID, err := getUUIDFromURL(r, "columnID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var update services.ColumnUpdate
	if err := readJSON(w, r, &update); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	column, err := h.columnService.UpdateColumn(r.Context(), columnID, update)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"column": column}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ColumnHandler) DeleteColumn(w http.ResponseWriter, r *http.Request) {
	columnID, err := getUUIDFromURL(r, "columnID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.columnService.DeleteColumn(r.Context(), columnID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetValue upserts one participant's value for a column.
func (h *ColumnHandler) SetValue(w http.ResponseWriter, r *http.Request) {
	columnID, err := getUUIDFromURL(r, "columnID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participantID, err := getUUIDFromURL(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Value string `json:"value"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.columnService.SetValue(r.Context(), participantID, columnID, input.Value); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ColumnHandler) GetValues(w http.ResponseWriter, r *http.Request) {
	stageID, err := getUUIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participantID, err := getUUIDFromURL(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	values, err := h.columnService.GetValuesForParticipant(r.Context(), participantID, stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"values": values}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
