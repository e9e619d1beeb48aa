package handlers

import (
	"net/http"

	"github.com/tonnahe171051/poolmate-sub000/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bracketService services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bracketService}
}

func (h *BracketHandler) Preview(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequest(w, err)
		return
	}
	var input services.BracketInput
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequest(w, err)
			return
		}
	}
	view, err := h.bracketService.PreviewBracket(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *BracketHandler) Create(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequest(w, err)
		return
	}
	var input services.BracketInput
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequest(w, err)
			return
		}
	}
	view, err := h.bracketService.CreateBracket(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *BracketHandler) Get(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequest(w, err)
		return
	}
	view, err := h.bracketService.GetBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *BracketHandler) CompleteStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := urlParamInt(r, "stageID")
	if err != nil {
		badRequest(w, err)
		return
	}
	// The body configures the next stage and may be omitted entirely.
	var next services.BracketInput
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &next); err != nil {
			badRequest(w, err)
			return
		}
	}
	result, err := h.bracketService.CompleteStage(r.Context(), stageID, next)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *BracketHandler) Reset(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := h.bracketService.ResetBracket(r.Context(), tournamentID); err != nil {
		mapServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BracketHandler) Standings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequest(w, err)
		return
	}
	standings, err := h.bracketService.Standings(r.Context(), tournamentID)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{
		"tournament_id": tournamentID,
		"standings":     standings,
	})
}
