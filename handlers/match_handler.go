package handlers

import (
	"net/http"

	"github.com/tonnahe171051/poolmate-sub000/middleware"
	"github.com/tonnahe171051/poolmate-sub000/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func operatorName(r *http.Request) string {
	if claims := middleware.OperatorFromContext(r.Context()); claims != nil {
		return claims.Subject
	}
	return ""
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequest(w, err)
		return
	}
	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *MatchHandler) AcquireLock(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequest(w, err)
		return
	}
	lock, err := h.matchService.AcquireScoreLock(r.Context(), matchID, operatorName(r))
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lock)
}

func (h *MatchHandler) ReleaseLock(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequest(w, err)
		return
	}
	var input struct {
		LockID string `json:"lock_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequest(w, err)
		return
	}
	if err := h.matchService.ReleaseScoreLock(r.Context(), matchID, operatorName(r), input.LockID); err != nil {
		mapServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MatchHandler) readScoreInput(w http.ResponseWriter, r *http.Request) (int, services.ScoreInput, bool) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequest(w, err)
		return 0, services.ScoreInput{}, false
	}
	var input services.ScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequest(w, err)
		return 0, services.ScoreInput{}, false
	}
	input.Operator = operatorName(r)
	return matchID, input, true
}

func (h *MatchHandler) UpdateLiveScore(w http.ResponseWriter, r *http.Request) {
	matchID, input, ok := h.readScoreInput(w, r)
	if !ok {
		return
	}
	result, err := h.matchService.UpdateLiveScore(r.Context(), matchID, input)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *MatchHandler) Complete(w http.ResponseWriter, r *http.Request) {
	matchID, input, ok := h.readScoreInput(w, r)
	if !ok {
		return
	}
	match, err := h.matchService.CompleteMatch(r.Context(), matchID, input)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *MatchHandler) Correct(w http.ResponseWriter, r *http.Request) {
	matchID, input, ok := h.readScoreInput(w, r)
	if !ok {
		return
	}
	match, err := h.matchService.CorrectResult(r.Context(), matchID, input)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *MatchHandler) AssignTable(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequest(w, err)
		return
	}
	var input struct {
		TableID int    `json:"table_id"`
		Version string `json:"version"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequest(w, err)
		return
	}
	match, err := h.matchService.AssignTable(r.Context(), matchID, input.TableID, input.Version)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *MatchHandler) ReleaseTable(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequest(w, err)
		return
	}
	var input struct {
		Version string `json:"version"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequest(w, err)
		return
	}
	match, err := h.matchService.ReleaseTable(r.Context(), matchID, input.Version)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}
