package handlers

import (
	"net/http"

	"github.com/tonnahe171051/poolmate-sub000/models"
	"github.com/tonnahe171051/poolmate-sub000/services"
)

type TableHandler struct {
	tableService services.TableService
}

func NewTableHandler(tableService services.TableService) *TableHandler {
	return &TableHandler{tableService: tableService}
}

func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequest(w, err)
		return
	}
	table, err := h.tableService.Create(r.Context(), input.Name)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, table)
}

func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.tableService.List(r.Context())
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (h *TableHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	tableID, err := urlParamInt(r, "tableID")
	if err != nil {
		badRequest(w, err)
		return
	}
	var input struct {
		Status models.TableStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequest(w, err)
		return
	}
	if err := h.tableService.SetStatus(r.Context(), tableID, input.Status); err != nil {
		mapServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
