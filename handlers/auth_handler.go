package handlers

import (
	"net/http"

	"github.com/tonnahe171051/poolmate-sub000/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequest(w, err)
		return
	}
	operator, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	operator.PasswordHash = ""
	writeJSON(w, http.StatusCreated, operator)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequest(w, err)
		return
	}
	operator, token, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	operator.PasswordHash = ""
	writeJSON(w, http.StatusOK, jsonResponse{"token": token, "operator": operator})
}
