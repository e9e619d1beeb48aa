package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tonnahe171051/poolmate-sub000/brackets"
	"github.com/tonnahe171051/poolmate-sub000/repositories"
	"github.com/tonnahe171051/poolmate-sub000/services"
)

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"standings before a decided final", brackets.ErrNoFinalResult, http.StatusConflict},
		{"bracket already exists", services.ErrBracketExists, http.StatusConflict},
		{"validation failure", services.ErrValidationFailed, http.StatusUnprocessableEntity},
		{"missing match", repositories.ErrMatchNotFound, http.StatusNotFound},
		{"unmapped errors stay internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
