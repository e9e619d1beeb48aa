package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tonnahe171051/poolmate-sub000/brackets"
	"github.com/tonnahe171051/poolmate-sub000/repositories"
	"github.com/tonnahe171051/poolmate-sub000/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	if err = dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	js, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(js)
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, jsonResponse{"error": message})
}

func badRequest(w http.ResponseWriter, err error) {
	errorResponse(w, http.StatusBadRequest, err.Error())
}

func urlParamInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return v, nil
}

// mapServiceError translates the service error taxonomy into HTTP status
// codes. Concurrency conflicts get 409 with enough payload to retry.
func mapServiceError(w http.ResponseWriter, err error) {
	var versionConflict *repositories.VersionConflictError
	var locked *services.MatchLockedError

	switch {
	case errors.As(err, &versionConflict):
		writeJSON(w, http.StatusConflict, jsonResponse{
			"error":           "match was modified concurrently",
			"match_id":        versionConflict.MatchID,
			"current_version": versionConflict.CurrentVersion,
		})
	case errors.As(err, &locked):
		writeJSON(w, http.StatusConflict, jsonResponse{
			"error":      "match score is locked by another operator",
			"held_by":    locked.Holder.OwnerID,
			"expires_at": locked.Holder.ExpiresAt,
		})
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrInvalidScore),
		errors.Is(err, services.ErrNotEnoughEntrants):
		errorResponse(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrAuthenticationFailed):
		errorResponse(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden):
		errorResponse(w, http.StatusForbidden, err.Error())
	case errors.Is(err, repositories.ErrMatchNotFound),
		errors.Is(err, repositories.ErrStageNotFound),
		errors.Is(err, repositories.ErrTournamentNotFound),
		errors.Is(err, repositories.ErrParticipantNotFound),
		errors.Is(err, repositories.ErrTableNotFound),
		errors.Is(err, repositories.ErrOperatorNotFound),
		errors.Is(err, services.ErrBracketNotFound):
		errorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrBracketExists),
		errors.Is(err, services.ErrBracketInPlay),
		errors.Is(err, brackets.ErrNoFinalResult),
		errors.Is(err, services.ErrTableBusy),
		errors.Is(err, services.ErrTableNotOpen),
		errors.Is(err, services.ErrMatchHasTable),
		errors.Is(err, services.ErrMatchNotEditable),
		errors.Is(err, services.ErrMatchNotReady),
		errors.Is(err, services.ErrStageNotCompletable),
		errors.Is(err, services.ErrTournamentCompleted),
		errors.Is(err, repositories.ErrTournamentNameExists),
		errors.Is(err, repositories.ErrTableNameExists),
		errors.Is(err, repositories.ErrOperatorEmailExists),
		errors.Is(err, repositories.ErrDuplicateSeedRank):
		errorResponse(w, http.StatusConflict, err.Error())
	default:
		errorResponse(w, http.StatusInternalServerError, "internal server error")
	}
}
