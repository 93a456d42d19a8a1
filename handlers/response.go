package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"prepTrackAPI/services"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps service sentinels to status codes and passes
// the underlying error along as details.
func respondWithServiceError(w http.ResponseWriter, err error, message string) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrMissingIdentifier),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidSubmission):
		code = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		code = http.StatusNotFound
	}
	respondWithJSON(w, code, map[string]string{
		"error":   message,
		"details": err.Error(),
	})
}

func problemIDFromPath(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["problemID"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
