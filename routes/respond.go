package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"manimserve/job"
	"manimserve/logger"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// statusFor maps the dispatch error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case job.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, job.ErrDuplicateID):
		return http.StatusConflict
	case job.IsAdmissionError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
