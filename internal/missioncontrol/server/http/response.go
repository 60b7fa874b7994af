package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
	"github.com/autopeer-io/missioncontrol/pkg/log"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrMissionNotFound), errors.Is(err, model.ErrCommandNotFound),
		errors.Is(err, model.ErrArchiveNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateMission), errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(err, "Failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error(err, "Request failed")
	}
	writeJSON(w, code, ErrorResponse{Error: err.Error()})
}

// decode reads a single JSON document into v. Unknown fields are rejected.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return model.Validationf("request body is empty")
		}
		return model.Validationf("invalid request body: %v", err)
	}
	if dec.More() {
		return model.Validationf("request body must contain a single JSON document")
	}
	return nil
}
