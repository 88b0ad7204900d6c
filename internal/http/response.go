package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"donors/internal/core"
	"donors/internal/log"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	// SettlementRef is set only for charges that settled without a record.
	SettlementRef string `json:"settlement_ref,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// writeError maps a service error onto a status code and logs it.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	fields := log.NewFields().
		WithOperation(r.Method + " " + r.URL.Path).
		WithError(err).
		WithErrorType(body.Error)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		if body.SettlementRef != "" {
			fields[log.FieldSettlementRef] = body.SettlementRef
		}
		logger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
	} else {
		logger.InfoContext(r.Context(), "Request rejected", fields.ToSlice()...)
	}
	writeJSON(w, status, body)
}

func classify(err error) (int, errorBody) {
	var cnr *core.ChargedNotRecordedError
	switch {
	case errors.As(err, &cnr):
		return http.StatusInternalServerError, errorBody{
			Error:         log.ErrorTypeInconsistent,
			Message:       "payment was charged but the donation could not be recorded",
			SettlementRef: cnr.SettlementRef,
		}
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, errorBody{Error: "bad_request", Message: err.Error()}
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity, errorBody{Error: log.ErrorTypeValidation, Message: err.Error()}
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: log.ErrorTypeNotFound, Message: err.Error()}
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, errorBody{Error: log.ErrorTypeConflict, Message: err.Error()}
	case errors.Is(err, core.ErrConfiguration):
		return http.StatusServiceUnavailable, errorBody{Error: log.ErrorTypeConfiguration, Message: err.Error()}
	case errors.Is(err, core.ErrGateway):
		return http.StatusBadGateway, errorBody{Error: log.ErrorTypeGateway, Message: err.Error()}
	}
	return http.StatusInternalServerError, errorBody{Error: log.ErrorTypeInternal, Message: "internal error"}
}
