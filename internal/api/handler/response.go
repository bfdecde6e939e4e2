package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hszk-dev/mediacache/internal/domain/model"
)

// Fallback body for errors outside the taxonomy.
const (
	internalErrorMessage = "Internal Server Error"
	internalErrorCode    = "InternalServerError"
)

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", slog.String("error", err.Error()))
		}
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func Error(w http.ResponseWriter, status int, message, code string) {
	JSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// InternalError writes the generic 500 body without leaking err.
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, internalErrorMessage, internalErrorCode)
}

// WriteError maps err onto the error taxonomy. Unclassified errors become a
// generic 500.
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := model.AsError(err)
	if !ok {
		InternalError(w)
		return
	}
	Error(w, appErr.Kind.HTTPStatus(), appErr.Message, string(appErr.Kind))
}
