package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/terminally-online/typewriter/internal/apperr"
)

type ResultEnvelope struct {
	Result struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
}

type ErrorBody struct {
	Code       apperr.Code `json:"code"`
	Message    string      `json:"message"`
	HTTPStatus int         `json:"httpStatus"`
}

type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

func writeData(w http.ResponseWriter, data json.RawMessage) {
	var env ResultEnvelope
	env.Result.Data = data
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(env)
}

// writeError renders err as an error envelope. Causes of internal errors stay
// server side.
func writeError(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	message := "internal server error"
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	status := code.HTTPStatus()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{Error: ErrorBody{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}})
}
