// Package httpx provides JSON request/response helpers shared by the HTTP APIs.
package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	apperrors "github.com/teamsplit/teamsplit/internal/platform/errors"
)

// WriteJSON writes value as a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if value == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(value); err != nil {
		log.Printf("write json response: %v", err)
	}
}

// errorBody is the wire shape for failed requests.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// WriteError maps a platform error to its HTTP status and writes a JSON body.
// Errors without a platform code become 500s with an opaque message.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		log.Printf("internal error: %v", err)
		appErr = apperrors.New(apperrors.CodeUnknown, "internal error")
	}
	var body errorBody
	body.Error.Code = string(appErr.Code)
	body.Error.Message = appErr.Message
	WriteJSON(w, appErr.Code.HTTPStatus(), body)
}

// Decode parses the request body as JSON into value, rejecting unknown fields.
func Decode(r *http.Request, value any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(value); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidRequest, "invalid request body", err)
	}
	return nil
}
