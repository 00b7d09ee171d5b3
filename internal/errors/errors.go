package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

var (
	ErrMissingAPIKey = errors.New("NIM_API_KEY not set")
	ErrMalformedBody = errors.New("malformed request body")
	ErrUnknownModel  = errors.New("not supported")
)

type jsonError struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// WriteJSONError writes {"error": <status text>, "detail": message}.
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	body := jsonError{
		Error:  http.StatusText(statusCode),
		Detail: message,
	}
	_ = json.NewEncoder(w).Encode(body)
}
