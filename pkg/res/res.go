package res

import (
	"encoding/json"
	"net/http"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorBody is the envelope every failed call replies with.
type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func Json(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func Fail(w http.ResponseWriter, message string, statusCode int) {
	Json(w, ErrorBody{Status: StatusError, Message: message}, statusCode)
}
