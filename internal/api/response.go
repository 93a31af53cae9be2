// Package api holds the JSON response envelope shared by handlers and middleware.
package api

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope every JSON endpoint answers with.
//
//	{ "success": true, "data": ..., "message": "..." }
//	{ "success": false, "error": "..." }
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes resp with the given status code.
func WriteJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// OK writes a 200 success envelope around data.
func OK(w http.ResponseWriter, data any, message string) {
	WriteJSON(w, http.StatusOK, Response{Success: true, Data: data, Message: message})
}

// Error writes a failure envelope with msg.
func Error(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Response{Success: false, Error: msg})
}
