package api

import (
	"encoding/json"
	"net/http"
)

// CodeOK is the envelope code of a successful call.
const CodeOK = http.StatusOK

// Envelope is the server's response wrapper.
type Envelope struct {
	Code    *int            `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Size          int   `json:"size"`
	Number        int   `json:"number"`
}

// HasNext reports whether another page follows.
func (p Page[T]) HasNext() bool {
	return p.Number+1 < p.TotalPages
}

// errorBody is what non-2xx responses usually carry.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// messageFrom extracts a human message from an error response body.
func messageFrom(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Message != "" {
		return eb.Message
	}
	return eb.Error
}
