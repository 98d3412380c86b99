package common

import (
	"github.com/google/uuid"
)

// GenerateUUID generates a new UUID string.
func GenerateUUID() string {
	return uuid.New().String()
}

// APIResponse is the standard success envelope.
type APIResponse struct {
	Message string      `json:"message"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// OK builds a success envelope.
func OK(message string, data interface{}) APIResponse {
	return APIResponse{Message: message, Success: true, Data: data}
}
