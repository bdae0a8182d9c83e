// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// Envelope wraps every API response body. Exactly one of Data or Error is set.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK returns a successful envelope carrying data.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Fail returns an error envelope with a human readable message.
func Fail(message string) Envelope {
	return Envelope{Success: false, Error: message}
}
