package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/mememage/mememage/internal/handler/dto"
)

// writeError writes an error envelope. Middleware cannot reach the
// handler package helpers without an import cycle.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.Fail(message))
}
