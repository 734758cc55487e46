package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/card-validation-bfa-go/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeClientResponse writes a validation response with the mandatory CORS headers.
func writeClientResponse(w http.ResponseWriter, resp domain.ClientResponse) {
	for k, v := range domain.ResponseHeaders() {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	json.NewEncoder(w).Encode(resp.Body)
}
