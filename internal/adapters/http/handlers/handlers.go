// Package handlers agrupa handlers HTTP utilizados para exemplo e verificação.
package handlers

import (
	"encoding/json"
	"net/http"
)

// HealthHandler responde o health check; a rota resolve para a categoria health.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// EchoHandler responde com uma mensagem simples para verificar o pipeline.
func EchoHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Request admitted"})
}
