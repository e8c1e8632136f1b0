package web

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/sweeney/round-timer/internal/status"
)

// IntentResponse is returned by POST /api/intents/{intent}.
type IntentResponse struct {
	Intent  string             `json:"intent"`
	Applied bool               `json:"applied"`
	Workout status.WorkoutJSON `json:"workout"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Phase         string `json:"phase"`
	MQTTConnected bool   `json:"mqtt_connected"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ErrorResponse is the body of every non-2xx API reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg})
}
