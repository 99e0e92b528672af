package handlers

import "net/http"

// HealthCheck reports that the gateway is up. It does not probe the
// condominium service.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
