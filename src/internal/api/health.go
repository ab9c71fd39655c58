package api

import (
	"net/http"
)

// CheckHealth reports whether every router produced data in its last cycle.
// GET /health
func (h *Handler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthCheckResponse{
		Healthy: true,
		Checks:  make(map[string]CheckResult),
	}

	deps := h.provider.Dependencies()
	if deps == nil {
		response.Healthy = false
		response.Checks["service"] = CheckResult{Passed: false, Message: "Service is starting"}
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	for _, inst := range deps.Instances() {
		status := inst.Coordinator.Status()
		if status.Available {
			response.Checks[inst.Name()] = CheckResult{Passed: true, Message: "Last poll succeeded"}
			continue
		}

		response.Healthy = false
		msg := "No successful poll yet"
		if status.LastError != "" {
			msg = status.LastError
		}
		response.Checks[inst.Name()] = CheckResult{Passed: false, Message: msg}
	}

	writeJSONData(w, response)
}
