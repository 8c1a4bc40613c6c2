package routes

import (
	"net/http"
	"time"
)

var startedAt = time.Now()

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"service": "shorts-sprint-api",
		"status":  "running",
		"endpoints": map[string]string{
			"data":     "/api/data",
			"filters":  "/api/filters",
			"health":   "/health",
			"metrics":  "/metrics",
			"videos":   "/api/videos/list",
			"download": "/api/download-youtube",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"uptime": time.Since(startedAt).Round(time.Second).String(),
	})
}

// handleHealthDetailed checks each subsystem individually so operators
// can tell a dead sheet from a dead disk.
func (s *Server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	healthy := true

	if s.Reader.Healthy(r.Context()) {
		checks["sheet"] = "ok"
	} else {
		checks["sheet"] = "unreachable"
		healthy = false
	}

	if _, err := s.Store.Stats(); err == nil {
		checks["video_storage"] = "ok"
	} else {
		checks["video_storage"] = "unavailable"
		healthy = false
	}

	checks["active_downloads"] = "ok"
	status := http.StatusOK
	overall := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	s.writeJSON(w, status, map[string]any{
		"success":          healthy,
		"status":           overall,
		"checks":           checks,
		"active_downloads": s.Registry.Active(),
		"uptime":           time.Since(startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snap := s.Counters.Snapshot()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"requests": map[string]any{
			"total":        snap.Total,
			"successful":   snap.Successful,
			"failed":       snap.Failed,
			"success_rate": snap.SuccessRate,
		},
		"active_downloads": s.Registry.Active(),
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.Reader.ClearCaches()
	s.Log.Info().Msg("all caches cleared by request")
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "all caches cleared",
	})
}
