package http

import (
	"net/http"
	"time"

	applog "cmoney/internal/log"
)

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

type readyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Requests int64  `json:"requests"`
	Limited  int64  `json:"rate_limited"`
	Probes   int64  `json:"blocked_probes"`
	Sessions int    `json:"cached_sessions"`
}

// handleHealth reports liveness only.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(healthResponse{
		Status: "ok",
		Uptime: time.Since(s.startedAt).Truncate(time.Second).String(),
	}).Write(w)
}

// handleReady reports readiness: the database must answer a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := readyResponse{
		Status:   "ready",
		Database: "ok",
		Requests: s.tracer.GetMetrics().TotalRequests,
		Limited:  s.rateLimit.GetMetrics().Rejected,
		Probes:   s.detector.GetMetrics().BlockedRequests,
		Sessions: s.authCache.Size(),
	}
	status := http.StatusOK
	if err := s.repo.Ping(r.Context()); err != nil {
		s.logger.Warn("Readiness check failed", applog.FieldError, err)
		resp.Status = "not ready"
		resp.Database = "unavailable"
		status = http.StatusServiceUnavailable
	}
	NewJSONResponse().Status(status).Body(resp).Write(w)
}
