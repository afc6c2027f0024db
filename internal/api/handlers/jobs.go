package handlers

import (
	"net/http"

	"github.com/wonny/rebalancer/internal/scheduler"
)

// JobStatsProvider exposes scheduler statistics
type JobStatsProvider interface {
	GetJobStats() map[string]scheduler.JobStats
}

// JobsHandler reports scheduled job status
type JobsHandler struct {
	stats JobStatsProvider
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(stats JobStatsProvider) *JobsHandler {
	return &JobsHandler{stats: stats}
}

// GetJobs returns statistics for every registered job
// GET /api/jobs
func (h *JobsHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.stats.GetJobStats())
}
