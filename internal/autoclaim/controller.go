package autoclaim

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"autoclaim/internal/shared/utils/response"
)

// StatusReporter exposes scheduler state for the admin surface.
type StatusReporter interface {
	GetJobStatus() map[string]interface{}
}

type Controller interface {
	RunSweep(c *gin.Context)
	RefreshFeed(c *gin.Context)
	GetStatus(c *gin.Context)
}

type controller struct {
	pipeline *Pipeline
	feed     FeedRefresher
	jobs     StatusReporter
	now      func() time.Time
}

// NewController builds the admin controller. feed and jobs may be nil.
func NewController(pipeline *Pipeline, feed FeedRefresher, jobs StatusReporter) Controller {
	return &controller{pipeline: pipeline, feed: feed, jobs: jobs, now: time.Now}
}

// RunSweep handles POST /api/v1/admin/pipeline/sweep
func (ctrl *controller) RunSweep(c *gin.Context) {
	stats, err := ctrl.pipeline.Sweep(c.Request.Context(), ctrl.now().UTC())
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Sweep failed", nil, err.Error())
		return
	}

	notices, err := ctrl.pipeline.NotifyApproachingDeadlines(c.Request.Context(), ctrl.now().UTC())
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Deadline check failed", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Sweep completed", gin.H{
		"sweep":            stats,
		"deadline_notices": notices,
	}, nil)
}

// RefreshFeed handles POST /api/v1/admin/pipeline/refresh-feed
func (ctrl *controller) RefreshFeed(c *gin.Context) {
	if ctrl.feed == nil {
		response.RespondJSON(c, "error", http.StatusServiceUnavailable, "Train feed is not configured", nil, nil)
		return
	}

	records, err := ctrl.feed.Refresh(c.Request.Context())
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadGateway, "Train feed refresh failed", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Train feed refreshed", gin.H{"records": records}, nil)
}

// GetStatus handles GET /api/v1/admin/pipeline/status
func (ctrl *controller) GetStatus(c *gin.Context) {
	if ctrl.jobs == nil {
		response.RespondJSON(c, "success", http.StatusOK, "Background jobs are not running", gin.H{"running": false}, nil)
		return
	}

	status := ctrl.jobs.GetJobStatus()
	status["running"] = true
	response.RespondJSON(c, "success", http.StatusOK, "Pipeline status retrieved successfully", status, nil)
}
