package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"podbrief/internal/common"
	"podbrief/internal/jobs"
	"podbrief/internal/youtube"
)

type createJobReq struct {
	YoutubeURL        string `json:"youtube_url" binding:"required"`
	NotificationEmail string `json:"notification_email" binding:"omitempty,email"`
}

func (h *Handler) CreateJob(c *gin.Context) {
	var req createJobReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid request body")
		return
	}

	videoID := youtube.ExtractVideoID(req.YoutubeURL)
	if videoID == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "invalid YouTube URL; please enter a valid YouTube video URL")
		return
	}

	// Verify the video exists and pick up title/thumbnail for display.
	meta, err := h.YouTube.FetchMetadata(c.Request.Context(), videoID)
	if err != nil || meta == nil {
		common.Fail(c, http.StatusBadRequest, 10003, "could not fetch video information; the video may be private or unavailable")
		return
	}

	jobID, err := jobs.NewJobID()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create job")
		return
	}

	job := &jobs.Job{
		ID:                jobID,
		Status:            jobs.StatusPending,
		Progress:          jobs.Progress{Stage: jobs.StatusPending, Message: "Job created"},
		YoutubeURL:        req.YoutubeURL,
		YoutubeID:         videoID,
		VideoTitle:        meta.Title,
		VideoChannel:      meta.Channel,
		VideoThumbnailURL: meta.ThumbnailURL,
	}
	if req.NotificationEmail != "" {
		job.NotificationEmail = &req.NotificationEmail
	}

	if err := h.Repo.CreateJob(c.Request.Context(), job); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create job")
		return
	}

	if err := h.Publisher.PublishJob(c.Request.Context(), jobID); err != nil {
		log.Printf("job %s enqueue failed: %v", jobID, err)
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to enqueue job")
		return
	}

	common.OK(c, gin.H{
		"job_id":        jobID,
		"shareable_url": h.Cfg.AppURL + "/job/" + jobID,
	})
}

func (h *Handler) GetJob(c *gin.Context) {
	jobID := c.Param("id")

	job, err := h.Repo.GetJob(c.Request.Context(), jobID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to load job")
		return
	}
	if job == nil {
		common.Fail(c, http.StatusNotFound, 40401, "job not found")
		return
	}

	// Overlay cached progress while the job is in flight; the worker
	// writes it more often than the DB row is worth re-reading.
	if h.Cache != nil && job.Status != jobs.StatusCompleted && job.Status != jobs.StatusFailed {
		if p, err := h.Cache.GetProgress(c.Request.Context(), jobID); err == nil && p != nil {
			job.Progress = *p
		}
	}

	resp := gin.H{"job": job}

	transcript, err := h.Repo.GetTranscript(c.Request.Context(), jobID)
	if err == nil && transcript != nil {
		resp["transcript"] = transcript
	}

	if job.Status == jobs.StatusCompleted {
		summary, err := h.Repo.GetSummary(c.Request.Context(), jobID)
		if err == nil && summary != nil {
			resp["summary"] = summary
		}
	}

	common.OK(c, resp)
}

// StartJob re-enqueues a pending or failed job. Failed jobs are reset to
// pending first so the status transition stays monotonic per run.
func (h *Handler) StartJob(c *gin.Context) {
	jobID := c.Param("id")

	job, err := h.Repo.GetJob(c.Request.Context(), jobID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to load job")
		return
	}
	if job == nil {
		common.Fail(c, http.StatusNotFound, 40401, "job not found")
		return
	}
	if job.Status != jobs.StatusPending && job.Status != jobs.StatusFailed {
		common.Fail(c, http.StatusConflict, 40901, "job already processed or in progress")
		return
	}

	if job.Status == jobs.StatusFailed {
		if err := h.Repo.UpdateJobProgress(c.Request.Context(), jobID, jobs.StatusPending,
			jobs.Progress{Stage: jobs.StatusPending, Message: "Job requeued"}); err != nil {
			common.Fail(c, http.StatusInternalServerError, 50003, "failed to requeue job")
			return
		}
	}

	if err := h.Publisher.PublishJob(c.Request.Context(), jobID); err != nil {
		log.Printf("job %s enqueue failed: %v", jobID, err)
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to enqueue job")
		return
	}

	common.OK(c, gin.H{"job_id": jobID})
}

func (h *Handler) ListJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	list, err := h.Repo.ListRecentJobs(c.Request.Context(), limit)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to list jobs")
		return
	}
	common.OK(c, gin.H{"jobs": list})
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}
