package api

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"scenescribe/pipeline"
)

// PipelineRunner produces a scene-aligned narration script for a video.
type PipelineRunner interface {
	Run(ctx context.Context, in pipeline.RunInput) (*pipeline.Result, error)
}

// DirectRunner produces a timed script from the whole video in one call.
type DirectRunner interface {
	Run(ctx context.Context, videoPath string) (*pipeline.TimedScriptResult, error)
}

// Job statuses reported by the jobs endpoint.
const (
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// Job tracks one asynchronous narration request.
type Job struct {
	ID         string                      `json:"job_id"`
	Status     string                      `json:"status"`
	StartedAt  time.Time                   `json:"started_at"`
	FinishedAt *time.Time                  `json:"finished_at,omitempty"`
	Error      string                      `json:"error,omitempty"`
	Result     *pipeline.Result            `json:"result,omitempty"`
	Timed      *pipeline.TimedScriptResult `json:"timed_result,omitempty"`
}

// Server handles HTTP API requests for narration jobs.
type Server struct {
	runner PipelineRunner
	direct DirectRunner

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewServer creates a new API server instance.
func NewServer(runner PipelineRunner, direct DirectRunner) *Server {
	return &Server{
		runner: runner,
		direct: direct,
		jobs:   make(map[string]*Job),
	}
}

// RegisterNarrationRoutes registers narration endpoints.
func (s *Server) RegisterNarrationRoutes(r *gin.Engine) {
	g := r.Group("/api")
	g.POST("/narrate", s.handleNarrate)
	g.POST("/direct-script", s.handleDirectScript)
	g.GET("/jobs/:id", s.handleGetJob)
}

// NarrateRequest represents the request to run the scene narration pipeline.
type NarrateRequest struct {
	VideoPath  string  `json:"video_path" binding:"required"`
	Subject    string  `json:"subject"`
	Timestamps string  `json:"timestamps" binding:"required"`
	Duration   float64 `json:"duration"`
}

// DirectScriptRequest represents the request for single-call script generation.
type DirectScriptRequest struct {
	VideoPath string `json:"video_path" binding:"required"`
}

// NarrateResponse acknowledges an accepted job.
type NarrateResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleNarrate(c *gin.Context) {
	var req NarrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job := s.newJob()
	log.Printf("Received narration request: job_id=%s video=%s", job.ID, req.VideoPath)

	// Process asynchronously; the response returns immediately with the job id.
	go func() {
		result, err := s.runner.Run(context.Background(), pipeline.RunInput{
			VideoPath:  req.VideoPath,
			Subject:    req.Subject,
			Timestamps: req.Timestamps,
			Duration:   req.Duration,
		})
		s.finishJob(job.ID, err, func(j *Job) { j.Result = result })
	}()

	c.JSON(http.StatusAccepted, NarrateResponse{
		JobID:   job.ID,
		Status:  JobRunning,
		Message: "Narration started",
	})
}

func (s *Server) handleDirectScript(c *gin.Context) {
	var req DirectScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job := s.newJob()
	log.Printf("Received direct script request: job_id=%s video=%s", job.ID, req.VideoPath)

	go func() {
		result, err := s.direct.Run(context.Background(), req.VideoPath)
		s.finishJob(job.ID, err, func(j *Job) { j.Timed = result })
	}()

	c.JSON(http.StatusAccepted, NarrateResponse{
		JobID:   job.ID,
		Status:  JobRunning,
		Message: "Direct script generation started",
	})
}

func (s *Server) handleGetJob(c *gin.Context) {
	s.mu.Lock()
	job, ok := s.jobs[c.Param("id")]
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) newJob() *Job {
	job := &Job{
		ID:        uuid.NewString(),
		Status:    JobRunning,
		StartedAt: time.Now(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

func (s *Server) finishJob(id string, err error, attach func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return
	}

	now := time.Now()
	job.FinishedAt = &now
	if err != nil {
		log.Printf("Job %s failed: %v", id, err)
		job.Status = JobFailed
		job.Error = err.Error()
		return
	}
	job.Status = JobDone
	attach(job)
}
