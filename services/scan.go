package services

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"baton/live"
	"baton/types"
	"baton/websocket"
)

// ErrScanQueueFull is returned when too many scans are already waiting.
var ErrScanQueueFull = errors.New("scan queue is full")

// ScanQueue interface defines the methods for managing scan jobs
type ScanQueue interface {
	Start()
	Enqueue(req types.ScanRequest) (types.ScanJob, error)
	GetJob(id string) (types.ScanJob, bool)
	GetAllJobs() []types.ScanJob
}

// scanQueue manages background session scans. A single worker drains the
// queue because queries to Live serialize on the wire anyway.
type scanQueue struct {
	jobs    map[string]*types.ScanJob
	opts    map[string]types.ScanRequest
	queue   chan *types.ScanJob
	mu      sync.RWMutex
	session Session
	hub     websocket.Hub
	log     *logrus.Entry
}

// NewScanQueue creates a new scan queue
func NewScanQueue(session Session, hub websocket.Hub) ScanQueue {
	return &scanQueue{
		jobs:    make(map[string]*types.ScanJob),
		opts:    make(map[string]types.ScanRequest),
		queue:   make(chan *types.ScanJob, 16),
		session: session,
		hub:     hub,
		log:     logrus.WithField("component", "scanqueue"),
	}
}

// Start begins processing scan jobs.
func (sq *scanQueue) Start() {
	go sq.worker()
}

// Enqueue adds a new scan job to the queue
func (sq *scanQueue) Enqueue(req types.ScanRequest) (types.ScanJob, error) {
	sq.mu.Lock()
	defer sq.mu.Unlock()

	job := &types.ScanJob{
		ID:        uuid.New().String(),
		Status:    types.ScanStatusQueued,
		CreatedAt: time.Now(),
	}

	select {
	case sq.queue <- job:
	default:
		return types.ScanJob{}, ErrScanQueueFull
	}
	sq.jobs[job.ID] = job
	sq.opts[job.ID] = req

	return *job, nil
}

// GetJob retrieves a copy of a job by ID
func (sq *scanQueue) GetJob(id string) (types.ScanJob, bool) {
	sq.mu.RLock()
	defer sq.mu.RUnlock()
	job, exists := sq.jobs[id]
	if !exists {
		return types.ScanJob{}, false
	}
	return *job, true
}

// GetAllJobs returns copies of all jobs
func (sq *scanQueue) GetAllJobs() []types.ScanJob {
	sq.mu.RLock()
	defer sq.mu.RUnlock()

	jobs := make([]types.ScanJob, 0, len(sq.jobs))
	for _, job := range sq.jobs {
		jobs = append(jobs, *job)
	}
	return jobs
}

// worker processes scan jobs from the queue
func (sq *scanQueue) worker() {
	for job := range sq.queue {
		sq.setStatus(job.ID, types.ScanStatusRunning, "")

		req := sq.request(job.ID)
		err := sq.session.Scan(live.ScanOptions{
			ClipNames:   req.ClipNames,
			ClipLengths: req.ClipLengths,
			Progress: func(done, total int) {
				sq.updateProgress(job.ID, done, total)
			},
		})

		if err != nil {
			sq.setStatus(job.ID, types.ScanStatusFailed, err.Error())
			sq.log.WithError(err).WithField("job", job.ID).Error("Scan failed")
		} else {
			sq.setStatus(job.ID, types.ScanStatusCompleted, "")
			sq.log.WithField("job", job.ID).Info("Scan completed")
		}
	}
}

// request returns the options a job was enqueued with.
func (sq *scanQueue) request(id string) types.ScanRequest {
	sq.mu.RLock()
	defer sq.mu.RUnlock()
	return sq.opts[id]
}

// updateProgress updates job progress and broadcasts it
func (sq *scanQueue) updateProgress(id string, done, total int) {
	sq.mu.Lock()
	defer sq.mu.Unlock()

	job, exists := sq.jobs[id]
	if !exists {
		return
	}
	job.Progress = done
	job.Total = total

	if sq.hub != nil && total > 0 {
		sq.hub.BroadcastEvent(types.EventMessage{
			Topic:    types.TopicScan,
			Type:     "progress",
			JobID:    id,
			Progress: float64(done) / float64(total) * 100,
		})
	}
}

// setStatus updates job status, stamps the transition times and broadcasts
// the change
func (sq *scanQueue) setStatus(id string, status types.ScanStatus, errorMsg string) {
	// Count tracks before taking the queue lock so the two locks never nest.
	tracks := 0
	if status == types.ScanStatusCompleted {
		tracks = len(sq.session.Tracks())
	}

	sq.mu.Lock()
	defer sq.mu.Unlock()

	job, exists := sq.jobs[id]
	if !exists {
		return
	}
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}

	now := time.Now()
	switch status {
	case types.ScanStatusRunning:
		job.StartedAt = &now
	case types.ScanStatusCompleted, types.ScanStatusFailed:
		job.CompletedAt = &now
	}

	if status == types.ScanStatusCompleted {
		job.Tracks = tracks
		if job.Total > 0 {
			job.Progress = job.Total
		}
	}

	if sq.hub == nil {
		return
	}
	event := types.EventMessage{
		Topic: types.TopicScan,
		Type:  "status",
		JobID: id,
	}
	switch status {
	case types.ScanStatusCompleted:
		event.Type = "complete"
		event.Progress = 100
		event.Message = "scan completed"
	case types.ScanStatusFailed:
		event.Type = "error"
		event.Message = errorMsg
	default:
		event.Message = string(status)
	}
	sq.hub.BroadcastEvent(event)
}
