package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baton/live"
	"baton/types"
)

// stubSession implements Session with a programmable Scan outcome. Only the
// methods the scan queue touches do anything.
type stubSession struct {
	Session
	scanErr   error
	scanDelay time.Duration
	tracks    []types.TrackInfo
}

func (s *stubSession) Scan(opts live.ScanOptions) error {
	if s.scanDelay > 0 {
		time.Sleep(s.scanDelay)
	}
	if s.scanErr != nil {
		return s.scanErr
	}
	if opts.Progress != nil {
		opts.Progress(1, 2)
		opts.Progress(2, 2)
	}
	return nil
}

func (s *stubSession) Tracks() []types.TrackInfo { return s.tracks }

// waitForJob polls the queue until the job leaves the queued/running states.
func waitForJob(t *testing.T, queue ScanQueue, id string) types.ScanJob {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := queue.GetJob(id)
		require.True(t, ok)
		if job.Status == types.ScanStatusCompleted || job.Status == types.ScanStatusFailed {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return types.ScanJob{}
}

// TestScanQueueCompletes tests the happy path through the worker
func TestScanQueueCompletes(t *testing.T) {
	session := &stubSession{tracks: make([]types.TrackInfo, 3)}
	queue := NewScanQueue(session, nil)
	queue.Start()

	job, err := queue.Enqueue(types.ScanRequest{ClipNames: true})
	require.NoError(t, err)
	assert.Equal(t, types.ScanStatusQueued, job.Status)
	assert.False(t, job.CreatedAt.IsZero())

	done := waitForJob(t, queue, job.ID)
	assert.Equal(t, types.ScanStatusCompleted, done.Status)
	assert.Equal(t, 2, done.Progress)
	assert.Equal(t, 2, done.Total)
	assert.Equal(t, 3, done.Tracks)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
}

// TestScanQueueFailure tests that a failing scan marks the job failed
func TestScanQueueFailure(t *testing.T) {
	session := &stubSession{scanErr: errors.New("no answer from Live")}
	queue := NewScanQueue(session, nil)
	queue.Start()

	job, err := queue.Enqueue(types.ScanRequest{})
	require.NoError(t, err)

	done := waitForJob(t, queue, job.ID)
	assert.Equal(t, types.ScanStatusFailed, done.Status)
	assert.Equal(t, "no answer from Live", done.Error)
	assert.NotNil(t, done.CompletedAt)
}

// TestScanQueueUnknownJob tests lookups for ids never enqueued
func TestScanQueueUnknownJob(t *testing.T) {
	queue := NewScanQueue(&stubSession{}, nil)

	_, ok := queue.GetJob("nope")
	assert.False(t, ok)
	assert.Empty(t, queue.GetAllJobs())
}

// TestScanQueueFull tests the backpressure error. The queue is never started,
// so jobs stay in the channel.
func TestScanQueueFull(t *testing.T) {
	queue := NewScanQueue(&stubSession{}, nil)

	var err error
	for i := 0; i <= 16; i++ {
		_, err = queue.Enqueue(types.ScanRequest{})
		if err != nil {
			break
		}
	}
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScanQueueFull)
}
