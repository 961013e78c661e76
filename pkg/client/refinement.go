package client

import (
	"context"
	"fmt"
	"time"
)

// Job statuses reported by the refinement API.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
	JobDiverged  = "diverged"
	JobCanceled  = "canceled"
)

// SubmittedJob acknowledges an accepted refinement submission.
type SubmittedJob struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// Outcome is the result of a finished refinement run.
type Outcome struct {
	Positions       [][3]float64 `json:"positions"`
	InitialLoss     float64      `json:"initial_loss"`
	FinalLoss       float64      `json:"final_loss"`
	LossDropPercent float64      `json:"loss_drop_percent"`
	Iterations      int          `json:"iterations"`
	StopReason      string       `json:"stop_reason"`
	Curve           []float64    `json:"curve,omitempty"`
}

// Job is a refinement job snapshot.
type Job struct {
	JobID       string     `json:"job_id"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Outcome     *Outcome   `json:"outcome,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	switch j.Status {
	case JobCompleted, JobFailed, JobDiverged, JobCanceled:
		return true
	}
	return false
}

// SubmitRefinement enqueues a refinement job for the conformer.
func (c *Client) SubmitRefinement(ctx context.Context, conformer *Conformer) (*SubmittedJob, error) {
	var job SubmittedJob
	if err := c.post(ctx, "/api/v1/refine", conformer, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetRefinement fetches the current state of a job.
func (c *Client) GetRefinement(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := c.get(ctx, "/api/v1/refine/"+jobID, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// CancelRefinement stops a queued or running job.
func (c *Client) CancelRefinement(ctx context.Context, jobID string) error {
	return c.delete(ctx, "/api/v1/refine/"+jobID)
}

// WaitForRefinement polls a job until it reaches a terminal state or ctx
// expires.
func (c *Client) WaitForRefinement(ctx context.Context, jobID string, pollInterval time.Duration) (*Job, error) {
	if pollInterval <= 0 {
		pollInterval = 200 * time.Millisecond
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		job, err := c.GetRefinement(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Terminal() {
			return job, nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("client: waiting for job %s: %w", jobID, ctx.Err())
		}
	}
}
