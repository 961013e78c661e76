package refinement

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/motifchem/geomval/internal/config"
	"github.com/motifchem/geomval/internal/domain/geometry"
	"github.com/motifchem/geomval/internal/infrastructure/database/postgres/repositories"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/logging"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/prometheus"
	"github.com/motifchem/geomval/pkg/errors"
)

// Status is the lifecycle state of a refinement job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusDiverged  Status = "diverged"
	StatusCanceled  Status = "canceled"
)

// terminal reports whether no further transitions can happen.
func (s Status) terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusDiverged, StatusCanceled:
		return true
	}
	return false
}

// Request describes one refinement job.
type Request struct {
	SMILES    string
	Positions []r3.Vec
	Topology  *geometry.Topology
}

// JobView is an immutable snapshot of a job's state.
type JobView struct {
	ID          uuid.UUID
	Status      Status
	Error       string
	Outcome     *Outcome
	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

type job struct {
	id      uuid.UUID
	request *Request
	cancel  context.CancelFunc

	mu          sync.Mutex
	status      Status
	err         string
	outcome     *Outcome
	createdAt   time.Time
	startedAt   time.Time
	completedAt time.Time
}

func (j *job) view() *JobView {
	j.mu.Lock()
	defer j.mu.Unlock()
	return &JobView{
		ID:          j.id,
		Status:      j.status,
		Error:       j.err,
		Outcome:     j.outcome,
		CreatedAt:   j.createdAt,
		StartedAt:   j.startedAt,
		CompletedAt: j.completedAt,
	}
}

// RecordStore persists terminal job outcomes.  Satisfied by the postgres
// RefinementRepository.
type RecordStore interface {
	Save(ctx context.Context, rec *repositories.RefinementRecord) error
}

// Engine runs one refinement; satisfied by Refiner.
type Engine interface {
	Refine(ctx context.Context, start []r3.Vec, top *geometry.Topology) (*Outcome, error)
}

// Manager owns the job table and the worker pool.
type Manager struct {
	refiner Engine
	cfg     config.WorkerConfig
	store   RecordStore
	metrics *prometheus.AppMetrics
	log     logging.Logger

	mu   sync.RWMutex
	jobs map[uuid.UUID]*job

	queue   chan *job
	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// ManagerOption customises manager construction.
type ManagerOption func(*Manager)

// WithRecordStore enables persistence of terminal job records.
func WithRecordStore(store RecordStore) ManagerOption {
	return func(m *Manager) { m.store = store }
}

// WithMetrics enables job counters and gauges.
func WithMetrics(metrics *prometheus.AppMetrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager constructs a Manager.  Call Start before submitting jobs.
func NewManager(refiner Engine, cfg config.WorkerConfig, log logging.Logger, opts ...ManagerOption) *Manager {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.QueueDepth < 1 {
		cfg.QueueDepth = 1
	}
	m := &Manager{
		refiner: refiner,
		cfg:     cfg,
		log:     log,
		jobs:    make(map[uuid.UUID]*job),
		queue:   make(chan *job, cfg.QueueDepth),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the worker pool and the expiry janitor.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	m.baseCtx, m.stop = context.WithCancel(context.Background())

	for i := 0; i < m.cfg.Concurrency; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	if m.cfg.JobTTL > 0 {
		m.wg.Add(1)
		go m.janitor()
	}
	m.log.Info("refinement worker pool started",
		logging.Int("concurrency", m.cfg.Concurrency),
		logging.Int("queue_depth", m.cfg.QueueDepth))
}

// Stop cancels running jobs and waits for workers to drain.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	m.stop()
	m.mu.Unlock()

	m.wg.Wait()
	m.log.Info("refinement worker pool stopped")
}

// Submit validates the request and enqueues a new job, returning its id.
// A full queue yields a REF_003 error immediately rather than blocking.
func (m *Manager) Submit(_ context.Context, req *Request) (uuid.UUID, error) {
	if req == nil || len(req.Positions) == 0 {
		return uuid.Nil, errors.New(errors.ErrCodeRefinementInvalidParam,
			"refinement request needs at least one atom position")
	}
	if req.Topology == nil {
		return uuid.Nil, errors.New(errors.ErrCodeRefinementInvalidParam,
			"refinement request needs a topology")
	}

	m.mu.RLock()
	started := m.started
	m.mu.RUnlock()
	if !started {
		return uuid.Nil, errors.New(errors.ErrCodeServiceUnavailable,
			"refinement worker pool is not running")
	}

	j := &job{
		id:        uuid.New(),
		request:   req,
		cancel:    func() {},
		status:    StatusQueued,
		createdAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[j.id] = j
	m.mu.Unlock()

	select {
	case m.queue <- j:
		m.setQueueDepth()
		return j.id, nil
	default:
		m.mu.Lock()
		delete(m.jobs, j.id)
		m.mu.Unlock()
		return uuid.Nil, errors.Newf(errors.ErrCodeRefinementQueueFull,
			"refinement queue is full (%d jobs)", m.cfg.QueueDepth)
	}
}

// Get returns a snapshot of the job, or a REF_001 error.
func (m *Manager) Get(id uuid.UUID) (*JobView, error) {
	m.mu.RLock()
	j, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.Newf(errors.ErrCodeRefinementJobNotFound,
			"no refinement job with id %s", id)
	}
	return j.view(), nil
}

// Cancel stops a queued or running job.  Canceling a terminal job is a
// no-op.
func (m *Manager) Cancel(id uuid.UUID) error {
	m.mu.RLock()
	j, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return errors.Newf(errors.ErrCodeRefinementJobNotFound,
			"no refinement job with id %s", id)
	}

	j.mu.Lock()
	if j.status == StatusQueued {
		j.status = StatusCanceled
		j.completedAt = time.Now()
	}
	j.mu.Unlock()

	j.cancel()
	return nil
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.baseCtx.Done():
			return
		case j := <-m.queue:
			m.setQueueDepth()
			m.run(j)
		}
	}
}

func (m *Manager) run(j *job) {
	jobCtx, cancel := context.WithCancel(m.baseCtx)
	defer cancel()

	j.mu.Lock()
	if j.status != StatusQueued {
		// Canceled while waiting in the queue.
		j.mu.Unlock()
		return
	}
	j.status = StatusRunning
	j.startedAt = time.Now()
	j.cancel = cancel
	j.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RefinementActiveJobs.WithLabelValues().Inc()
		defer m.metrics.RefinementActiveJobs.WithLabelValues().Dec()
	}

	outcome, err := m.refiner.Refine(jobCtx, j.request.Positions, j.request.Topology)

	j.mu.Lock()
	j.outcome = outcome
	j.completedAt = time.Now()
	switch {
	case err == nil:
		j.status = StatusCompleted
	case errors.IsCode(err, errors.ErrCodeRefinementDiverged):
		j.status = StatusDiverged
		j.err = err.Error()
	case jobCtx.Err() != nil:
		j.status = StatusCanceled
		j.err = err.Error()
	default:
		j.status = StatusFailed
		j.err = err.Error()
	}
	status := j.status
	duration := j.completedAt.Sub(j.startedAt)
	j.mu.Unlock()

	m.observe(status, duration, outcome)
	m.persist(j, status)

	m.log.Info("refinement job finished",
		logging.String("job_id", j.id.String()),
		logging.String("status", string(status)),
		logging.Duration("duration", duration))
}

func (m *Manager) observe(status Status, duration time.Duration, outcome *Outcome) {
	if m.metrics == nil {
		return
	}
	m.metrics.RefinementJobsTotal.WithLabelValues(string(status)).Inc()
	m.metrics.RefinementDuration.WithLabelValues().Observe(duration.Seconds())
	if outcome != nil {
		m.metrics.RefinementIterations.WithLabelValues().Observe(float64(outcome.Iterations))
		if status == StatusCompleted {
			m.metrics.RefinementLossDropPct.WithLabelValues().Observe(outcome.LossDropPercent())
		}
	}
}

func (m *Manager) persist(j *job, status Status) {
	if m.store == nil {
		return
	}
	view := j.view()
	rec := &repositories.RefinementRecord{
		ID:          view.ID,
		SMILES:      j.request.SMILES,
		Status:      string(status),
		CreatedAt:   view.CreatedAt,
		CompletedAt: view.CompletedAt,
	}
	if view.Outcome != nil {
		rec.Iterations = view.Outcome.Iterations
		rec.InitialLoss = view.Outcome.InitialLoss
		rec.FinalLoss = view.Outcome.FinalLoss
		rec.StopReason = view.Outcome.StopReason
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.Save(ctx, rec); err != nil {
		m.log.Error("persisting refinement record failed",
			logging.String("job_id", view.ID.String()), logging.Err(err))
	}
}

func (m *Manager) setQueueDepth() {
	if m.metrics != nil {
		m.metrics.RefinementQueueDepth.WithLabelValues().Set(float64(len(m.queue)))
	}
}

// janitor evicts terminal jobs older than the configured TTL so the job
// table does not grow without bound.
func (m *Manager) janitor() {
	defer m.wg.Done()

	interval := m.cfg.JobTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.baseCtx.Done():
			return
		case <-ticker.C:
			m.evictExpired(time.Now().Add(-m.cfg.JobTTL))
		}
	}
}

func (m *Manager) evictExpired(cutoff time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, j := range m.jobs {
		j.mu.Lock()
		expired := j.status.terminal() && j.completedAt.Before(cutoff)
		j.mu.Unlock()
		if expired {
			delete(m.jobs, id)
		}
	}
}
