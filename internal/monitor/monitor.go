package monitor

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/nigel-dev/missionctl/internal/adapter"
	"github.com/nigel-dev/missionctl/internal/logging"
	"github.com/nigel-dev/missionctl/internal/model"
)

// JobTarget is what the Monitor needs to start observing a running job.
type JobTarget struct {
	JobID        string
	JobName      string
	PaneTarget   string
	WorktreePath string
	Port         int // 0 selects pane-polling mode
}

// Monitor is the Job Monitor (spec.md §4.3): it owns one observation
// goroutine per running job (poller or stream reader, never both), the
// accumulators, the pending-question table, and the event dispatcher.
type Monitor struct {
	mux           adapter.Multiplexer
	log           logging.Logger
	pollInterval  time.Duration
	idleThreshold time.Duration
	permission    PermissionPolicy
	httpClient    *http.Client

	dispatcher *dispatcher
	questions  *questionTable

	mu      sync.Mutex
	cancel  map[string]context.CancelFunc
	wg      sync.WaitGroup
	accs    map[string]*Accumulator
}

// Config bundles the tunables Monitor needs from the merged configuration.
type Config struct {
	PollInterval  time.Duration
	IdleThreshold time.Duration
	Permission    PermissionPolicy
}

func New(mux adapter.Multiplexer, log logging.Logger, cfg Config) *Monitor {
	return &Monitor{
		mux:           mux,
		log:           log,
		pollInterval:  cfg.PollInterval,
		idleThreshold: cfg.IdleThreshold,
		permission:    cfg.Permission,
		httpClient:    &http.Client{Timeout: 0},
		dispatcher:    newDispatcher(),
		questions:     newQuestionTable(),
		cancel:        make(map[string]context.CancelFunc),
		accs:          make(map[string]*Accumulator),
	}
}

// Subscribe registers a handler for every emitted event; returns an
// unsubscribe func.
func (m *Monitor) Subscribe(h Handler) func() {
	return m.dispatcher.Subscribe(h)
}

// PendingQuestions returns a snapshot of all currently pending questions.
func (m *Monitor) PendingQuestions() []*model.PendingQuestion {
	return m.questions.All()
}

// Observe starts observing target: event-stream mode when a port is set,
// pane-polling mode otherwise (spec.md §4.3: "preferred when a job has a
// port").
func (m *Monitor) Observe(ctx context.Context, target JobTarget) {
	m.mu.Lock()
	if _, exists := m.cancel[target.JobID]; exists {
		m.mu.Unlock()
		return
	}
	obsCtx, cancel := context.WithCancel(ctx)
	m.cancel[target.JobID] = cancel
	acc := &Accumulator{}
	m.accs[target.JobID] = acc
	m.mu.Unlock()

	emit := func(e Event) { m.dispatcher.Emit(e) }

	m.wg.Add(1)
	if target.Port != 0 {
		reader := &jobStreamReader{
			jobID:      target.JobID,
			jobName:    target.JobName,
			port:       target.Port,
			httpClient: m.httpClient,
			log:        m.log,
			emit:       emit,
			acc:        acc,
			questions:  m.questions,
			permission: m.permission,
		}
		go func() {
			defer m.wg.Done()
			reader.start(obsCtx)
			<-obsCtx.Done()
			reader.stop()
		}()
		return
	}

	poller := &jobPoller{
		jobID:         target.JobID,
		jobName:       target.JobName,
		target:        target.PaneTarget,
		worktreePath:  target.WorktreePath,
		mux:           m.mux,
		pollInterval:  m.pollInterval,
		idleThreshold: m.idleThreshold,
		log:           m.log,
		emit:          emit,
		acc:           acc,
	}
	go func() {
		defer m.wg.Done()
		poller.run(obsCtx)
	}()
}

// StopJob aborts observation of a single job and clears its accumulator.
func (m *Monitor) StopJob(jobID string) {
	m.mu.Lock()
	cancel, ok := m.cancel[jobID]
	if ok {
		delete(m.cancel, jobID)
		delete(m.accs, jobID)
	}
	m.mu.Unlock()
	if ok {
		cancel()
	}
}

// Stop aborts all subscriptions, clears accumulators, and drops pending
// questions (spec.md §4.3, §5: "Cancellation").
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancels := m.cancel
	m.cancel = make(map[string]context.CancelFunc)
	m.accs = make(map[string]*Accumulator)
	m.mu.Unlock()

	for _, c := range cancels {
		c()
	}
	m.wg.Wait()
	m.questions.clear()
	m.dispatcher.closeAll()
}

// Accumulator returns a snapshot copy of jobID's recent-activity state.
func (m *Monitor) Accumulator(jobID string) (Accumulator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accs[jobID]
	if !ok {
		return Accumulator{}, false
	}
	return *acc, true
}
