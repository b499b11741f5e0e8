// Package store implements the durable, single-writer JSON state store
// (spec.md §4.2): plan.json, jobs.json, and port.lock under a user-scoped
// data directory, each guarded by its own mutex and written atomically.
// Grounded on the teacher's StatePersister locking discipline
// (pkg/orchestration/state.go), generalized from markdown-frontmatter files
// to JSON and from per-job files to a single plan document.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nigel-dev/missionctl/internal/errs"
	"github.com/nigel-dev/missionctl/internal/model"
)

const (
	planSchemaVersion = 3
	jobsSchemaVersion = 3
)

// Store is the single-writer JSON state store for one data directory.
type Store struct {
	dir string

	planMu sync.Mutex
	jobsMu sync.Mutex
	portMu sync.Mutex
}

// New returns a Store rooted at dir, creating it if necessary.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) planPath() string { return filepath.Join(s.dir, "plan.json") }
func (s *Store) jobsPath() string { return filepath.Join(s.dir, "jobs.json") }
func (s *Store) portPath() string { return filepath.Join(s.dir, "port.lock") }

// planDoc is the on-disk envelope for plan.json.
type planDoc struct {
	Version int         `json:"version"`
	Plan    *model.Plan `json:"plan"`
}

// LoadPlan returns the single active plan, or nil if none exists.
func (s *Store) LoadPlan() (*model.Plan, error) {
	s.planMu.Lock()
	defer s.planMu.Unlock()
	return s.loadPlanLocked()
}

func (s *Store) loadPlanLocked() (*model.Plan, error) {
	raw, err := os.ReadFile(s.planPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.KindDataIntegrity, "loadPlan", "read plan.json", err).WithField(s.planPath())
	}

	var doc planDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errs.Wrap(errs.KindDataIntegrity, "loadPlan", "corrupt plan.json", err).WithField(s.planPath())
	}
	if doc.Plan == nil {
		return nil, errs.New(errs.KindDataIntegrity, "loadPlan", "plan.json missing plan object").WithField(s.planPath())
	}
	migratePlanDoc(&doc)
	return doc.Plan, nil
}

// migratePlanDoc forward-migrates older schema versions in place.
// v1 -> v2 assigns a PlanID default of the plan's own id (no-op structurally
// since Plan.ID already exists); v2 -> v3 defaults LaunchSessionID to "".
func migratePlanDoc(doc *planDoc) {
	if doc.Version < 2 {
		doc.Version = 2
	}
	if doc.Version < 3 {
		if doc.Plan.LaunchSessionID == "" {
			doc.Plan.LaunchSessionID = ""
		}
		doc.Version = 3
	}
}

// SavePlan persists plan as the single active plan. It rejects overwriting
// an existing plan that has a different id (spec.md §4.2): callers must
// ClearPlan first.
func (s *Store) SavePlan(plan *model.Plan) error {
	s.planMu.Lock()
	defer s.planMu.Unlock()

	existing, err := s.loadPlanLocked()
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != plan.ID {
		return errs.New(errs.KindUserInput, "savePlan", fmt.Sprintf("an active plan %q already exists", existing.ID))
	}

	plan.UpdatedAt = time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = plan.UpdatedAt
	}

	doc := planDoc{Version: planSchemaVersion, Plan: plan}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	return writeAtomic(s.planPath(), raw)
}

// UpdatePlanJob reads the plan under lock, merges partial into the named
// job, and writes back — never clobbering sibling jobs modified elsewhere
// (spec.md §4.2, §8: three concurrent updates all survive).
func (s *Store) UpdatePlanJob(planID, jobName string, mutate func(*model.Job)) error {
	s.planMu.Lock()
	defer s.planMu.Unlock()

	plan, err := s.loadPlanLocked()
	if err != nil {
		return err
	}
	if plan == nil || plan.ID != planID {
		return errs.New(errs.KindUserInput, "updatePlanJob", "no active plan with that id")
	}
	job := plan.JobByName(jobName)
	if job == nil {
		return errs.New(errs.KindUserInput, "updatePlanJob", fmt.Sprintf("no job named %q", jobName))
	}
	mutate(job)
	job.UpdatedAt = time.Now().UTC()

	plan.UpdatedAt = job.UpdatedAt
	doc := planDoc{Version: planSchemaVersion, Plan: plan}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	return writeAtomic(s.planPath(), raw)
}

// UpdatePlanFields merges plan-level fields only, preserving Jobs untouched.
func (s *Store) UpdatePlanFields(planID string, mutate func(*model.Plan)) error {
	s.planMu.Lock()
	defer s.planMu.Unlock()

	plan, err := s.loadPlanLocked()
	if err != nil {
		return err
	}
	if plan == nil || plan.ID != planID {
		return errs.New(errs.KindUserInput, "updatePlanFields", "no active plan with that id")
	}
	jobs := plan.Jobs
	mutate(plan)
	plan.Jobs = jobs
	plan.UpdatedAt = time.Now().UTC()

	doc := planDoc{Version: planSchemaVersion, Plan: plan}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	return writeAtomic(s.planPath(), raw)
}

// ClearPlan removes the active plan record.
func (s *Store) ClearPlan() error {
	s.planMu.Lock()
	defer s.planMu.Unlock()
	if err := os.Remove(s.planPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing plan.json: %w", err)
	}
	return nil
}

// jobsDoc is the on-disk envelope for jobs.json (spec.md §6).
type jobsDoc struct {
	Version   int                  `json:"version"`
	Jobs      []*model.LaunchedJob `json:"jobs"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// LoadJobState returns the launched-job registry, migrating older schema
// versions forward.
func (s *Store) LoadJobState() (*jobsDoc, error) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	return s.loadJobStateLocked()
}

func (s *Store) loadJobStateLocked() (*jobsDoc, error) {
	raw, err := os.ReadFile(s.jobsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &jobsDoc{Version: jobsSchemaVersion, Jobs: nil}, nil
		}
		return nil, errs.Wrap(errs.KindDataIntegrity, "loadJobState", "read jobs.json", err).WithField(s.jobsPath())
	}
	var doc jobsDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errs.Wrap(errs.KindDataIntegrity, "loadJobState", "corrupt jobs.json", err).WithField(s.jobsPath())
	}
	if doc.Version < jobsSchemaVersion {
		doc.Version = jobsSchemaVersion
	}
	return &doc, nil
}

func (s *Store) saveJobStateLocked(doc *jobsDoc) error {
	doc.Version = jobsSchemaVersion
	doc.UpdatedAt = time.Now().UTC()
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal jobs: %w", err)
	}
	return writeAtomic(s.jobsPath(), raw)
}

// AddJob appends a launched job to the registry.
func (s *Store) AddJob(lj *model.LaunchedJob) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	doc, err := s.loadJobStateLocked()
	if err != nil {
		return err
	}
	doc.Jobs = append(doc.Jobs, lj)
	return s.saveJobStateLocked(doc)
}

// UpdateJob merges partial into the launched job with the given id.
func (s *Store) UpdateJob(jobID string, mutate func(*model.LaunchedJob)) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	doc, err := s.loadJobStateLocked()
	if err != nil {
		return err
	}
	found := false
	for _, lj := range doc.Jobs {
		if lj.JobID == jobID {
			mutate(lj)
			found = true
			break
		}
	}
	if !found {
		return errs.New(errs.KindUserInput, "updateJob", fmt.Sprintf("no launched job %q", jobID))
	}
	return s.saveJobStateLocked(doc)
}

// RemoveJob deletes the launched job entry for jobID, if present.
func (s *Store) RemoveJob(jobID string) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	doc, err := s.loadJobStateLocked()
	if err != nil {
		return err
	}
	out := doc.Jobs[:0]
	for _, lj := range doc.Jobs {
		if lj.JobID != jobID {
			out = append(out, lj)
		}
	}
	doc.Jobs = out
	return s.saveJobStateLocked(doc)
}

// GetRunningJobs returns launched jobs that have not yet completed.
func (s *Store) GetRunningJobs() ([]*model.LaunchedJob, error) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	doc, err := s.loadJobStateLocked()
	if err != nil {
		return nil, err
	}
	var out []*model.LaunchedJob
	for _, lj := range doc.Jobs {
		if lj.CompletedAt == nil {
			out = append(out, lj)
		}
	}
	return out, nil
}

// GetJobByID looks up a launched job by its plan job id, returning nil (and
// no error) when no launched job is registered for that id.
func (s *Store) GetJobByID(jobID string) (*model.LaunchedJob, error) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	doc, err := s.loadJobStateLocked()
	if err != nil {
		return nil, err
	}
	for _, lj := range doc.Jobs {
		if lj.JobID == jobID {
			return lj, nil
		}
	}
	return nil, nil
}
