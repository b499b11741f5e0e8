package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nigel-dev/missionctl/internal/model"
)

// PortRange is the configured contiguous range allocatePort draws from.
type PortRange struct {
	Start int
	End   int
}

// loadPortLockLocked reads port.lock as a set of reserved ints. A corrupt or
// missing file is treated as empty (spec.md §8) rather than an error, since
// the lock file is advisory bookkeeping, not the source of truth for any
// single job's port (that lives in jobs.json).
func (s *Store) loadPortLockLocked() []int {
	raw, err := os.ReadFile(s.portPath())
	if err != nil {
		return nil
	}
	var ports []int
	if err := json.Unmarshal(raw, &ports); err != nil {
		return nil
	}
	return ports
}

func (s *Store) savePortLockLocked(ports []int) error {
	if ports == nil {
		ports = []int{}
	}
	raw, err := json.Marshal(ports)
	if err != nil {
		return fmt.Errorf("marshal port.lock: %w", err)
	}
	return writeAtomic(s.portPath(), raw)
}

// AllocatePort reserves and returns the lowest free port in rng, skipping
// both ports already assigned in activeJobs and entries already present in
// port.lock (spec.md §4.2, §8).
func (s *Store) AllocatePort(rng PortRange, activeJobs []*model.LaunchedJob) (int, error) {
	s.portMu.Lock()
	defer s.portMu.Unlock()

	taken := make(map[int]bool)
	for _, lj := range activeJobs {
		if lj.Port != 0 {
			taken[lj.Port] = true
		}
	}
	locked := s.loadPortLockLocked()
	for _, p := range locked {
		taken[p] = true
	}

	for p := rng.Start; p <= rng.End; p++ {
		if !taken[p] {
			locked = append(locked, p)
			if err := s.savePortLockLocked(locked); err != nil {
				return 0, err
			}
			return p, nil
		}
	}
	return 0, fmt.Errorf("port range [%d, %d] exhausted", rng.Start, rng.End)
}

// ReleasePort removes port from port.lock. Idempotent: releasing an
// unreserved port is a no-op.
func (s *Store) ReleasePort(port int) error {
	s.portMu.Lock()
	defer s.portMu.Unlock()

	locked := s.loadPortLockLocked()
	out := locked[:0]
	for _, p := range locked {
		if p != port {
			out = append(out, p)
		}
	}
	return s.savePortLockLocked(out)
}
