package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Check probes one backing service.
type Check func(ctx context.Context) error

// Service encapsulates health-related checks.
type Service struct {
	mu      sync.RWMutex
	checks  map[string]Check
	timeout time.Duration
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{checks: make(map[string]Check), timeout: 2 * time.Second}
}

// Add registers a named check.
func (s *Service) Add(name string, check Check) {
	if check == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// Status runs every check and returns the payload and overall result.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	checks := make(map[string]Check, len(s.checks))
	for name, check := range s.checks {
		checks[name] = check
	}
	s.mu.RUnlock()
	sort.Strings(names)

	ok := true
	results := make(map[string]string, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := checks[name](checkCtx)
		cancel()
		if err != nil {
			ok = false
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	payload := map[string]any{"ok": ok}
	if len(results) > 0 {
		payload["checks"] = results
	}
	return payload, ok
}
