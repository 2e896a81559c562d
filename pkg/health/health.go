// Package health implements liveness and readiness probing for HTTP
// services. Probes run on background tickers and carry Kubernetes-style
// thresholds: a probe flips to unhealthy only after FailAfter consecutive
// failures and recovers after RiseAfter consecutive successes, so a single
// slow round trip does not flap the service out of rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Check reports the state of one component. A nil return means healthy.
type Check func(ctx context.Context) error

// Probe configures a single background check.
type Probe struct {
	Name  string
	Check Check
	// Timeout bounds one execution of Check.
	Timeout time.Duration
	// FailAfter is the number of consecutive failures before the probe is
	// reported unhealthy. Zero means 3.
	FailAfter int
	// RiseAfter is the number of consecutive successes before a failed
	// probe recovers. Zero means 1.
	RiseAfter int
}

// probeState pairs a probe with its runtime state. observe runs on exactly
// one goroutine, so the counters need no locking; healthy and lastErr are
// read from handler goroutines and use atomics.
type probeState struct {
	Probe

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func (s *probeState) observe(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	err := s.Check(checkCtx)
	s.lastErr.Store(&err)

	if err != nil {
		s.oks = 0
		s.fails++
		if s.fails >= s.FailAfter {
			s.healthy.Store(false)
		}
		return
	}
	s.fails = 0
	s.oks++
	if s.oks >= s.RiseAfter {
		s.healthy.Store(true)
	}
}

func (s *probeState) failure() (string, bool) {
	if s.healthy.Load() {
		return "", false
	}
	if p := s.lastErr.Load(); p != nil && *p != nil {
		return (*p).Error(), true
	}
	return "probe is unhealthy", true
}

// Service aggregates liveness and readiness probes and serves probe
// endpoints. Readiness additionally requires an explicit SetReady(true),
// which lets the boot sequence and graceful shutdown gate traffic.
type Service struct {
	ready atomic.Bool

	// mu guards the probe slices and cancel. Probes are registered before
	// Start; handlers snapshot the slices under RLock.
	mu        sync.RWMutex
	liveness  []*probeState
	readiness []*probeState
	cancel    context.CancelFunc
}

// NewService creates a Service in the not-ready state.
func NewService() *Service {
	return &Service{}
}

// AddLiveness registers a liveness probe: is the process itself functional.
func (s *Service) AddLiveness(p Probe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveness = append(s.liveness, newProbeState(p))
}

// AddReadiness registers a readiness probe: can the service take traffic.
func (s *Service) AddReadiness(p Probe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness = append(s.readiness, newProbeState(p))
}

func newProbeState(p Probe) *probeState {
	if p.FailAfter <= 0 {
		p.FailAfter = 3
	}
	if p.RiseAfter <= 0 {
		p.RiseAfter = 1
	}
	if p.Timeout <= 0 {
		p.Timeout = 5 * time.Second
	}
	state := &probeState{Probe: p}
	// Healthy until a threshold says otherwise.
	state.healthy.Store(true)
	return state
}

// Start launches one goroutine per registered probe, each firing at the
// given interval until the context is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	probes := make([]*probeState, 0, len(s.liveness)+len(s.readiness))
	probes = append(probes, s.liveness...)
	probes = append(probes, s.readiness...)
	s.mu.Unlock()

	for _, p := range probes {
		go func(p *probeState) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.observe(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.observe(ctx)
				}
			}
		}(p)
	}
}

// Stop cancels every probe goroutine. Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetReady flips the manual readiness gate.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness probe
// is passing.
func (s *Service) IsReady() bool {
	if !s.ready.Load() {
		return false
	}

	s.mu.RLock()
	probes := s.readiness
	s.mu.RUnlock()

	for _, p := range probes {
		if !p.healthy.Load() {
			return false
		}
	}
	return true
}

// LiveEndpoint serves the liveness probe: 200 while every liveness check
// passes, 503 with per-probe failure messages otherwise.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	probes := make([]*probeState, len(s.liveness))
	copy(probes, s.liveness)
	s.mu.RUnlock()

	writeProbeResult(w, collectFailures(probes))
}

// ReadyEndpoint serves the readiness probe. It fails while the manual gate
// is closed even when every probe passes.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	ready := s.ready.Load()

	s.mu.RLock()
	probes := make([]*probeState, len(s.readiness))
	copy(probes, s.readiness)
	s.mu.RUnlock()

	failures := collectFailures(probes)
	if !ready {
		failures["_readiness"] = "service is not ready"
	}
	writeProbeResult(w, failures)
}

func collectFailures(probes []*probeState) map[string]string {
	failures := make(map[string]string)
	for _, p := range probes {
		if msg, failed := p.failure(); failed {
			failures[p.Name] = msg
		}
	}
	return failures
}

type probeResult struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeProbeResult(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	result := probeResult{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		result.Status = "unhealthy"
		result.Checks = failures
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(result)
}
