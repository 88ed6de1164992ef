package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type stubChecker struct {
	name   string
	result *Result
	delay  time.Duration
	calls  atomic.Int32
}

func (s *stubChecker) Name() string { return s.name }

func (s *stubChecker) Check(ctx context.Context) *Result {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Unhealthy("timed out")
		}
	}
	return s.result
}

func TestManagerRegistration(t *testing.T) {
	m := NewManager()
	if m.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", m.timeout)
	}
	if got := m.WithTimeout(time.Second); got != m {
		t.Error("WithTimeout should return the manager")
	}

	m.AddChecker(&stubChecker{name: "config"})
	m.AddChecker(&stubChecker{name: "storage"})
	m.AddChecker(&stubChecker{name: "api"})

	if m.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", m.Count())
	}
	if !m.RemoveChecker("storage") {
		t.Error("RemoveChecker(storage) = false")
	}
	if m.RemoveChecker("missing") {
		t.Error("RemoveChecker(missing) = true")
	}

	names := m.CheckNames()
	if len(names) != 2 || names[0] != "config" || names[1] != "api" {
		t.Errorf("CheckNames() = %v, want [config api]", names)
	}
}

func TestCheckKeepsRegistrationOrder(t *testing.T) {
	m := NewManager()
	slow := &stubChecker{name: "api", result: Healthy("ok"), delay: 30 * time.Millisecond}
	m.AddChecker(slow)
	m.AddChecker(&stubChecker{name: "session", result: Degraded("not logged in")})
	m.AddChecker(&stubChecker{name: "storage", result: Healthy("private")})

	reports := m.Check(context.Background())
	if len(reports) != 3 {
		t.Fatalf("Check() returned %d reports, want 3", len(reports))
	}

	want := []struct {
		name   string
		status Status
	}{
		{"api", StatusHealthy},
		{"session", StatusDegraded},
		{"storage", StatusHealthy},
	}
	for i, w := range want {
		if reports[i].Name != w.name || reports[i].Status != w.status {
			t.Errorf("reports[%d] = %s/%s, want %s/%s", i, reports[i].Name, reports[i].Status, w.name, w.status)
		}
	}
	if reports[0].Latency < 30*time.Millisecond {
		t.Errorf("latency = %v, want at least the check's delay", reports[0].Latency)
	}
}

func TestCheckTimeout(t *testing.T) {
	m := NewManager().WithTimeout(20 * time.Millisecond)
	m.AddChecker(&stubChecker{name: "api", result: Healthy("ok"), delay: time.Second})

	start := time.Now()
	reports := m.Check(context.Background())
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Check() took %v, timeout not applied", elapsed)
	}
	if reports[0].Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", reports[0].Status)
	}
}

func TestCheckNilResult(t *testing.T) {
	m := NewManager()
	m.AddChecker(&stubChecker{name: "broken"})

	reports := m.Check(context.Background())
	if reports[0].Result == nil || reports[0].Status != StatusUnhealthy {
		t.Errorf("nil result should be reported unhealthy, got %+v", reports[0])
	}
}

func TestCheckRunsInParallel(t *testing.T) {
	m := NewManager()
	checkers := make([]*stubChecker, 5)
	for i := range checkers {
		checkers[i] = &stubChecker{name: string(rune('a' + i)), result: Healthy("ok"), delay: 50 * time.Millisecond}
		m.AddChecker(checkers[i])
	}

	start := time.Now()
	m.Check(context.Background())
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("Check() took %v, checks should run in parallel", elapsed)
	}
	for _, c := range checkers {
		if c.calls.Load() != 1 {
			t.Errorf("%s called %d times", c.name, c.calls.Load())
		}
	}
}

func TestOverallStatus(t *testing.T) {
	report := func(s Status) Report { return Report{Name: string(s), Result: NewResult(s, "")} }

	tests := []struct {
		name    string
		reports []Report
		want    Status
	}{
		{"none", nil, StatusHealthy},
		{"all healthy", []Report{report(StatusHealthy), report(StatusHealthy)}, StatusHealthy},
		{"one degraded", []Report{report(StatusHealthy), report(StatusDegraded)}, StatusDegraded},
		{"unhealthy wins", []Report{report(StatusDegraded), report(StatusUnhealthy), report(StatusHealthy)}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverallStatus(tt.reports); got != tt.want {
				t.Errorf("OverallStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}
