// Package health runs the console's self-diagnostics: configuration,
// durable storage, session and API reachability.
//
//	manager := health.NewManager()
//	manager.AddChecker(health.NewConfigChecker(cfg))
//	manager.AddChecker(health.NewAPIChecker(client))
//
//	for _, r := range manager.Check(ctx) {
//	    fmt.Println(r.Name, r.Status, r.Message)
//	}
package health

import (
	"context"
	"time"
)

// Checker verifies one part of the console's environment.
type Checker interface {
	// Name is lowercase with hyphens, e.g. "api-reachable".
	Name() string

	// Check must respect the context deadline.
	Check(ctx context.Context) *Result
}

// Status represents the health check status.
type Status string

const (
	// StatusHealthy indicates the checked component is fully operational.
	StatusHealthy Status = "healthy"

	// StatusDegraded means the console works with reduced functionality.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy means the console cannot work until this is fixed.
	StatusUnhealthy Status = "unhealthy"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Result represents the result of a health check.
type Result struct {
	Status  Status         `json:"status" yaml:"status"`
	Message string         `json:"message" yaml:"message"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	// Hint tells the operator how to fix a failed check.
	Hint    string        `json:"hint,omitempty" yaml:"hint,omitempty"`
	Latency time.Duration `json:"latency" yaml:"latency"`
}

// NewResult creates a new health check result with the given status and message.
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]any),
	}
}

// WithDetail adds a detail to the result and returns the result for chaining.
func (r *Result) WithDetail(key string, value any) *Result {
	r.Details[key] = value
	return r
}

// WithHint sets the remediation hint.
func (r *Result) WithHint(hint string) *Result {
	r.Hint = hint
	return r
}

// WithLatency sets the latency and returns the result for chaining.
func (r *Result) WithLatency(latency time.Duration) *Result {
	r.Latency = latency
	return r
}

// Healthy creates a healthy result with the given message.
func Healthy(message string) *Result {
	return NewResult(StatusHealthy, message)
}

// Degraded creates a degraded result with the given message.
func Degraded(message string) *Result {
	return NewResult(StatusDegraded, message)
}

// Unhealthy creates an unhealthy result with the given message.
func Unhealthy(message string) *Result {
	return NewResult(StatusUnhealthy, message)
}
