// Package notify publishes crawl-completion events so downstream consumers
// (dashboard refreshers, alerting) learn about fresh snapshots without
// polling the storage bucket.
package notify

import (
	"context"
	"time"
)

// Event describes one completed crawl run.
type Event struct {
	RunID        string    `json:"runId"`
	CompletedAt  time.Time `json:"completedAt"`
	URLCount     int       `json:"urlCount"`
	SuccessCount int       `json:"successCount"`
	FailureCount int       `json:"failureCount"`
	SnapshotURI  string    `json:"snapshotUri"`
}

// Publisher delivers run-completion events.
type Publisher interface {
	RunCompleted(ctx context.Context, event Event) error
	Close() error
}

// NoOpPublisher drops events.
type NoOpPublisher struct{}

// RunCompleted does nothing.
func (NoOpPublisher) RunCompleted(_ context.Context, _ Event) error { return nil }

// Close does nothing.
func (NoOpPublisher) Close() error { return nil }

// MemoryPublisher records events in memory for tests.
type MemoryPublisher struct {
	Events []Event
}

// RunCompleted appends the event.
func (m *MemoryPublisher) RunCompleted(_ context.Context, event Event) error {
	m.Events = append(m.Events, event)
	return nil
}

// Close does nothing.
func (m *MemoryPublisher) Close() error { return nil }
