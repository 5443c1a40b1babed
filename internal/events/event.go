// Package events carries worker progress as published facts: overlay
// feeders, the history store, and log mirrors all observe the same stream
// instead of being called from inside the job loop.
package events

import "time"

// Event types published by the worker.
const (
	TypeJobStarted   = "job.started"
	TypeJobFinished  = "job.finished"
	TypeItemStarted  = "item.started"
	TypeStepStarted  = "item.step"
	TypeItemFinished = "item.finished"
	TypePauseToggled = "worker.pause"
	TypeHelpNeeded   = "job.needs_help"
)

// Event is the base interface all events implement.
type Event interface {
	EventType() string
	JobID() string
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Type      string    `json:"type"`
	Job       string    `json:"job_id"`
	Timestamp time.Time `json:"occurred_at"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) JobID() string         { return e.Job }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent creates a BaseEvent with the current timestamp.
func NewBaseEvent(eventType, jobID string) BaseEvent {
	return BaseEvent{Type: eventType, Job: jobID, Timestamp: time.Now()}
}

// JobStarted is published when a claimed job begins processing.
type JobStarted struct {
	BaseEvent
	Items int `json:"items"`
}

// JobFinished is published after the job result has been written.
type JobFinished struct {
	BaseEvent
	Status string `json:"status"`
}

// ItemStarted is published when a work item's file is about to be opened.
type ItemStarted struct {
	BaseEvent
	PartName  string `json:"part_name"`
	InputPath string `json:"input_path"`
	Index     int    `json:"index"` // 1-based position within the job
	Total     int    `json:"total"`
}

// StepStarted is published before each workflow step of an item.
type StepStarted struct {
	BaseEvent
	PartName string `json:"part_name"`
	Step     string `json:"step"`
}

// ItemFinished is published with the item's terminal status.
type ItemFinished struct {
	BaseEvent
	PartName string `json:"part_name"`
	Status   string `json:"status"`
	Note     string `json:"note,omitempty"`
}

// PauseToggled is published when the operator pauses or resumes the worker.
type PauseToggled struct {
	BaseEvent
	Paused bool `json:"paused"`
}

// HelpNeeded is published when a job aborts waiting for a human.
type HelpNeeded struct {
	BaseEvent
	PartName string `json:"part_name,omitempty"`
	Step     string `json:"step"`
	Reason   string `json:"reason"`
}
