package scheduler

import (
	"fmt"
	"strings"
	"time"
)

const (
	StepDownload   = "download"
	StepTranscribe = "transcribe"
	StepOrganize   = "organize"
)

// StepResult is the outcome of one isolated step of a cycle.
type StepResult struct {
	Name     string
	Err      error
	Duration time.Duration
}

type CycleReport struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Rolled   bool
	Steps    []StepResult
}

// OK reports whether every step succeeded.
func (r CycleReport) OK() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return false
		}
	}
	return true
}

// Failed returns the names of the steps that returned an error.
func (r CycleReport) Failed() []string {
	var names []string
	for _, s := range r.Steps {
		if s.Err != nil {
			names = append(names, s.Name)
		}
	}
	return names
}

// Summary is a one-line description suitable for a desktop notification.
func (r CycleReport) Summary() string {
	if r.OK() {
		return fmt.Sprintf("cycle finished in %s", r.Duration.Round(time.Millisecond))
	}
	return fmt.Sprintf("cycle finished in %s with failed steps: %s",
		r.Duration.Round(time.Millisecond), strings.Join(r.Failed(), ", "))
}
