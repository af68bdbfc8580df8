package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Status is the terminal state of one item in a run
type Status string

const (
	StatusWritten   Status = "written"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Outcome records how a single item ended up
type Outcome struct {
	Item     *MaterialItem
	Status   Status
	Path     string
	Bytes    int
	Duration time.Duration
	Err      error
}

// SubjectError records a subject whose discovery failed
type SubjectError struct {
	SubjectID int64
	Title     string
	Err       error
}

// RunReport aggregates everything that happened during one run
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Written   int
	Skipped   int
	Failed    int
	Cancelled int

	Outcomes      []Outcome
	SubjectErrors []SubjectError
}

// NewRunReport starts a report for a fresh run
func NewRunReport() *RunReport {
	return &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// Add records one outcome and updates the counters
func (r *RunReport) Add(outcome Outcome) {
	r.Outcomes = append(r.Outcomes, outcome)
	switch outcome.Status {
	case StatusWritten:
		r.Written++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	case StatusCancelled:
		r.Cancelled++
	}
}

// AddSubjectError records a subtree that never made it into the run
func (r *RunReport) AddSubjectError(subjectID int64, title string, err error) {
	r.SubjectErrors = append(r.SubjectErrors, SubjectError{
		SubjectID: subjectID,
		Title:     title,
		Err:       err,
	})
}

// Finish stamps the end time and puts outcomes back into tree order.
// Workers complete in arbitrary order; reports should not.
func (r *RunReport) Finish() {
	r.FinishedAt = time.Now()
	sort.SliceStable(r.Outcomes, func(i, j int) bool {
		a, b := r.Outcomes[i].Item, r.Outcomes[j].Item
		if a.TreeIndex != b.TreeIndex {
			return a.TreeIndex < b.TreeIndex
		}
		if a.SubIndex != b.SubIndex {
			return a.SubIndex < b.SubIndex
		}
		return a.ID < b.ID
	})
}

// HasFailures reports whether anything failed or was cancelled
func (r *RunReport) HasFailures() bool {
	return r.Failed > 0 || r.Cancelled > 0
}

// Duration returns the wall-clock time of the run
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
