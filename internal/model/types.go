// Package model defines shared data structures.
package model

import "time"

// Student is a single roster entry. Two students are the same student when
// their IDs match.
type Student struct {
	ID        string
	FirstName string
	LastName  string
	Tag       string
}

// Same reports whether s and other share an ID.
func (s Student) Same(other Student) bool {
	return s.ID == other.ID
}

// Mode describes the last user action applied to a session.
type Mode string

// Modes published to board subscribers.
const (
	ModeReady Mode = ""
	ModeLoad  Mode = "Load"
	ModeAdd   Mode = "Add"
	ModePlot  Mode = "Plot"
)

// String returns the status-bar label for the mode.
func (m Mode) String() string {
	if m == ModeReady {
		return "Ready"
	}
	return string(m)
}

// DateLayout is the display layout for session dates (MM/dd/yy).
const DateLayout = "01/02/06"

// FileDateLayout is the layout of the date prefix in attendance file names.
const FileDateLayout = "20060102"

// DateCount is the number of present students for one session date.
type DateCount struct {
	Date  string
	Count int
}

// Coordinate is a chart placement.
type Coordinate struct {
	X float64
	Y float64
}

// FileStatus classifies the outcome of ingesting one attendance file.
type FileStatus int

// File outcomes.
const (
	StatusOK FileStatus = iota
	StatusPartial
	StatusFailed
	StatusSkippedBadDate
	StatusSkippedDuplicate
)

func (s FileStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusPartial:
		return "partial"
	case StatusFailed:
		return "failed"
	case StatusSkippedBadDate:
		return "skipped (bad date)"
	case StatusSkippedDuplicate:
		return "skipped (date already loaded)"
	default:
		return "unknown"
	}
}

// FileResult reports what happened to a single attendance file.
type FileResult struct {
	Path   string
	Date   time.Time
	Status FileStatus
	// Lines counts the lines committed from the file.
	Lines int
	Err   error
}
