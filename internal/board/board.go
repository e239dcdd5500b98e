// Package board aggregates roster and attendance state for one session and
// notifies subscribers when it changes.
package board

import (
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/rollbook/internal/attendance"
	"github.com/verte-zerg/rollbook/internal/model"
	"github.com/verte-zerg/rollbook/internal/roster"
)

// ErrDuplicateDate is returned when a record for the same day is already held.
var ErrDuplicateDate = errors.New("attendance for date already loaded")

// Event is delivered to subscribers after a change.
type Event struct {
	Mode model.Mode
}

// Board is the session aggregate. It is not safe for concurrent use; all
// calls are expected from the UI goroutine.
type Board struct {
	roster  *roster.Roster
	records []*attendance.Record
	extras  map[string]int
	mode    model.Mode

	subscribers []*subscriber
}

type subscriber struct {
	fn func(Event)
}

// New returns an empty board.
func New() *Board {
	return &Board{
		roster: roster.New(),
		extras: map[string]int{},
	}
}

// AddStudent appends a student to the roster.
func (b *Board) AddStudent(s model.Student) {
	b.roster.Add(s)
}

// HasStudent reports whether a student with the same ID is on the roster.
func (b *Board) HasStudent(s model.Student) bool {
	return b.roster.Contains(s)
}

// Students returns the roster in order.
func (b *Board) Students() []model.Student {
	return b.roster.Students()
}

// StudentCount returns the roster size.
func (b *Board) StudentCount() int {
	return b.roster.Count()
}

// ClearRoster removes every student.
func (b *Board) ClearRoster() {
	b.roster.Clear()
}

// FindByTag returns the roster position for tag or roster.NotFound.
func (b *Board) FindByTag(tag string) int {
	return b.roster.IndexOf(tag)
}

// AddRecord stores a record after the existing ones. A second record for the
// same day is rejected.
func (b *Board) AddRecord(r *attendance.Record) error {
	if b.HasDate(r.Date()) {
		return fmt.Errorf("%s: %w", r.FormattedDate(), ErrDuplicateDate)
	}
	b.records = append(b.records, r)
	return nil
}

// Record returns the record for the day containing date.
func (b *Board) Record(date time.Time) (*attendance.Record, bool) {
	target := attendance.New(date)
	for _, r := range b.records {
		if r.Equal(target) {
			return r, true
		}
	}
	return nil, false
}

// HasDate reports whether a record for the day containing date is held.
func (b *Board) HasDate(date time.Time) bool {
	_, ok := b.Record(date)
	return ok
}

// Records returns the records in insertion order.
func (b *Board) Records() []*attendance.Record {
	out := make([]*attendance.Record, len(b.records))
	copy(out, b.records)
	return out
}

// SetExtras replaces the unmatched attendees of the last batch.
func (b *Board) SetExtras(extras map[string]int) {
	b.extras = make(map[string]int, len(extras))
	for tag, minutes := range extras {
		b.extras[tag] = minutes
	}
}

// Extras returns a copy of the unmatched attendees of the last batch.
func (b *Board) Extras() map[string]int {
	out := make(map[string]int, len(b.extras))
	for tag, minutes := range b.extras {
		out[tag] = minutes
	}
	return out
}

// SetMode records the last user action.
func (b *Board) SetMode(mode model.Mode) {
	b.mode = mode
}

// Mode returns the last user action.
func (b *Board) Mode() model.Mode {
	return b.mode
}

// PerDateCounts returns the present-student count per date, in insertion order.
func (b *Board) PerDateCounts() []model.DateCount {
	counts := make([]model.DateCount, 0, len(b.records))
	for _, r := range b.records {
		counts = append(counts, model.DateCount{Date: r.FormattedDate(), Count: r.Count()})
	}
	return counts
}

// Reset clears the roster, every record and the extras.
func (b *Board) Reset() {
	b.roster.Clear()
	b.records = nil
	b.extras = map[string]int{}
}

// Subscribe registers fn for change notifications. The returned function
// removes the subscription.
func (b *Board) Subscribe(fn func(Event)) func() {
	sub := &subscriber{fn: fn}
	b.subscribers = append(b.subscribers, sub)
	return func() {
		for i, s := range b.subscribers {
			if s == sub {
				b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
				return
			}
		}
	}
}

// NotifyDataChanged calls every subscriber synchronously, in subscription
// order. Subscribers must not start a new ingestion from the callback.
func (b *Board) NotifyDataChanged() {
	ev := Event{Mode: b.mode}
	subs := make([]*subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	for _, s := range subs {
		s.fn(ev)
	}
}
