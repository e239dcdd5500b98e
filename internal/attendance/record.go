// Package attendance models the minutes recorded for one class session.
package attendance

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/verte-zerg/rollbook/internal/model"
)

// MissingCell is the rendering of a roster student absent from a session.
const MissingCell = "null"

var (
	// ErrTagExists is returned by AddMinutes when the tag already has minutes.
	ErrTagExists = errors.New("tag already recorded")
	// ErrTagMissing is returned by MergeMinutes when the tag has no minutes yet.
	ErrTagMissing = errors.New("tag not recorded")
)

// Cell is one roster-ordered attendance value.
type Cell struct {
	Minutes int
	Present bool
}

func (c Cell) String() string {
	if !c.Present {
		return MissingCell
	}
	return strconv.Itoa(c.Minutes)
}

// Record holds accumulated minutes per tag for one session date.
// Records are equal when their dates are equal.
type Record struct {
	date    time.Time
	minutes map[string]int
}

// New returns an empty record for the day containing date.
func New(date time.Time) *Record {
	y, m, d := date.Date()
	return &Record{
		date:    time.Date(y, m, d, 0, 0, 0, 0, date.Location()),
		minutes: map[string]int{},
	}
}

// Date returns the session date.
func (r *Record) Date() time.Time {
	return r.date
}

// FormattedDate returns the date as MM/dd/yy.
func (r *Record) FormattedDate() string {
	return r.date.Format(model.DateLayout)
}

// Equal reports whether both records describe the same day.
func (r *Record) Equal(other *Record) bool {
	if other == nil {
		return false
	}
	return r.date.Equal(other.date)
}

// HasTag reports whether minutes are recorded for tag.
func (r *Record) HasTag(tag string) bool {
	_, ok := r.minutes[tag]
	return ok
}

// AddMinutes records the first minutes seen for tag.
func (r *Record) AddMinutes(tag string, minutes int) error {
	if r.HasTag(tag) {
		return fmt.Errorf("add %q on %s: %w", tag, r.FormattedDate(), ErrTagExists)
	}
	r.minutes[tag] = minutes
	return nil
}

// MergeMinutes adds minutes to an existing entry for tag.
func (r *Record) MergeMinutes(tag string, minutes int) error {
	if !r.HasTag(tag) {
		return fmt.Errorf("merge %q on %s: %w", tag, r.FormattedDate(), ErrTagMissing)
	}
	r.minutes[tag] += minutes
	return nil
}

// Accumulate adds minutes for a new tag or merges them into an existing one.
func (r *Record) Accumulate(tag string, minutes int) {
	if r.HasTag(tag) {
		_ = r.MergeMinutes(tag, minutes)
		return
	}
	_ = r.AddMinutes(tag, minutes)
}

// Minutes returns the accumulated minutes for tag.
func (r *Record) Minutes(tag string) (int, bool) {
	m, ok := r.minutes[tag]
	return m, ok
}

// Count returns the number of distinct tags recorded.
func (r *Record) Count() int {
	return len(r.minutes)
}

// Tags returns the recorded tags sorted alphabetically.
func (r *Record) Tags() []string {
	tags := make([]string, 0, len(r.minutes))
	for tag := range r.minutes {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Ordered returns one cell per student, in roster order. Students without
// minutes for this date get an absent cell.
func (r *Record) Ordered(students []model.Student) []Cell {
	cells := make([]Cell, len(students))
	filled := make(map[string]bool, len(r.minutes))
	for i, s := range students {
		m, ok := r.minutes[s.Tag]
		if !ok || filled[s.Tag] {
			continue
		}
		// A tag repeated in the roster is credited to its first row only.
		filled[s.Tag] = true
		cells[i] = Cell{Minutes: m, Present: true}
	}
	return cells
}

// OrderedStrings is Ordered rendered as strings.
func (r *Record) OrderedStrings(students []model.Student) []string {
	cells := r.Ordered(students)
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.String()
	}
	return out
}
