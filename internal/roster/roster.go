// Package roster holds the ordered student roster for a session.
package roster

import "github.com/verte-zerg/rollbook/internal/model"

// NotFound is returned by IndexOf when no student carries the tag.
const NotFound = -1

// Roster is an ordered list of students. Insertion order is display order.
type Roster struct {
	students []model.Student
}

// New returns an empty roster.
func New() *Roster {
	return &Roster{}
}

// Add appends a student. Callers check Contains first to keep IDs unique.
func (r *Roster) Add(s model.Student) {
	r.students = append(r.students, s)
}

// Contains reports whether a student with the same ID is present.
func (r *Roster) Contains(s model.Student) bool {
	for _, existing := range r.students {
		if existing.Same(s) {
			return true
		}
	}
	return false
}

// IndexOf returns the position of the first student with the tag, or NotFound.
func (r *Roster) IndexOf(tag string) int {
	for i, s := range r.students {
		if s.Tag == tag {
			return i
		}
	}
	return NotFound
}

// Clear removes every student.
func (r *Roster) Clear() {
	r.students = nil
}

// Count returns the number of students.
func (r *Roster) Count() int {
	return len(r.students)
}

// Students returns a copy of the roster in order.
func (r *Roster) Students() []model.Student {
	out := make([]model.Student, len(r.students))
	copy(out, r.students)
	return out
}
