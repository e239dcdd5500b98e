package attendance

import (
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/rollbook/internal/model"
)

func testDate() time.Time {
	return time.Date(2024, time.January, 1, 15, 30, 0, 0, time.UTC)
}

func TestAddThenMergeAccumulates(t *testing.T) {
	r := New(testDate())
	if err := r.AddMinutes("alee", 30); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.MergeMinutes("alee", 15); err != nil {
		t.Fatalf("merge: %v", err)
	}
	got, ok := r.Minutes("alee")
	if !ok || got != 45 {
		t.Fatalf("expected 45 minutes, got %d (ok=%v)", got, ok)
	}
}

func TestAddMinutesRejectsExistingTag(t *testing.T) {
	r := New(testDate())
	if err := r.AddMinutes("alee", 30); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.AddMinutes("alee", 5); !errors.Is(err, ErrTagExists) {
		t.Fatalf("expected ErrTagExists, got %v", err)
	}
	if got, _ := r.Minutes("alee"); got != 30 {
		t.Fatalf("expected minutes unchanged, got %d", got)
	}
}

func TestMergeMinutesRejectsMissingTag(t *testing.T) {
	r := New(testDate())
	if err := r.MergeMinutes("ghost", 5); !errors.Is(err, ErrTagMissing) {
		t.Fatalf("expected ErrTagMissing, got %v", err)
	}
	if r.HasTag("ghost") {
		t.Fatalf("expected merge failure to leave record untouched")
	}
}

func TestOrderedFollowsRosterWithGaps(t *testing.T) {
	students := []model.Student{
		{ID: "1", Tag: "alee"},
		{ID: "2", Tag: "bkim"},
		{ID: "3", Tag: "cng"},
	}
	r := New(testDate())
	r.Accumulate("cng", 12)
	r.Accumulate("alee", 30)
	r.Accumulate("alee", 15)

	got := r.OrderedStrings(students)
	want := []string{"45", MissingCell, "12"}
	if len(got) != len(want) {
		t.Fatalf("expected %d cells, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cell %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	cells := r.Ordered(students)
	if cells[1].Present {
		t.Fatalf("expected absent cell for bkim")
	}
}

func TestOrderedCreditsFirstRowOfRepeatedTag(t *testing.T) {
	students := []model.Student{
		{ID: "1", FirstName: "Ann", LastName: "Lee", Tag: "alee"},
		{ID: "2", FirstName: "Ann", LastName: "Twin", Tag: "alee"},
	}
	r := New(testDate())
	r.Accumulate("alee", 30)

	got := r.OrderedStrings(students)
	if len(got) != 2 || got[0] != "30" || got[1] != MissingCell {
		t.Fatalf("unexpected ordered attendance %v", got)
	}
	present := 0
	for _, c := range r.Ordered(students) {
		if c.Present {
			present++
		}
	}
	if present != r.Count() {
		t.Fatalf("expected %d present cells to match count, got %d", r.Count(), present)
	}
}

func TestFormattedDateAndEquality(t *testing.T) {
	a := New(testDate())
	b := New(time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC))
	if got := a.FormattedDate(); got != "01/01/24" {
		t.Fatalf("unexpected formatted date %q", got)
	}
	if !a.Equal(b) {
		t.Fatalf("expected records on the same day to be equal")
	}
	c := New(testDate().AddDate(0, 0, 1))
	if a.Equal(c) {
		t.Fatalf("expected different days to differ")
	}
}

func TestCountAndTags(t *testing.T) {
	r := New(testDate())
	r.Accumulate("b", 1)
	r.Accumulate("a", 2)
	r.Accumulate("b", 3)
	if r.Count() != 2 {
		t.Fatalf("expected 2 tags, got %d", r.Count())
	}
	tags := r.Tags()
	if tags[0] != "a" || tags[1] != "b" {
		t.Fatalf("unexpected tag order %v", tags)
	}
}
