package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/rollbook/internal/board"
	"github.com/verte-zerg/rollbook/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func loadRoster(t *testing.T, dir string) (*board.Board, *Ingestor) {
	t.Helper()
	b := board.New()
	in := New(b, nil)
	path := writeFile(t, dir, "roster.csv", "1,Ann,Lee,alee\n2,Bob,Kim,bkim\n")
	if _, err := in.IngestRoster(path); err != nil {
		t.Fatalf("ingest roster: %v", err)
	}
	return b, in
}

func TestIngestRosterSkipsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	b := board.New()
	in := New(b, nil)
	path := writeFile(t, dir, "roster.csv", "1,Ann,Lee,alee\n\n1,Ann,Again,alee2\n2, Bob , Kim ,bkim\n")
	added, err := in.IngestRoster(path)
	if err != nil {
		t.Fatalf("ingest roster: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 students, got %d", added)
	}
	students := b.Students()
	if students[1].FirstName != "Bob" || students[1].Tag != "bkim" {
		t.Fatalf("expected trimmed fields, got %+v", students[1])
	}
	if b.Mode() != model.ModeLoad {
		t.Fatalf("expected Load mode, got %q", b.Mode())
	}
}

func TestIngestRosterKeepsPartialOnBadLine(t *testing.T) {
	dir := t.TempDir()
	b := board.New()
	in := New(b, nil)
	path := writeFile(t, dir, "roster.csv", "1,Ann,Lee,alee\n2,Bob\n3,Cat,Ng,cng\n")
	added, err := in.IngestRoster(path)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line number in error, got %v", err)
	}
	if added != 1 || b.StudentCount() != 1 {
		t.Fatalf("expected partial roster of 1, got %d", b.StudentCount())
	}
}

func TestIngestRosterMissingFileKeepsSession(t *testing.T) {
	dir := t.TempDir()
	b, in := loadRoster(t, dir)
	in.IngestAttendanceBatch([]string{writeFile(t, dir, "20240101_a.csv", "alee,30\nczed,5\n")})
	b.SetMode(model.ModeReady)

	notified := 0
	b.Subscribe(func(board.Event) { notified++ })
	if _, err := in.IngestRoster(filepath.Join(dir, "typo.csv")); err == nil {
		t.Fatalf("expected error for missing roster")
	}
	if b.StudentCount() != 2 || len(b.Records()) != 1 || len(b.Extras()) != 1 {
		t.Fatalf("session changed: students=%d records=%d extras=%d",
			b.StudentCount(), len(b.Records()), len(b.Extras()))
	}
	if b.Mode() != model.ModeReady {
		t.Fatalf("expected mode unchanged, got %v", b.Mode())
	}
	if notified != 0 {
		t.Fatalf("expected no notification, got %d", notified)
	}
}

func TestIngestAttendanceMergesRepeatedTags(t *testing.T) {
	dir := t.TempDir()
	b, in := loadRoster(t, dir)
	path := writeFile(t, dir, "20240101_x", "alee,30\nbkim,20\nalee,15\n")

	res := in.IngestAttendanceBatch([]string{path})
	if len(res.Files) != 1 || res.Files[0].Status != model.StatusOK {
		t.Fatalf("unexpected result %+v", res.Files)
	}
	rec, ok := b.Record(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local))
	if !ok {
		t.Fatalf("expected record for 2024-01-01")
	}
	if m, _ := rec.Minutes("alee"); m != 45 {
		t.Fatalf("expected alee 45, got %d", m)
	}
	if m, _ := rec.Minutes("bkim"); m != 20 {
		t.Fatalf("expected bkim 20, got %d", m)
	}
	got := rec.OrderedStrings(b.Students())
	if len(got) != 2 || got[0] != "45" || got[1] != "20" {
		t.Fatalf("unexpected ordered attendance %v", got)
	}
}

func TestIngestAttendanceCollectsExtras(t *testing.T) {
	dir := t.TempDir()
	b, in := loadRoster(t, dir)
	path := writeFile(t, dir, "20240102.csv", "alee,10\nczed,10\n")

	res := in.IngestAttendanceBatch([]string{path})
	if res.Extras["czed"] != 10 || len(res.Extras) != 1 {
		t.Fatalf("unexpected batch extras %v", res.Extras)
	}
	if b.Extras()["czed"] != 10 {
		t.Fatalf("expected extras installed on board, got %v", b.Extras())
	}
	for _, rec := range b.Records() {
		if rec.HasTag("czed") {
			t.Fatalf("extra attendee must not appear in a record")
		}
	}
}

func TestIngestAttendanceExtrasOverwrite(t *testing.T) {
	dir := t.TempDir()
	b, in := loadRoster(t, dir)
	path := writeFile(t, dir, "20240102.csv", "czed,10\nczed,4\n")
	in.IngestAttendanceBatch([]string{path})
	if b.Extras()["czed"] != 4 {
		t.Fatalf("expected last value to win, got %v", b.Extras())
	}
}

func TestIngestAttendanceSkipsLoadedDate(t *testing.T) {
	dir := t.TempDir()
	b, in := loadRoster(t, dir)
	first := writeFile(t, dir, "20240103_a.csv", "alee,10\n")
	second := writeFile(t, dir, "20240103_b.csv", "alee,99\nbkim,5\n")

	in.IngestAttendanceBatch([]string{first})
	res := in.IngestAttendanceBatch([]string{second})
	if res.Files[0].Status != model.StatusSkippedDuplicate {
		t.Fatalf("expected skipped duplicate, got %v", res.Files[0].Status)
	}
	records := b.Records()
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if m, _ := records[0].Minutes("alee"); m != 10 || records[0].HasTag("bkim") {
		t.Fatalf("expected second file ignored, got alee=%d", m)
	}
}

func TestIngestAttendanceSameBatchSameDateAccumulates(t *testing.T) {
	dir := t.TempDir()
	b, in := loadRoster(t, dir)
	first := writeFile(t, dir, "20240104_a.csv", "alee,10\n")
	second := writeFile(t, dir, "20240104_b.csv", "alee,5\nbkim,7\n")

	res := in.IngestAttendanceBatch([]string{first, second})
	if len(res.Problems()) != 0 {
		t.Fatalf("unexpected problems %+v", res.Problems())
	}
	records := b.Records()
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if m, _ := records[0].Minutes("alee"); m != 15 {
		t.Fatalf("expected 15 minutes, got %d", m)
	}
}

func TestIngestAttendanceSameDaySeparateCenturies(t *testing.T) {
	dir := t.TempDir()
	b, in := loadRoster(t, dir)
	older := writeFile(t, dir, "19240101_a.csv", "alee,10\n")
	newer := writeFile(t, dir, "20240101_b.csv", "alee,20\n")

	res := in.IngestAttendanceBatch([]string{older, newer})
	for _, f := range res.Files {
		if f.Status != model.StatusOK {
			t.Fatalf("unexpected status for %s: %v", f.Path, f.Status)
		}
	}
	if len(b.Records()) != 2 {
		t.Fatalf("expected 2 records, got %d", len(b.Records()))
	}
	rec, ok := b.Record(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local))
	if !ok {
		t.Fatalf("expected record for 2024-01-01")
	}
	if m, _ := rec.Minutes("alee"); m != 20 {
		t.Fatalf("expected alee 20 in 2024, got %d", m)
	}
}

func TestIngestAttendanceBadDateContinuesBatch(t *testing.T) {
	dir := t.TempDir()
	b, in := loadRoster(t, dir)
	bad := writeFile(t, dir, "notadate.csv", "alee,10\n")
	good := writeFile(t, dir, "20240105.csv", "alee,10\n")

	res := in.IngestAttendanceBatch([]string{bad, good})
	if res.Files[0].Status != model.StatusSkippedBadDate || !errors.Is(res.Files[0].Err, ErrBadDate) {
		t.Fatalf("expected bad date skip, got %+v", res.Files[0])
	}
	if res.Files[1].Status != model.StatusOK {
		t.Fatalf("expected second file ok, got %v", res.Files[1].Status)
	}
	if len(b.Records()) != 1 {
		t.Fatalf("expected one record, got %d", len(b.Records()))
	}
}

func TestIngestAttendanceBadMinutesKeepsEarlierLines(t *testing.T) {
	dir := t.TempDir()
	b, in := loadRoster(t, dir)
	path := writeFile(t, dir, "20240106.csv", "alee,10\nbkim,ten\nalee,5\n")

	res := in.IngestAttendanceBatch([]string{path})
	fr := res.Files[0]
	if fr.Status != model.StatusPartial || fr.Lines != 1 {
		t.Fatalf("expected partial with 1 line, got %+v", fr)
	}
	records := b.Records()
	if len(records) != 1 {
		t.Fatalf("expected record kept, got %d", len(records))
	}
	if m, _ := records[0].Minutes("alee"); m != 10 {
		t.Fatalf("expected 10 minutes, got %d", m)
	}
	if records[0].HasTag("bkim") {
		t.Fatalf("expected processing to stop at the bad line")
	}
}

func TestIngestAttendanceMissingFileStoresNothing(t *testing.T) {
	dir := t.TempDir()
	b, in := loadRoster(t, dir)
	res := in.IngestAttendanceBatch([]string{filepath.Join(dir, "20240107.csv")})
	if res.Files[0].Status != model.StatusFailed {
		t.Fatalf("expected failed, got %v", res.Files[0].Status)
	}
	if len(b.Records()) != 0 {
		t.Fatalf("expected no record, got %d", len(b.Records()))
	}
}

func TestIngestAttendanceNotifiesOncePerBatch(t *testing.T) {
	dir := t.TempDir()
	b, in := loadRoster(t, dir)
	var modes []model.Mode
	b.Subscribe(func(ev board.Event) { modes = append(modes, ev.Mode) })
	a := writeFile(t, dir, "20240108.csv", "alee,1\n")
	c := writeFile(t, dir, "20240109.csv", "bkim,1\n")
	in.IngestAttendanceBatch([]string{a, c})
	if len(modes) != 1 || modes[0] != model.ModeAdd {
		t.Fatalf("expected a single Add notification, got %v", modes)
	}
}

func TestSessionDate(t *testing.T) {
	date, err := SessionDate("/tmp/20231231_class.csv")
	if err != nil {
		t.Fatalf("session date: %v", err)
	}
	if date.Year() != 2023 || date.Month() != time.December || date.Day() != 31 {
		t.Fatalf("unexpected date %v", date)
	}
	for _, name := range []string{"short", "2023-12-31.csv", "20231340.csv"} {
		if _, err := SessionDate(name); !errors.Is(err, ErrBadDate) {
			t.Fatalf("expected ErrBadDate for %q, got %v", name, err)
		}
	}
}
