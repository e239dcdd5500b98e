package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/rollbook/internal/attendance"
	"github.com/verte-zerg/rollbook/internal/model"
	"github.com/verte-zerg/rollbook/internal/roster"
)

// ErrBadDate is returned when a file name does not start with yyyyMMdd.
var ErrBadDate = errors.New("file name does not start with a yyyyMMdd date")

const datePrefixLen = len(model.FileDateLayout)

// BatchResult describes one Add Attendance pass.
type BatchResult struct {
	Files []model.FileResult
	// Extras maps unmatched tags to minutes. A tag seen more than once keeps
	// its last value.
	Extras map[string]int
}

// Problems returns the files that were not fully ingested.
func (r BatchResult) Problems() []model.FileResult {
	var out []model.FileResult
	for _, f := range r.Files {
		if f.Status != model.StatusOK {
			out = append(out, f)
		}
	}
	return out
}

// SessionDate parses the session date from the first eight characters of the
// file's base name.
func SessionDate(path string) (time.Time, error) {
	name := filepath.Base(path)
	if len(name) < datePrefixLen {
		return time.Time{}, fmt.Errorf("%s: %w", name, ErrBadDate)
	}
	date, err := time.ParseInLocation(model.FileDateLayout, name[:datePrefixLen], time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", name, ErrBadDate)
	}
	return date, nil
}

// IngestAttendanceBatch loads attendance files. Dates already on the board
// before the call are skipped; files in this batch sharing a date accumulate
// into one record. Extras are installed and subscribers notified once, after
// every file is processed.
func (in *Ingestor) IngestAttendanceBatch(paths []string) BatchResult {
	in.board.SetMode(model.ModeAdd)

	result := BatchResult{Extras: map[string]int{}}
	created := map[string]*attendance.Record{}

	for _, path := range paths {
		fr := model.FileResult{Path: path}

		date, err := SessionDate(path)
		if err != nil {
			fr.Status = model.StatusSkippedBadDate
			fr.Err = err
			in.log.Warn("skipping attendance file", zap.String("path", path), zap.Error(err))
			result.Files = append(result.Files, fr)
			continue
		}
		fr.Date = date

		rec := attendance.New(date)
		key := date.Format(model.FileDateLayout)
		if existing, ok := created[key]; ok {
			rec = existing
		} else if in.board.HasDate(date) {
			fr.Status = model.StatusSkippedDuplicate
			in.log.Info("date already loaded, skipping", zap.String("path", path), zap.String("date", key))
			result.Files = append(result.Files, fr)
			continue
		}

		fr.Lines, fr.Err = in.ingestAttendanceFile(path, rec, result.Extras)
		switch {
		case fr.Err == nil:
			fr.Status = model.StatusOK
		case errors.Is(fr.Err, errOpen):
			fr.Status = model.StatusFailed
			in.log.Error("failed to open attendance file", zap.String("path", path), zap.Error(fr.Err))
		default:
			fr.Status = model.StatusPartial
			in.log.Error("attendance file stopped early",
				zap.String("path", path),
				zap.Int("lines", fr.Lines),
				zap.Error(fr.Err))
		}

		if fr.Status != model.StatusFailed {
			if _, ok := created[key]; !ok {
				if err := in.board.AddRecord(rec); err != nil {
					in.log.Error("failed to store attendance record", zap.String("date", key), zap.Error(err))
				} else {
					created[key] = rec
				}
			}
		}
		result.Files = append(result.Files, fr)
	}

	in.board.SetExtras(result.Extras)
	in.board.NotifyDataChanged()
	return result
}

var errOpen = errors.New("cannot open file")

func (in *Ingestor) ingestAttendanceFile(path string, rec *attendance.Record, extras map[string]int) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errOpen, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only attendance file.
			_ = cerr
		}
	}()
	return in.readAttendance(file, rec, extras)
}

// readAttendance applies tag,minutes lines to rec. It stops at the first
// malformed line; lines before it stay applied.
func (in *Ingestor) readAttendance(r io.Reader, rec *attendance.Record, extras map[string]int) (int, error) {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	committed := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		tokens := strings.Split(line, ",")
		if len(tokens) < 2 {
			return committed, fmt.Errorf("line %d: expected tag,minutes", lineNum)
		}
		tag := strings.TrimSpace(tokens[0])
		minutes, err := strconv.Atoi(strings.TrimSpace(tokens[1]))
		if err != nil {
			return committed, fmt.Errorf("line %d: invalid minutes %q: %w", lineNum, strings.TrimSpace(tokens[1]), err)
		}

		if in.board.FindByTag(tag) == roster.NotFound {
			extras[tag] = minutes
		} else {
			rec.Accumulate(tag, minutes)
		}
		committed++
	}
	if err := scanner.Err(); err != nil {
		return committed, fmt.Errorf("line %d: %w", lineNum+1, err)
	}
	return committed, nil
}
