// Package ingest reads roster and attendance files into a board.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/verte-zerg/rollbook/internal/board"
	"github.com/verte-zerg/rollbook/internal/model"
)

const rosterFields = 4

// Ingestor loads files into a board and notifies its subscribers.
type Ingestor struct {
	board *board.Board
	log   *zap.Logger
}

// New returns an Ingestor writing into b. A nil logger discards logs.
func New(b *board.Board, log *zap.Logger) *Ingestor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{board: b, log: log.Named("ingest")}
}

// ParseRoster reads id,firstName,lastName,tag lines. On a malformed line it
// returns the students read before it together with the error.
func ParseRoster(r io.Reader) ([]model.Student, error) {
	var students []model.Student
	scanner := bufio.NewScanner(r)
	lineNum := 0
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
		if len(tokens) < rosterFields {
			return students, fmt.Errorf("line %d: expected %d fields, got %d", lineNum, rosterFields, len(tokens))
		}
		students = append(students, model.Student{
			ID:        strings.TrimSpace(tokens[0]),
			FirstName: strings.TrimSpace(tokens[1]),
			LastName:  strings.TrimSpace(tokens[2]),
			Tag:       strings.TrimSpace(tokens[3]),
		})
	}
	if err := scanner.Err(); err != nil {
		return students, fmt.Errorf("line %d: %w", lineNum+1, err)
	}
	return students, nil
}

// IngestRoster replaces the session with the roster at path. Students whose
// ID is already present are skipped. A file that cannot be opened leaves the
// session untouched. Once it is open, whatever was read before a parse error
// is kept and subscribers are notified.
func (in *Ingestor) IngestRoster(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		in.log.Error("failed to open roster file", zap.String("path", path), zap.Error(err))
		return 0, fmt.Errorf("failed to open roster: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only roster.
			_ = cerr
		}
	}()

	in.board.SetMode(model.ModeLoad)
	in.board.Reset()
	defer in.board.NotifyDataChanged()

	students, parseErr := ParseRoster(file)
	added := 0
	for _, s := range students {
		if in.board.HasStudent(s) {
			in.log.Debug("skipping duplicate student", zap.String("id", s.ID))
			continue
		}
		in.board.AddStudent(s)
		added++
	}
	if parseErr != nil {
		in.log.Error("failed to parse roster",
			zap.String("path", path),
			zap.Int("students", added),
			zap.Error(parseErr))
		return added, fmt.Errorf("failed to parse roster %s: %w", path, parseErr)
	}
	in.log.Info("roster loaded", zap.String("path", path), zap.Int("students", added))
	return added, nil
}
