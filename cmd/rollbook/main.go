// Package main provides the CLI entrypoint for rollbook.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/rollbook/internal/board"
	"github.com/verte-zerg/rollbook/internal/config"
	"github.com/verte-zerg/rollbook/internal/ingest"
	"github.com/verte-zerg/rollbook/internal/logging"
	"github.com/verte-zerg/rollbook/internal/ui"
)

const (
	defaultPlotHeight = 10
	defaultLogLevel   = "info"
	defaultLogFormat  = "console"
)

var (
	rosterPath     string
	attendanceArgs []string
	exportDir      string
	plotHeight     int
	logLevel       string
	logFormat      string
	logFile        string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rollbook",
		Short:         "Class roster and attendance tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTUICmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rosterPath, "roster", "", "roster file to load")
	flags.StringArrayVar(&attendanceArgs, "attendance", nil, "attendance file or glob (repeatable)")
	flags.StringVar(&exportDir, "export-dir", "", "directory for relative save paths")
	flags.IntVar(&plotHeight, "plot-height", defaultPlotHeight, "chart height in rows")
	flags.StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", defaultLogFormat, "log encoding (console, json)")
	flags.StringVar(&logFile, "log-file", "", "log file path, or - for stderr")

	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newPlotCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newExtrasCmd())
	rootCmd.AddCommand(newAboutCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

type session struct {
	board    *board.Board
	ingestor *ingest.Ingestor
	log      *zap.Logger
}

func newSession(cmd *cobra.Command) (*session, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "roster", &rosterPath, fileCfg.Files.Roster)
	applyListConfig(cmd, "attendance", &attendanceArgs, fileCfg.Files.Attendance)
	applyStringConfig(cmd, "export-dir", &exportDir, fileCfg.Files.ExportDir)
	applyIntConfig(cmd, "plot-height", &plotHeight, fileCfg.Plot.Height)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-format", &logFormat, fileCfg.Log.Format)
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Log.File)

	if err := validateFlags(); err != nil {
		return nil, err
	}

	path := logFile
	if path == "" {
		path = config.DefaultLogPath()
	}
	logger, err := logging.New(logging.Options{Level: logLevel, Format: logFormat, Path: path})
	if err != nil {
		return nil, err
	}
	logger.Debug("session starting", zap.String("command", cmd.Name()), zap.String("roster", rosterPath))

	b := board.New()
	return &session{board: b, ingestor: ingest.New(b, logger), log: logger}, nil
}

func (s *session) close() {
	if err := s.log.Sync(); err != nil {
		// Sync fails on terminals; nothing to recover.
		_ = err
	}
}

// preload loads the configured roster and attendance files without the TUI.
// Per-file problems are reported on stderr and do not fail the command.
func (s *session) preload() error {
	if rosterPath == "" {
		if len(attendanceArgs) > 0 {
			return fmt.Errorf("attendance requires a roster: pass --roster or set [files] roster")
		}
		return nil
	}
	if _, err := s.ingestor.IngestRoster(rosterPath); err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	paths := ui.ExpandGlobs(attendanceArgs)
	if len(paths) == 0 {
		return nil
	}
	res := s.ingestor.IngestAttendanceBatch(paths)
	for _, p := range res.Problems() {
		if p.Err != nil {
			logErrf("%s: %s (%v)\n", p.Path, p.Status, p.Err)
		} else {
			logErrf("%s: %s\n", p.Path, p.Status)
		}
	}
	return nil
}

func runTUICmd(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	m := ui.NewModel(s.board, s.ingestor, s.log, ui.Options{PlotHeight: plotHeight, ExportDir: exportDir})
	defer m.Close()
	if rosterPath != "" {
		m.LoadRoster(rosterPath)
	}
	if len(attendanceArgs) > 0 {
		m.AddAttendance(ui.ExpandGlobs(attendanceArgs))
	}

	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyListConfig(cmd *cobra.Command, name string, target *[]string, value []string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), value...)
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# rollbook configuration
# Uncomment a value to enable it. CLI flags override config values.

[files]
# roster = "roster.csv"            # Roster loaded at startup
# attendance = ["20240101_*.csv"]  # Attendance files or globs loaded at startup
# export-dir = "exports"           # Directory for relative save paths

[plot]
# height = %d                      # Chart height in rows

[log]
# level = %q                   # debug, info, warn, error
# format = %q               # console or json
# file = %q
`,
		defaultPlotHeight,
		defaultLogLevel,
		defaultLogFormat,
		config.DefaultLogPath(),
	)
}

func validateFlags() error {
	if plotHeight <= 0 {
		return fmt.Errorf("--plot-height must be > 0")
	}
	switch logFormat {
	case "console", "json":
	default:
		return fmt.Errorf("--log-format must be console or json")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
