package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/rollbook/internal/report"
	"github.com/verte-zerg/rollbook/internal/ui"
)

const (
	formatSnapshot = "snapshot"
	formatCSV      = "csv"
	formatPDF      = "pdf"
)

var (
	plotCoords bool

	exportOut    string
	exportFormat string
	exportTitle  string
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the attendance table",
		Args:  cobra.NoArgs,
		RunE:  runShowCmd,
	}
}

func runShowCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	return report.RenderTable(cmd.OutOrStdout(), report.BuildTable(s.board))
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Chart the number of attendees per date",
		Args:  cobra.NoArgs,
		RunE:  runPlotCmd,
	}
	cmd.Flags().BoolVar(&plotCoords, "coords", false, "print chart coordinates instead of bars")
	return cmd
}

func runPlotCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	counts := s.board.PerDateCounts()
	if len(counts) == 0 {
		logErrln("No attendance loaded.")
		return nil
	}
	if plotCoords {
		return report.RenderPlacements(cmd.OutOrStdout(), report.GenerateCoordinates(counts))
	}
	return report.RenderBarChart(cmd.OutOrStdout(), counts, 0, plotHeight, false)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the attendance table to a file",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path")
	cmd.Flags().StringVar(&exportFormat, "format", "", "snapshot, csv or pdf (default: from extension)")
	cmd.Flags().StringVar(&exportTitle, "title", "Attendance", "PDF title")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	if strings.TrimSpace(exportOut) == "" {
		return fmt.Errorf("--out is required")
	}
	format, err := resolveExportFormat(exportFormat, exportOut)
	if err != nil {
		return err
	}
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	out := exportOut
	if exportDir != "" && !filepath.IsAbs(out) {
		out = filepath.Join(exportDir, out)
	}
	table := report.BuildTable(s.board)
	switch format {
	case formatPDF:
		data, err := report.RenderPDF(table, exportTitle)
		if err != nil {
			return err
		}
		err = report.SaveFile(out, func(w io.Writer) error {
			_, werr := w.Write(data)
			return werr
		})
		if err != nil {
			return err
		}
	case formatCSV:
		if err := report.SaveFile(out, func(w io.Writer) error { return report.WriteCSV(w, table) }); err != nil {
			return err
		}
	default:
		if err := report.SaveSnapshot(out, table); err != nil {
			return err
		}
	}
	s.log.Info("table exported", zap.String("path", out), zap.String("format", format))
	logErrf("Wrote %s\n", out)
	return nil
}

func resolveExportFormat(format, out string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		if strings.EqualFold(filepath.Ext(out), ".pdf") {
			return formatPDF, nil
		}
		return formatSnapshot, nil
	}
	switch format {
	case formatSnapshot, formatCSV, formatPDF:
		return format, nil
	}
	return "", fmt.Errorf("unknown --format %q (want snapshot, csv or pdf)", format)
}

func newExtrasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extras",
		Short: "List attendees missing from the roster",
		Args:  cobra.NoArgs,
		RunE:  runExtrasCmd,
	}
}

func runExtrasCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	extras := s.board.Extras()
	tags := make([]string, 0, len(extras))
	for tag := range extras {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	w := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(w, "%d additional attendee(s) found:\n", len(tags)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for _, tag := range tags {
		if _, err := fmt.Fprintf(w, "%s connected for %d minutes\n", tag, extras[tag]); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newAboutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "about",
		Short: "Show the project team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, line := range ui.TeamInfo {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			}
			return nil
		},
	}
}

func loadSession(cmd *cobra.Command) (*session, error) {
	s, err := newSession(cmd)
	if err != nil {
		return nil, err
	}
	if err := s.preload(); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}
