// Package ui provides the Bubble Tea attendance interface.
package ui

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/rollbook/internal/board"
	"github.com/verte-zerg/rollbook/internal/ingest"
	"github.com/verte-zerg/rollbook/internal/model"
	"github.com/verte-zerg/rollbook/internal/report"
)

const (
	tabTable = iota
	tabPlot
)

const (
	defaultPlotHeight = 10
	maxColumnWidth    = 24
)

const (
	msgCancelled     = "User cancelled the operation"
	msgRosterLoaded  = "Roster File loaded"
	msgAttendLoaded  = "Attendance Files loaded"
	msgSaved         = "Table data saved successfully"
	msgNeedRoster    = "Load a roster before adding attendance"
	msgNothingToPlot = "No attendance to plot"
)

type promptKind int

const (
	promptNone promptKind = iota
	promptRoster
	promptAttendance
	promptSave
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#3A3A3A"))
	titleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Options configures a Model.
type Options struct {
	PlotHeight int
	// ExportDir is joined to relative save paths.
	ExportDir string
}

type dialog struct {
	title string
	lines []string
}

// Model implements the Bubble Tea attendance UI.
type Model struct {
	board       *board.Board
	ingestor    *ingest.Ingestor
	log         *zap.Logger
	opts        Options
	unsubscribe func()

	tabs      []string
	activeTab int
	table     table.Model
	plot      viewport.Model
	snapshot  report.Table

	width  int
	height int

	status string

	prompt      promptKind
	input       textinput.Model
	inputError  string
	dialog      *dialog
	lastSavedTo string
}

// NewModel constructs the UI and subscribes it to b.
func NewModel(b *board.Board, in *ingest.Ingestor, log *zap.Logger, opts Options) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.PlotHeight <= 0 {
		opts.PlotHeight = defaultPlotHeight
	}
	m := &Model{
		board:    b,
		ingestor: in,
		log:      log.Named("ui"),
		opts:     opts,
		tabs:     []string{"Table", "Plot"},
		table:    table.New(table.WithHeight(1), table.WithFocused(true)),
		plot:     viewport.New(0, 0),
	}
	m.table.SetStyles(tableStyles())
	m.input = newPathInput()
	m.unsubscribe = b.Subscribe(m.onBoardChanged)
	m.refreshTable()
	return m
}

// Close removes the board subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.refreshPlot()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.dialog != nil {
			switch msg.Type {
			case tea.KeyEnter, tea.KeyEsc, tea.KeySpace:
				m.dialog = nil
			}
			return m, nil
		}
		if m.prompt != promptNone {
			return m.updatePrompt(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.status = "Load Roster"
			return m, m.startPrompt(promptRoster)
		case "a":
			m.status = "Add Attendance"
			if m.board.StudentCount() == 0 {
				m.status = msgNeedRoster
				return m, nil
			}
			return m, m.startPrompt(promptAttendance)
		case "s":
			m.status = "Save Data"
			return m, m.startPrompt(promptSave)
		case "p":
			m.PlotData()
			return m, nil
		case "?":
			m.status = "View Team Details"
			m.dialog = &dialog{title: "Project Team", lines: TeamInfo}
			return m, nil
		case "g", "home":
			if m.activeTab == tabTable {
				m.table.GotoTop()
			} else {
				m.plot.GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabTable {
				m.table.GotoBottom()
			} else {
				m.plot.GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if m.activeTab == tabTable {
				m.table, cmd = m.table.Update(msg)
			} else {
				m.plot, cmd = m.plot.Update(msg)
			}
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.dialog != nil {
		return fitLines(m.renderDialog(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// LoadRoster replaces the session with the roster at path.
func (m *Model) LoadRoster(path string) {
	n, err := m.ingestor.IngestRoster(path)
	if err != nil {
		m.status = fmt.Sprintf("Roster error: %v", err)
		if n > 0 {
			m.status = fmt.Sprintf("Roster partially loaded (%d students): %v", n, err)
		}
		return
	}
	m.status = msgRosterLoaded
}

// AddAttendance ingests the given files and opens the summary dialog.
func (m *Model) AddAttendance(paths []string) {
	if m.board.StudentCount() == 0 {
		m.status = msgNeedRoster
		return
	}
	res := m.ingestor.IngestAttendanceBatch(paths)
	m.status = msgAttendLoaded
	m.dialog = &dialog{title: "Attendance Loaded", lines: summaryLines(res)}
}

// SaveData writes the current table snapshot to path, adding .csv when missing.
func (m *Model) SaveData(path string) error {
	path = savePath(path, m.opts.ExportDir)
	if err := report.SaveSnapshot(path, report.BuildTable(m.board)); err != nil {
		m.log.Error("failed to save table", zap.String("path", path), zap.Error(err))
		m.status = fmt.Sprintf("Save failed: %v", err)
		return err
	}
	m.lastSavedTo = path
	m.status = msgSaved
	return nil
}

// PlotData switches the display to the per-date chart.
func (m *Model) PlotData() {
	m.status = "Plot Data"
	if len(m.board.Records()) == 0 {
		m.status = msgNothingToPlot
	}
	m.board.SetMode(model.ModePlot)
	m.board.NotifyDataChanged()
}

func (m *Model) onBoardChanged(ev board.Event) {
	m.refreshTable()
	m.refreshPlot()
	switch ev.Mode {
	case model.ModePlot:
		m.activeTab = tabPlot
		m.table.Blur()
	case model.ModeLoad, model.ModeAdd:
		m.activeTab = tabTable
		m.table.Focus()
	}
}

func (m *Model) refreshTable() {
	m.snapshot = report.BuildTable(m.board)
	cols := columnsFor(m.snapshot)
	rows := make([]table.Row, 0, len(m.snapshot.Rows))
	for _, r := range m.snapshot.Rows {
		rows = append(rows, table.Row(r))
	}
	// Rows must never be wider than the columns while they are swapped.
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
}

func (m *Model) refreshPlot() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	var buf bytes.Buffer
	if err := report.RenderBarChart(&buf, m.board.PerDateCounts(), width, m.opts.PlotHeight, true); err != nil {
		m.plot.SetContent(fmt.Sprintf("Failed to render chart: %v", err))
		return
	}
	m.plot.SetContent(strings.TrimRight(buf.String(), "\n"))
}

func columnsFor(t report.Table) []table.Column {
	cols := make([]table.Column, 0, len(t.Headers))
	for i, h := range t.Headers {
		width := lipgloss.Width(h)
		for _, row := range t.Rows {
			if i < len(row) {
				width = maxInt(width, lipgloss.Width(row[i]))
			}
		}
		cols = append(cols, table.Column{Title: h, Width: minInt(width, maxColumnWidth)})
	}
	return cols
}

func summaryLines(res ingest.BatchResult) []string {
	lines := []string{fmt.Sprintf("%d additional attendee(s) found: ", len(res.Extras))}
	tags := make([]string, 0, len(res.Extras))
	for tag := range res.Extras {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		lines = append(lines, fmt.Sprintf("%s connected for %d minutes", tag, res.Extras[tag]))
	}
	problems := res.Problems()
	if len(problems) > 0 {
		lines = append(lines, "", fmt.Sprintf("%d file(s) not fully loaded:", len(problems)))
		for _, p := range problems {
			line := fmt.Sprintf("%s: %s", filepath.Base(p.Path), p.Status)
			if p.Err != nil {
				line += fmt.Sprintf(" (%v)", p.Err)
			}
			lines = append(lines, line)
		}
	}
	return lines
}

func savePath(path, exportDir string) string {
	path = strings.TrimSpace(path)
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		path += ".csv"
	}
	if exportDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(exportDir, path)
	}
	return path
}

// ParsePaths splits user input on commas and whitespace and expands globs.
func ParsePaths(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	return ExpandGlobs(fields)
}

// ExpandGlobs replaces each pattern with its sorted matches. Patterns without
// matches are kept so the failure is reported per file.
func ExpandGlobs(patterns []string) []string {
	var out []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil || len(matches) == 0 {
			out = append(out, p)
			continue
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out
}

func newPathInput() textinput.Model {
	input := textinput.New()
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) startPrompt(kind promptKind) tea.Cmd {
	m.prompt = kind
	m.inputError = ""
	m.input.SetValue("")
	switch kind {
	case promptRoster:
		m.input.Prompt = "Roster file: "
		m.input.Placeholder = "roster.csv"
	case promptAttendance:
		m.input.Prompt = "Attendance files: "
		m.input.Placeholder = "20240101_class.csv 20240108_*.csv"
	case promptSave:
		m.input.Prompt = "Save as: "
		m.input.Placeholder = "attendance"
	}
	return m.input.Focus()
}

func (m *Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt = promptNone
		m.input.Blur()
		m.status = msgCancelled
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			m.inputError = "enter a path, or esc to cancel"
			return m, nil
		}
		kind := m.prompt
		m.prompt = promptNone
		m.input.Blur()
		switch kind {
		case promptRoster:
			m.LoadRoster(value)
		case promptAttendance:
			m.AddAttendance(ParsePaths(value))
		case promptSave:
			if err := m.SaveData(value); err != nil {
				m.inputError = err.Error()
			}
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabTable {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 2
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.plot.Width = m.width
	m.plot.Height = bodyHeight
	m.table.SetWidth(m.width)
	m.table.SetHeight(maxInt(1, bodyHeight-1))
	promptWidth := lipgloss.Width(m.input.Prompt)
	m.input.Width = maxInt(10, m.width-promptWidth-2)
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := fmt.Sprintf("Students: %d  Dates: %d  Extras: %d  Mode: %s",
		m.board.StudentCount(), len(m.board.Records()), len(m.board.Extras()), m.board.Mode())
	return tabs + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderBody(height int) string {
	if m.prompt != promptNone {
		lines := []string{m.input.View()}
		if m.inputError != "" {
			lines = append(lines, errorStyle.Render(m.inputError))
		}
		return fitLines(strings.Join(lines, "\n"), m.width, height)
	}
	if m.activeTab == tabTable {
		if len(m.snapshot.Rows) == 0 {
			return fitLines("No students loaded. Press r to load a roster.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.table.View()), m.width, height)
	}
	return fitLines(m.plot.View(), m.width, height)
}

func (m *Model) renderHelp() string {
	if m.prompt != promptNone {
		return headerStyle.Render("enter: confirm  esc: cancel")
	}
	help := "r: load roster  a: add attendance  s: save  p: plot  ?: team  left/right: tabs  q: quit"
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFooter() string {
	return m.renderHelp() + "\n" + statusStyle.Render(padLine(truncateLine(m.statusText(), m.width), m.width))
}

func (m *Model) statusText() string {
	if m.status == "" {
		return "Ready"
	}
	return m.status
}

func (m *Model) renderDialog() string {
	body := []string{titleStyle.Render(m.dialog.title), ""}
	body = append(body, m.dialog.lines...)
	body = append(body, "", headerStyle.Render("enter / esc to close"))
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}
