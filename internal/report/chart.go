package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/rollbook/internal/model"
)

// Scaling used for chart placement: counts in [yLowData, yHighData] map onto
// pixel rows [yLowPixel, yHighPixel]; date i sits at xStart + i*xStep.
const (
	yLowData   = 0
	yHighData  = 400
	yLowPixel  = 300
	yHighPixel = 700
	xStart     = 150
	xStep      = 50
)

const (
	defaultChartHeight  = 10
	minChartHeight      = 3
	barWidth            = 3
	slotWidth           = 5
	chartTitle          = "Attendance per date"
	chartXLabel         = "Dates"
	chartYLabel         = "No. of Students"
	chartAxisSeparator  = " │ "
	barColor            = "\x1b[36m"
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var barEighths = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Placement is a date positioned on the chart.
type Placement struct {
	Date  string
	Count int
	model.Coordinate
}

// NormalizeY maps a student count onto the chart's pixel range.
func NormalizeY(count int) float64 {
	mid := float64(count-yLowData) / float64(yHighData-yLowData)
	return mid*float64(yHighPixel-yLowPixel) + yLowPixel
}

// GenerateCoordinates places each date count on the chart, in order.
func GenerateCoordinates(counts []model.DateCount) []Placement {
	out := make([]Placement, 0, len(counts))
	for i, c := range counts {
		out = append(out, Placement{
			Date:  c.Date,
			Count: c.Count,
			Coordinate: model.Coordinate{
				X: float64(xStart + xStep*i),
				Y: NormalizeY(c.Count),
			},
		})
	}
	return out
}

// RenderBarChart prints a text bar chart of the counts. A width of zero uses
// the terminal width; when not every date fits, the most recent ones are kept.
func RenderBarChart(w io.Writer, counts []model.DateCount, width, height int, forceColor bool) error {
	if len(counts) == 0 {
		_, err := fmt.Fprintln(w, "No attendance loaded.")
		return err
	}
	if height <= 0 {
		height = defaultChartHeight
	}
	if height < minChartHeight {
		height = minChartHeight
	}
	if width <= 0 {
		width = terminalWidth()
	}

	top := 0
	for _, c := range counts {
		if c.Count > top {
			top = c.Count
		}
	}
	if top == 0 {
		top = 1
	}
	labelWidth := len(strconv.Itoa(top))

	if n := BarsFor(width, labelWidth); n < len(counts) {
		counts = counts[len(counts)-n:]
	}

	useColor := shouldUseColor(w, forceColor)
	axis := makeAxisLabels(height, top)
	eighths := make([]int, len(counts))
	for i, c := range counts {
		eighths[i] = int(math.Round(float64(c.Count) / float64(top) * float64(height*8)))
	}

	lines := []string{chartTitle}
	for row := 0; row < height; row++ {
		level := (height - row - 1) * 8
		var b strings.Builder
		b.WriteString(fmt.Sprintf("%*s%s", labelWidth, axis[row], chartAxisSeparator))
		for _, e := range eighths {
			cell := barCell(e - level)
			if useColor && cell != " " {
				b.WriteString(barColor + strings.Repeat(cell, barWidth) + colorReset)
			} else {
				b.WriteString(strings.Repeat(cell, barWidth))
			}
			b.WriteString(strings.Repeat(" ", slotWidth-barWidth))
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}

	indent := strings.Repeat(" ", labelWidth+len([]rune(chartAxisSeparator)))
	lines = append(lines, strings.Repeat(" ", labelWidth)+" └"+strings.Repeat("─", len(counts)*slotWidth))
	lines = append(lines, indent+countRow(counts))
	// Dates alternate between two rows so neighbouring labels never overlap.
	lines = append(lines, indent+labelRow(counts, 0))
	if len(counts) > 1 {
		lines = append(lines, indent+labelRow(counts, 1))
	}
	lines = append(lines, fmt.Sprintf("x: %s  y: %s", chartXLabel, chartYLabel))

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// BarsFor returns how many bars fit in totalWidth columns.
func BarsFor(totalWidth, labelWidth int) int {
	avail := totalWidth - labelWidth - len([]rune(chartAxisSeparator))
	n := avail / slotWidth
	if n < 1 {
		return 1
	}
	return n
}

func barCell(eighths int) string {
	if eighths <= 0 {
		return " "
	}
	if eighths >= 8 {
		return string(barEighths[8])
	}
	return string(barEighths[eighths])
}

func countRow(counts []model.DateCount) string {
	var b strings.Builder
	for _, c := range counts {
		b.WriteString(padCell(strconv.Itoa(c.Count), slotWidth, false))
	}
	return strings.TrimRight(b.String(), " ")
}

func labelRow(counts []model.DateCount, parity int) string {
	var b strings.Builder
	for i := 0; i < len(counts); i++ {
		if i%2 != parity {
			continue
		}
		col := i * slotWidth
		if pad := col - displayWidth(b.String()); pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString(counts[i].Date)
	}
	return b.String()
}

func makeAxisLabels(height, top int) []string {
	labels := make([]string, height)
	labels[0] = strconv.Itoa(top)
	if height > 2 && top > 1 {
		labels[height/2] = strconv.Itoa(int(math.Round(float64(top) * float64(height-1-height/2) / float64(height-1))))
	}
	labels[height-1] = "0"
	return labels
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// RenderPlacements prints chart placements as an aligned table.
func RenderPlacements(w io.Writer, placements []Placement) error {
	rows := make([][]string, 0, len(placements))
	for _, p := range placements {
		rows = append(rows, []string{
			p.Date,
			strconv.Itoa(p.Count),
			strconv.FormatFloat(p.X, 'f', 1, 64),
			strconv.FormatFloat(p.Y, 'f', 1, 64),
		})
	}
	for _, line := range formatTable([]string{"Date", "Students", "X", "Y"}, rows, map[int]bool{1: true, 2: true, 3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
