package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/kurihiro0119/devpulse/internal/domain"
)

var levelGlyphs = [5]string{"·", "░", "▒", "▓", "█"}

var levelColors = [5]*color.Color{
	color.New(color.FgHiBlack),
	color.New(color.FgGreen),
	color.New(color.FgGreen),
	color.New(color.FgHiGreen),
	color.New(color.FgHiGreen, color.Bold),
}

var weekdayLabels = [7]string{"", "Mon", "", "Wed", "", "Fri", ""}

// Heatmap renders the contribution calendar as a week-per-column grid.
// The first column is padded so rows line up with Sunday through Saturday.
func (r *Renderer) Heatmap(days []domain.ContributionDay, total int) {
	fmt.Fprintln(r.w)
	titleColor.Fprintf(r.w, "%d contributions in the last year\n", total)
	if len(days) == 0 {
		return
	}

	for _, line := range heatmapLines(days) {
		fmt.Fprintln(r.w, line)
	}

	var legend strings.Builder
	legend.WriteString("     Less ")
	for level := range levelGlyphs {
		legend.WriteString(cell(level))
	}
	legend.WriteString(" More")
	fmt.Fprintln(r.w, legend.String())
	mutedColor.Fprintln(r.w, "     Contribution counts are sample data.")
}

// heatmapLines builds the month header and seven weekday rows
func heatmapLines(days []domain.ContributionDay) []string {
	first, err := time.Parse("2006-01-02", days[0].Date)
	if err != nil {
		return nil
	}
	pad := int(first.Weekday())
	weeks := (pad + len(days) + 6) / 7

	grid := make([][]int, 7)
	for row := range grid {
		grid[row] = make([]int, weeks)
		for col := range grid[row] {
			grid[row][col] = -1
		}
	}
	for i, d := range days {
		pos := pad + i
		grid[pos%7][pos/7] = clampLevel(d.Level)
	}

	lines := make([]string, 0, 8)
	lines = append(lines, "     "+monthHeader(first, pad, weeks))
	for row := 0; row < 7; row++ {
		var b strings.Builder
		fmt.Fprintf(&b, "%-4s ", weekdayLabels[row])
		for col := 0; col < weeks; col++ {
			if grid[row][col] < 0 {
				b.WriteString("  ")
				continue
			}
			b.WriteString(cell(grid[row][col]))
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	return lines
}

// monthHeader labels each column where a new month begins. Labels that
// would overlap the previous one are skipped.
func monthHeader(first time.Time, pad, weeks int) string {
	header := []rune(strings.Repeat(" ", weeks*2))
	lastMonth := time.Month(0)
	nextFree := 0

	for col := 0; col < weeks; col++ {
		// first real day in this column
		offset := col*7 - pad
		if offset < 0 {
			offset = 0
		}
		month := first.AddDate(0, 0, offset).Month()
		if month == lastMonth {
			continue
		}
		lastMonth = month

		pos := col * 2
		label := []rune(month.String()[:3])
		if pos < nextFree || pos+len(label) > len(header) {
			continue
		}
		copy(header[pos:], label)
		nextFree = pos + len(label) + 1
	}
	return strings.TrimRight(string(header), " ")
}

func cell(level int) string {
	return levelColors[level].Sprint(levelGlyphs[level]) + " "
}

func clampLevel(level int) int {
	switch {
	case level < 0:
		return 0
	case level > 4:
		return 4
	}
	return level
}
