package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/auri-app/auri/pkg/bubble"
	"github.com/auri-app/auri/pkg/emotion"
	"github.com/auri-app/auri/pkg/journal"
)

// Terminal colors (ANSI 256).
var (
	colorTeal   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorAmber  = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
	colorPurple = lipgloss.Color("141")
)

var (
	// StyleTitle for headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)

	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorTeal)
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning = lipgloss.NewStyle().Foreground(colorAmber)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorAmber)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorTeal)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey      = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	stylePositive = lipgloss.NewStyle().Foreground(colorGreen)
	styleNegative = lipgloss.NewStyle().Foreground(colorPurple)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconBubble  = "●"
	iconBar     = "█"
)

// maxBarWidth is the width of the longest bar drawn by printCounts.
const maxBarWidth = 30

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}

// printStats prints layout statistics on one line, e.g.
// "7 bubbles · 1 overlapping · cached".
func printStats(bubbles, overflowed int, cached bool) {
	parts := []string{StyleDim.Render(fmt.Sprintf("%d bubbles", bubbles))}
	if overflowed > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d overlapping", overflowed)))
	}
	if cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, styleComputed.Render("fresh"))
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

// swatch renders a colored bubble glyph for a "#rrggbb" color.
func swatch(hex string) string {
	if hex == "" {
		return StyleDim.Render(iconBubble)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(iconBubble)
}

// valenceStyle colors a label by its valence.
func valenceStyle(label string) lipgloss.Style {
	switch emotion.ValenceOf(label) {
	case emotion.Positive:
		return stylePositive
	case emotion.Negative:
		return styleNegative
	default:
		return StyleValue
	}
}

// printCounts prints one bar per emotion, scaled to the most frequent one.
// Colors follow the default palette in input order, as in the rendered
// bubbles.
func printCounts(counts []bubble.Input) {
	fmt.Print(formatCounts(counts, bubble.DefaultPalette))
}

func formatCounts(counts []bubble.Input, p bubble.Palette) string {
	peak, width := 0, 0
	for _, c := range counts {
		peak = max(peak, c.Frequency)
		width = max(width, lipgloss.Width(c.Label))
	}

	var b strings.Builder
	for i, c := range counts {
		n := 0
		if c.Frequency > 0 {
			n = max(1, c.Frequency*maxBarWidth/peak)
		}
		label := valenceStyle(c.Label).Width(width).Render(c.Label)
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color(i))).Render(strings.Repeat(iconBar, n))
		fmt.Fprintf(&b, "  %s %s %s %s\n", swatch(p.Color(i)), label, bar, StyleNumber.Render(fmt.Sprint(c.Frequency)))
	}
	return b.String()
}

// entryTable renders journal entries as a bordered table.
func entryTable(entries []journal.Entry, now time.Time) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.ID.String()[:8],
			formatRelativeTime(e.CreatedAt, now),
			truncate(e.Text, 48),
			strings.Join(e.Emotions, ", "),
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("ID", "When", "Entry", "Emotions").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case col == 0 || col == 1:
				return StyleDim
			case col == 3:
				return StyleNumber
			default:
				return StyleValue
			}
		}).
		Render()
}

// formatRelativeTime formats t relative to now ("just now", "5m ago",
// "3d ago"), falling back to a date after a month.
func formatRelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// truncate folds whitespace and shortens s to n terminal cells, ending in
// an ellipsis. Wide characters count as two cells.
func truncate(s string, n int) string {
	return runewidth.Truncate(strings.Join(strings.Fields(s), " "), n, "…")
}
