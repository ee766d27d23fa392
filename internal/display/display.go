// Package display renders API results for the terminal.
package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/seenimoa/stockchat/internal/config"
	"github.com/seenimoa/stockchat/pkg/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	answerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)
)

// Table is a static table with a title.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// NewTable creates an empty table.
func NewTable(title string, headers ...string) *Table {
	return &Table{Title: title, Headers: headers}
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render draws the table. An empty table renders as its title plus a
// "no rows" note.
func (t *Table) Render() string {
	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(titleStyle.Render(t.Title))
		sb.WriteString("\n")
	}
	if len(t.Rows) == 0 {
		sb.WriteString(mutedStyle.Render("(no rows)"))
		return sb.String()
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	for i := range widths {
		widths[i] += 2 // padding
	}

	sep := mutedStyle.Render("|")
	writeRow := func(cells []string, style lipgloss.Style) {
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(style.Width(widths[i]).Render(cell))
			if i < len(widths)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}

	writeRow(t.Headers, headerStyle)
	total := 0
	for _, w := range widths {
		total += w
	}
	sb.WriteString(mutedStyle.Render(strings.Repeat("-", total+len(widths)-1)))
	sb.WriteString("\n")
	for _, row := range t.Rows {
		writeRow(row, cellStyle)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Answer renders a chat answer and its attachment.
func Answer(ans *models.ChatAnswer) string {
	if ans == nil {
		return ""
	}
	var sb strings.Builder
	if ans.Success {
		sb.WriteString(answerStyle.Render(ans.Response))
	} else {
		sb.WriteString(errorStyle.Render(ans.Response))
	}
	switch ans.Data.Kind() {
	case "stock_data":
		sb.WriteString("\n\n")
		sb.WriteString(Bars(ans.Data.StockData))
	case "index_info":
		sb.WriteString("\n\n")
		sb.WriteString(Indices(ans.Data.IndexInfo))
	}
	return sb.String()
}

// Indices renders index records.
func Indices(recs []models.IndexRecord) string {
	t := NewTable(fmt.Sprintf("Indices (%d)", len(recs)), "Index", "Exchange", "Region", "Currency")
	for _, r := range recs {
		t.AddRow(r.Index, r.Exchange, r.Region, r.Currency)
	}
	return t.Render()
}

// Bars renders daily bars. The USD close column appears only when at least
// one bar carries it.
func Bars(bars []models.Bar) string {
	withUSD := false
	for _, b := range bars {
		if b.HasUSD() {
			withUSD = true
			break
		}
	}

	headers := []string{"Index", "Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}
	if withUSD {
		headers = append(headers, "Close USD")
	}
	t := NewTable(fmt.Sprintf("Bars (%d)", len(bars)), headers...)
	for _, b := range bars {
		row := []string{
			b.Index, b.Date,
			price(b.Open), price(b.High), price(b.Low), price(b.Close), price(b.AdjClose),
			strconv.FormatFloat(b.Volume, 'f', 0, 64),
		}
		if withUSD {
			usd := "-"
			if b.HasUSD() {
				usd = price(*b.CloseUSD)
			}
			row = append(row, usd)
		}
		t.AddRow(row...)
	}
	return t.Render()
}

// Sample renders the raw-data view: every index record followed by the
// raw and processed bar samples.
func Sample(s models.RawSample) string {
	var sb strings.Builder
	sb.WriteString(Indices(s.IndexInfo))
	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("Raw sample"))
	sb.WriteString("\n")
	sb.WriteString(Bars(s.IndexDataSample))
	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("Processed sample"))
	sb.WriteString("\n")
	sb.WriteString(Bars(s.IndexProcessedSample))
	return sb.String()
}

// Summary renders a dataset summary.
func Summary(sum models.DataSummary) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Dataset summary"))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  Indices:    %d\n", sum.TotalIndices)
	fmt.Fprintf(&sb, "  Records:    %d\n", sum.TotalRecords)
	fmt.Fprintf(&sb, "  Date range: %s to %s\n", sum.DateRange.Earliest, sum.DateRange.Latest)
	fmt.Fprintf(&sb, "  Symbols:    %s", strings.Join(sum.AvailableIndices, ", "))
	return sb.String()
}

// Keys renders secret status lines.
func Keys(keys []config.KeyStatus) string {
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString("\n")
		}
		if k.IsSet {
			fmt.Fprintf(&sb, "  %s %-16s %s (from %s)", okStyle.Render("✓"), k.Name, k.Masked, k.Source)
		} else {
			fmt.Fprintf(&sb, "  %s %-16s %s", errorStyle.Render("✗"), k.Name, mutedStyle.Render("not set"))
		}
	}
	return sb.String()
}

// Error renders an error line.
func Error(err error) string {
	return errorStyle.Render("Error: " + err.Error())
}

func price(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
