package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/spektr-org/claimlens/engine"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// renderTable draws a TableData with a normal border; number columns are
// right aligned.
func renderTable(td *engine.TableData) string {
	headers := make([]string, len(td.Columns))
	for i, c := range td.Columns {
		headers[i] = c.Label
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(td.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col < len(td.Columns) && td.Columns[col].Align == "right" {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		})
	return t.Render()
}

func renderText(w io.Writer, text *engine.TextData, summary *engine.TableData) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render(text.Title))
	fmt.Fprintf(&b, "\nPeriod: %s  Records: %s\n", text.Period, engine.FormatInt(text.Records))
	if summary != nil {
		b.WriteString(renderTable(summary))
		b.WriteString("\n")
	}
	for _, h := range text.Highlights {
		fmt.Fprintf(&b, "• %s\n", h)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderAudit(w io.Writer, out auditOutput) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Data Quality Audit"))
	fmt.Fprintf(&b, "\nSource: %s  Records: %s  Today: %s\n", out.Path, engine.FormatInt(out.Records), out.Today)
	fmt.Fprintf(&b, "Date column: %s  Cost column: %s\n", out.Schema.DateColumn, out.Schema.CostColumn)
	if len(out.Columns) > 0 {
		b.WriteString(renderTable(profileTable(out.Columns)))
		b.WriteString("\n")
	}
	b.WriteString(renderTable(engine.BuildMissingTable("missing_data_detail", out.Quality)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Missing values: %d  Negative costs: %d  Future dates: %d\n",
		out.Quality.MissingValues, out.Quality.NegativeCosts, out.Quality.FutureDates)
	_, err := io.WriteString(w, b.String())
	return err
}
