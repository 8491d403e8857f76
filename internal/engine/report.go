package engine

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"lite2flake/internal/extract"
	"lite2flake/internal/schema"
	"lite2flake/internal/warehouse"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// RenderSummary prints per-database totals of an upload run followed by the
// list of failed operations.
func RenderSummary(w io.Writer, s *schema.RunSummary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Database", "Created", "Loaded", "Skipped", "Failed", "Rows"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, d := range s.Databases {
		table.Append([]string{
			d.Database,
			strconv.Itoa(d.Created),
			strconv.Itoa(d.Loaded),
			strconv.Itoa(d.Skipped),
			strconv.Itoa(d.Failed),
			humanize.Comma(d.Rows),
		})
	}
	table.SetFooter([]string{
		"Total",
		strconv.Itoa(s.Created),
		strconv.Itoa(s.Loaded),
		strconv.Itoa(s.Skipped),
		strconv.Itoa(s.Failed),
		humanize.Comma(s.Rows),
	})
	table.Render()

	if len(s.Failures) > 0 {
		fmt.Fprintf(w, "Failed operations (%d): %s\n", len(s.Failures), strings.Join(s.Failures, ", "))
	}
}

// RenderExport prints per-database artifact counts of an export run.
func RenderExport(w io.Writer, results []*extract.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Database", "Tables", "CSV", "SQL", "Failures"})
	for _, r := range results {
		table.Append([]string{
			r.Database,
			strconv.Itoa(r.Tables),
			strconv.Itoa(r.CSV),
			strconv.Itoa(r.SQL),
			strings.Join(r.Failures, ", "),
		})
	}
	table.Render()
}

// RenderTableStats prints the verification listing of target tables.
func RenderTableStats(w io.Writer, stats []warehouse.TableStat) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Table", "Rows"})
	var total int64
	for _, s := range stats {
		table.Append([]string{s.Name, humanize.Comma(s.Rows)})
		total += s.Rows
	}
	table.SetFooter([]string{fmt.Sprintf("%d tables", len(stats)), humanize.Comma(total)})
	table.Render()
}

// RenderSample prints sampled rows of one table. NULL is shown as NULL.
func RenderSample(w io.Writer, frame *schema.Frame) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(frame.Columns)
	table.SetAutoFormatHeaders(false)
	for _, row := range frame.Rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = "NULL"
			if v.Valid {
				rec[i] = v.String
			}
		}
		table.Append(rec)
	}
	table.Render()
}
