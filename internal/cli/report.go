package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/deckflow/internal/catalog"
	"github.com/Veraticus/deckflow/internal/config"
	"github.com/Veraticus/deckflow/internal/engine"
	"github.com/Veraticus/deckflow/internal/model"
)

// RenderPlan lists the files a sync is about to load and retract.
func RenderPlan(plan *catalog.Plan) string {
	var b strings.Builder
	b.WriteString(FormatTitle("Sync plan for " + plan.Snapshot.Root))
	b.WriteString("\n")

	if plan.Bootstrap {
		b.WriteString(FormatInfo("Table does not exist yet; every file is new.") + "\n")
	}
	fmt.Fprintf(&b, "%s %d on disk, %d new, %d deleted\n",
		SubtleStyle.Render("files:"), len(plan.Snapshot.Files), len(plan.New), len(plan.Deleted))

	if len(plan.New) > 0 {
		b.WriteString("\n" + BoldStyle.Render("New files") + "\n")
		for _, f := range plan.New {
			b.WriteString("  " + SuccessStyle.Render(NewIcon) + " " + f.RelPath + "\n")
		}
	}
	if len(plan.Deleted) > 0 {
		b.WriteString("\n" + BoldStyle.Render("Deleted files") + "\n")
		for _, f := range plan.Deleted {
			b.WriteString("  " + ErrorStyle.Render(DeletedIcon) + " " + f.RelPath + "\n")
		}
	}
	if len(plan.Held) > 0 {
		b.WriteString("\n" + BoldStyle.Render("Unchanged since last failure") + "\n")
		for _, f := range plan.Held {
			b.WriteString("  " + WarningStyle.Render(WarningIcon) + " " + f.RelPath + "\n")
		}
	}
	if plan.Empty() {
		b.WriteString(FormatSuccess("Catalog is up to date.") + "\n")
	}
	return b.String()
}

// RenderSync summarizes a finished sync.
func RenderSync(summary *engine.SyncSummary) string {
	var b strings.Builder
	ing := summary.Ingest
	if ing != nil && ing.Succeeded+ing.Failed > 0 {
		b.WriteString(FormatSuccess(fmt.Sprintf("Loaded %d file(s): %d wide rows, %d long rows in %s",
			ing.Succeeded, ing.WideRows, ing.LongRows, ing.Elapsed.Round(time.Millisecond))) + "\n")
		for _, f := range ing.Failures() {
			b.WriteString(FormatError(fmt.Sprintf("%s: %v", f.File.RelPath, f.Err)) + "\n")
		}
	}
	if summary.Retracted > 0 {
		b.WriteString(FormatSuccess(fmt.Sprintf("Retracted %d row(s) from %d deleted file(s)",
			summary.Retracted, len(summary.Plan.Deleted))) + "\n")
	}
	return b.String()
}

// RenderCatalog lists cataloged files of table with their row counts.
func RenderCatalog(table string, entries []model.CatalogEntry) string {
	if len(entries) == 0 {
		return FormatInfo("No files cataloged in "+table) + "\n"
	}
	rows := make([][]string, len(entries))
	total := 0
	for i, e := range entries {
		rows[i] = []string{e.FileDesc, e.FileDate, strconv.Itoa(e.Rows)}
		total += e.Rows
	}
	return FormatTitle(table) + "\n" +
		RenderTable([]string{"FILE", "DATE", "ROWS"}, rows) +
		SubtleStyle.Render(fmt.Sprintf("%d file(s), %d row(s)", len(entries), total)) + "\n"
}

// RenderRuns lists ingest runs.
func RenderRuns(runs []model.IngestRun) string {
	if len(runs) == 0 {
		return FormatInfo("No ingest runs recorded") + "\n"
	}
	rows := make([][]string, len(runs))
	for i, r := range runs {
		status := string(r.Status)
		switch r.Status {
		case model.StatusSucceeded:
			status = SuccessStyle.Render(status)
		case model.StatusFailed:
			status = ErrorStyle.Render(status)
		case model.StatusRunning:
			status = WarningStyle.Render(status)
		}
		rows[i] = []string{
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Flavor, r.Env, status, r.FileDesc,
			strconv.Itoa(r.LongRows), truncate(r.Error, 60),
		}
	}
	return RenderTable([]string{"STARTED", "FLAVOR", "ENV", "STATUS", "FILE", "ROWS", "ERROR"}, rows)
}

// RenderReconciliation lists reconciliation log entries.
func RenderReconciliation(entries []model.ReconcileEntry) string {
	if len(entries) == 0 {
		return FormatInfo("No retractions recorded") + "\n"
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		status := SuccessStyle.Render(string(e.Status))
		if e.Status == model.StatusFailed {
			status = ErrorStyle.Render(string(e.Status))
		}
		rows[i] = []string{
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.BatchID[:min(8, len(e.BatchID))], e.Table, e.Value,
			strconv.FormatInt(e.RowsDeleted, 10), status,
		}
	}
	return RenderTable([]string{"WHEN", "BATCH", "TABLE", "VALUE", "ROWS", "STATUS"}, rows)
}

// RenderFlavors describes the configured flavors.
func RenderFlavors(flavors []config.Flavor, env string) string {
	rows := make([][]string, len(flavors))
	for i, f := range flavors {
		tables := f.TablesFor(env)
		rows[i] = []string{
			f.Name, f.Version, f.Sheet,
			strconv.Itoa(f.HeaderRow),
			fmt.Sprintf("[%d,%d)", f.SkipRows.Start, f.SkipRows.End),
			f.Timeout.String(),
			tables.Wide + ", " + tables.Long,
		}
	}
	return RenderTable([]string{"FLAVOR", "VERSION", "SHEET", "HEADER", "SKIP", "TIMEOUT", "TABLES"}, rows)
}

// RenderTable lays rows out in left-aligned columns under a bold header.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i := range headers {
			if i < len(r) {
				widths[i] = max(widths[i], lipgloss.Width(r[i]))
			}
		}
	}

	var b strings.Builder
	line := make([]string, len(headers))
	for i, h := range headers {
		line[i] = TableHeaderStyle.Width(widths[i] + 2).Render(h)
	}
	b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, line...), " ") + "\n")

	for _, r := range rows {
		for i := range headers {
			var cell string
			if i < len(r) {
				cell = r[i]
			}
			line[i] = TableCellStyle.Width(widths[i] + 2).Render(cell)
		}
		b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, line...), " ") + "\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
