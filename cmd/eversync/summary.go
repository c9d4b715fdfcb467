package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/eversync/eversync/internal/sync"
)

var (
	red   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	green = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	cyan  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	gray  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

func printSummary(w io.Writer, notebook string, r *sync.Report, runErr error) {
	switch {
	case runErr != nil:
		fmt.Fprintf(w, "%s %s %s\n",
			red.Render("✗ sync failed"),
			tallyLine(&r.Tally),
			gray.Render("before the error"),
		)
	case r.Skipped:
		fmt.Fprintf(w, "%s %s\n",
			green.Render("✓ up to date"),
			gray.Render(fmt.Sprintf("%d files, last synced %s", r.Files, humanize.Time(r.LastSync))),
		)
	default:
		fmt.Fprintf(w, "%s %s %s\n",
			green.Render("✓ synced to "+notebook),
			tallyLine(&r.Tally),
			gray.Render("in "+r.Duration.Round(time.Millisecond).String()),
		)
	}
}

func tallyLine(t *sync.Tally) string {
	return fmt.Sprintf("%d created, %d updated, %d removed", t.Created, t.Updated, t.Removed)
}
