package status

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
}

type column struct {
	title string
	width int
}

var sessionColumns = []column{
	{"Account", 11},
	{"Status", 13},
	{"Balance", 11},
	{"Speed", 9},
	{"Epoch", 7},
	{"Earned", 11},
	{"Proxy", 12},
	{"Last HB", 9},
	{"Next Epoch", 10},
}

var snapshotColumns = []column{
	{"Account", 11},
	{"User", 14},
	{"Balance", 11},
	{"Earned", 11},
	{"Epoch", 7},
	{"Device", 10},
	{"Updated", 17},
}

func headerRow(columns []column, s styles) string {
	cells := make([]string, 0, len(columns))
	for _, c := range columns {
		cells = append(cells, s.column.Width(c.width).Render(c.title))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func cell(style lipgloss.Style, width int, value string) string {
	return style.Width(width).MaxWidth(width).Render(value)
}

// renderSessionTable draws one row per live session record.
func renderSessionTable(records []domain.SessionRecord, now time.Time, s styles) string {
	lines := []string{headerRow(sessionColumns, s)}
	for _, record := range records {
		earned := s.detail
		if record.TotalEarned > 0 {
			earned = s.earned
		}
		row := []string{
			cell(s.account, sessionColumns[0].width, record.Account),
			cell(s.status(record.Status), sessionColumns[1].width, string(record.Status)),
			cell(s.detail, sessionColumns[2].width, domain.FormatAmount(record.Balance)),
			cell(s.detail, sessionColumns[3].width, domain.FormatAmount(record.Speed)),
			cell(s.detail, sessionColumns[4].width, domain.FormatEpoch(record.Epoch)),
			cell(earned, sessionColumns[5].width, formatEarned(record.TotalEarned)),
			cell(s.detail, sessionColumns[6].width, record.ProxyLabel),
			cell(s.detail, sessionColumns[7].width, formatAgo(record.LastHeartbeat, now)),
			cell(s.detail, sessionColumns[8].width, formatUntil(record.EpochEndsAt, now)),
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSnapshots(snapshots []domain.Snapshot, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("DeltaHash sessions"),
		s.header.Render(fmt.Sprintf("accounts: %d", len(snapshots))),
	}

	if len(snapshots) == 0 {
		lines = append(lines, s.empty.Render("No session snapshots stored yet. Run `dh run` first."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	table := []string{headerRow(snapshotColumns, s)}
	for _, snapshot := range snapshots {
		username := snapshot.Username
		if username == "" {
			username = "-"
		}
		row := []string{
			cell(s.account, snapshotColumns[0].width, snapshot.Account),
			cell(s.detail, snapshotColumns[1].width, username),
			cell(s.detail, snapshotColumns[2].width, domain.FormatAmount(snapshot.Balance)),
			cell(s.earned, snapshotColumns[3].width, formatEarned(snapshot.TotalEarned)),
			cell(s.detail, snapshotColumns[4].width, domain.FormatEpoch(snapshot.LastEpoch)),
			cell(s.detail, snapshotColumns[5].width, shortHandle(snapshot.DeviceHandle)),
			cell(s.detail, snapshotColumns[6].width, formatUpdated(snapshot.UpdatedAt, opts.Now)),
		}
		table = append(table, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, table...)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatEarned(v float64) string {
	if v <= 0 {
		return "0"
	}
	return "+" + strconv.FormatFloat(v, 'f', 4, 64)
}

func formatAgo(at, now time.Time) string {
	if at.IsZero() || now.IsZero() {
		return "-"
	}
	elapsed := now.Sub(at)
	if elapsed < 0 {
		elapsed = 0
	}
	return compactDuration(elapsed) + " ago"
}

func formatUntil(at, now time.Time) string {
	if at.IsZero() || now.IsZero() {
		return "-"
	}
	if !at.After(now) {
		return "now"
	}
	return compactDuration(at.Sub(now))
}

func formatUpdated(at, now time.Time) string {
	if at.IsZero() {
		return "-"
	}
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}
	return formatAgo(at, now)
}

func compactDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

func shortHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	switch {
	case handle == "":
		return "-"
	case len(handle) > 8:
		return handle[:8]
	default:
		return handle
	}
}
