package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	logRing         = 5
	refreshInterval = time.Second
)

type eventMsg domain.Event

type eventsClosedMsg struct{}

type refreshMsg time.Time

// DashboardOptions configures RunDashboard. Stop is called when the user quits
// from the keyboard.
type DashboardOptions struct {
	Accounts int
	Started  time.Time
	Now      func() time.Time
	Stop     func()
	Output   io.Writer
	Input    io.Reader
}

// dashboard is the live view of every account task, fed by the event hub.
type dashboard struct {
	events  <-chan domain.Event
	opts    DashboardOptions
	styles  styles
	spinner spinner.Model
	records map[string]domain.SessionRecord
	logs    []domain.Event
	now     time.Time
	closed  bool
}

func newDashboard(events <-chan domain.Event, opts DashboardOptions) dashboard {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Started.IsZero() {
		opts.Started = opts.Now()
	}
	s := newStyles()
	return dashboard{
		events: events,
		opts:   opts,
		styles: s,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(s.spinner),
		),
		records: map[string]domain.SessionRecord{},
		now:     opts.Now(),
	}
}

func waitForEvent(events <-chan domain.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(event)
	}
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m dashboard) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events), refresh())
}

func (m dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.opts.Stop != nil {
				m.opts.Stop()
			}
			return m, tea.Quit
		}
		return m, nil
	case eventMsg:
		m = m.apply(domain.Event(msg))
		return m, waitForEvent(m.events)
	case eventsClosedMsg:
		m.closed = true
		return m, tea.Quit
	case refreshMsg:
		m.now = m.opts.Now()
		return m, refresh()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m dashboard) apply(event domain.Event) dashboard {
	switch event.Kind {
	case domain.EventSession:
		if event.Record != nil {
			records := make(map[string]domain.SessionRecord, len(m.records)+1)
			for k, v := range m.records {
				records[k] = v
			}
			records[event.Account] = *event.Record
			m.records = records
		}
	case domain.EventLog:
		if event.Log != nil {
			logs := append(append([]domain.Event(nil), m.logs...), event)
			if len(logs) > logRing {
				logs = logs[len(logs)-logRing:]
			}
			m.logs = logs
		}
	}
	return m
}

func (m dashboard) sortedRecords() []domain.SessionRecord {
	records := make([]domain.SessionRecord, 0, len(m.records))
	for _, record := range m.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return domain.LabelLess(records[i].Account, records[j].Account)
	})
	return records
}

func (m dashboard) View() string {
	s := m.styles
	uptime := compactDuration(m.now.Sub(m.opts.Started))
	header := fmt.Sprintf("%s %s  %s",
		m.spinner.View(),
		s.title.Render("DeltaHash miner"),
		s.header.Render(fmt.Sprintf("accounts: %d  uptime: %s  (q to quit)", m.opts.Accounts, uptime)),
	)

	sections := []string{header}
	records := m.sortedRecords()
	if len(records) == 0 {
		sections = append(sections, s.section.Render(s.empty.Render("Waiting for the first account to start...")))
	} else {
		sections = append(sections, s.section.Render(renderSessionTable(records, m.now, s)))
	}

	if len(m.logs) > 0 {
		lines := make([]string, 0, len(m.logs))
		for _, event := range m.logs {
			style := s.logLine
			if event.Log.Level != "info" && event.Log.Level != "debug" {
				style = s.logWarning
			}
			lines = append(lines, style.Render(fmt.Sprintf("%s %-10s %s",
				event.At.Format("15:04:05"),
				event.Account,
				strings.TrimSpace(event.Log.Message),
			)))
		}
		sections = append(sections, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

// RunDashboard draws the live dashboard until ctx ends, the user quits or the
// event channel closes.
func RunDashboard(ctx context.Context, events <-chan domain.Event, opts DashboardOptions) error {
	programOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}

	p := tea.NewProgram(newDashboard(events, opts), programOpts...)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
