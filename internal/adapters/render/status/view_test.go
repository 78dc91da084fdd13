package status

import (
	"testing"
	"time"

	"github.com/bnema/deltahash-cli/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

func float(v float64) *float64 {
	return &v
}

func epoch(v int64) *int64 {
	return &v
}

func TestRenderSnapshots(t *testing.T) {
	output, err := Render([]domain.Snapshot{
		{
			Account:      "Account 1",
			Username:     "miner",
			Balance:      float(1523.25),
			DeviceHandle: "3f2a9c1e-7d1b-4c55-9a0e-2b8f4c6d1a90",
			LastEpoch:    epoch(42),
			TotalEarned:  12.5,
			UpdatedAt:    now.Add(-90 * time.Second),
		},
		{Account: "Account 2"},
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "accounts: 2")
	assert.Contains(t, output, "Account 1")
	assert.Contains(t, output, "miner")
	assert.Contains(t, output, "1523.2500")
	assert.Contains(t, output, "#42")
	assert.Contains(t, output, "+12.5000")
	assert.Contains(t, output, "3f2a9c1e")
	assert.NotContains(t, output, "7d1b")
	assert.Contains(t, output, "1m30s ago")
}

func TestRenderWithoutSnapshots(t *testing.T) {
	output, err := Render(nil, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "accounts: 0")
	assert.Contains(t, output, "No session snapshots stored yet")
}

func TestSessionTableShowsEveryColumn(t *testing.T) {
	table := renderSessionTable([]domain.SessionRecord{{
		Account:       "Account 1",
		Status:        domain.StatusMining,
		Balance:       float(25000),
		Speed:         float(1.5),
		Epoch:         epoch(7),
		EpochEndsAt:   now.Add(4*time.Minute + 10*time.Second),
		TotalEarned:   0.75,
		ProxyLabel:    "Proxy 2/3",
		LastHeartbeat: now.Add(-12 * time.Second),
	}}, now, newStyles())

	for _, want := range []string{"Account", "Status", "Balance", "Speed", "Epoch", "Earned", "Proxy", "Last HB", "Next Epoch",
		"MINING", "25.0k", "1.5000", "#7", "+0.7500", "Proxy 2/3", "12s ago", "4m10s"} {
		assert.Contains(t, table, want)
	}
}

func TestDashboardKeepsLatestRecordAndLastFiveLogs(t *testing.T) {
	events := make(chan domain.Event)
	m := newDashboard(events, DashboardOptions{Accounts: 2, Started: now, Now: func() time.Time { return now }})

	m = m.apply(domain.NewSessionEvent(domain.SessionRecord{Account: "Account 10", Status: domain.StatusSetup}, nil, now))
	m = m.apply(domain.NewSessionEvent(domain.SessionRecord{Account: "Account 2", Status: domain.StatusSetup}, nil, now))
	m = m.apply(domain.NewSessionEvent(domain.SessionRecord{Account: "Account 2", Status: domain.StatusMining}, nil, now))
	for i := range 7 {
		m = m.apply(domain.NewLogEvent("Account 2", "info", "heartbeat "+string(rune('a'+i)), now))
	}

	records := m.sortedRecords()
	require.Len(t, records, 2)
	assert.Equal(t, "Account 2", records[0].Account)
	assert.Equal(t, domain.StatusMining, records[0].Status)

	require.Len(t, m.logs, logRing)
	assert.Equal(t, "heartbeat c", m.logs[0].Log.Message)

	view := m.View()
	assert.Contains(t, view, "accounts: 2")
	assert.Contains(t, view, "heartbeat g")
	assert.NotContains(t, view, "heartbeat b")
}

func TestDashboardQuitStopsRun(t *testing.T) {
	stopped := false
	m := newDashboard(make(chan domain.Event), DashboardOptions{Stop: func() { stopped = true }})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.True(t, stopped)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestDashboardQuitsWhenEventsClose(t *testing.T) {
	events := make(chan domain.Event, 1)
	events <- domain.NewSessionEvent(domain.SessionRecord{Account: "Account 1", Status: domain.StatusSetup}, nil, now)
	close(events)

	m := newDashboard(events, DashboardOptions{})

	msg := waitForEvent(events)()
	next, _ := m.Update(msg)
	m = next.(dashboard)
	require.Contains(t, m.records, "Account 1")

	_, cmd := m.Update(waitForEvent(events)())
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
