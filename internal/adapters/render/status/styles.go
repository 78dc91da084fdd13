package status

import (
	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	column     lipgloss.Style
	account    lipgloss.Style
	detail     lipgloss.Style
	earned     lipgloss.Style
	warning    lipgloss.Style
	section    lipgloss.Style
	empty      lipgloss.Style
	logLine    lipgloss.Style
	logWarning lipgloss.Style
	spinner    lipgloss.Style
	statuses   map[domain.Status]lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		column:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250")),
		account:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		earned:     lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		warning:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:    lipgloss.NewStyle().MarginTop(1),
		empty:      lipgloss.NewStyle().Faint(true),
		logLine:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		logWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("215")),
		spinner:    lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
		statuses: map[domain.Status]lipgloss.Style{
			domain.StatusWaiting:      lipgloss.NewStyle().Faint(true),
			domain.StatusSetup:        lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
			domain.StatusMining:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78")),
			domain.StatusReconnecting: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			domain.StatusAuthExpired:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
			domain.StatusFailed:       lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		},
	}
}

func (s styles) status(status domain.Status) lipgloss.Style {
	if style, ok := s.statuses[status]; ok {
		return style
	}
	return s.detail
}
