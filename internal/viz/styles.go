package viz

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/racesim/internal/mission"
)

var (
	CanvasStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	StatsStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Width(36)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true).
			MarginBottom(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(10)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	GraphStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("49")).
			Padding(1, 0)

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	AlertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	EnabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	DisabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

var missionStyles = map[mission.State]lipgloss.Style{
	mission.Off:            lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	mission.Ready:          lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
	mission.Driving:        lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
	mission.EmergencyBrake: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Blink(true),
	mission.Finished:       lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
	mission.Manual:         lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
}

// MissionBadge renders a mission state in its status color.
func MissionBadge(s mission.State) string {
	style, ok := missionStyles[s]
	if !ok {
		return s.String()
	}
	return style.Render(s.String())
}

func joinHorizontal(left, right string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}
