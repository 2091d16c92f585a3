package handlers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/hacluster/internal/lifecycle"
	"github.com/imamik/hacluster/internal/storage"
)

var (
	planColorBlue  = lipgloss.Color("#3b82f6")
	planColorGreen = lipgloss.Color("#22c55e")
	planColorRed   = lipgloss.Color("#ef4444")
	planColorDim   = lipgloss.Color("#6b7280")
	planColorWhite = lipgloss.Color("#f9fafb")
)

var (
	planTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(planColorWhite)

	planKindStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(planColorBlue).
			Width(9)

	planDimStyle = lipgloss.NewStyle().
			Foreground(planColorDim)

	planCreateStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(planColorGreen).
			Width(9)

	planDeleteStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(planColorRed).
			Width(9)
)

// renderPlan produces a lipgloss-styled list of planned commands.
func renderPlan(cluster string, action lifecycle.Action, cmds []lifecycle.Command) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(planTitleStyle.Render(fmt.Sprintf("  hacluster %s: %s", action, cluster)))
	b.WriteString("\n")
	b.WriteString(planDimStyle.Render("  " + strings.Repeat("═", 30)))
	b.WriteString("\n")

	if len(cmds) == 0 {
		b.WriteString(planDimStyle.Render("  no commands"))
		b.WriteString("\n")
		return b.String()
	}

	for i, cmd := range cmds {
		b.WriteString(fmt.Sprintf("  %3d  ", i+1))
		b.WriteString(kindStyle(cmd.Kind).Render(string(cmd.Kind)))
		b.WriteString(" ")
		b.WriteString(cmd.Machine)
		if detail := commandDetail(cmd); detail != "" {
			b.WriteString("  ")
			b.WriteString(planDimStyle.Render(detail))
		}
		b.WriteString("\n")
	}

	b.WriteString(planDimStyle.Render(fmt.Sprintf("  %d command(s)", len(cmds))))
	b.WriteString("\n")
	return b.String()
}

func kindStyle(kind lifecycle.Kind) lipgloss.Style {
	switch kind {
	case lifecycle.KindCreate:
		return planCreateStyle
	case lifecycle.KindDelete:
		return planDeleteStyle
	default:
		return planKindStyle
	}
}

func commandDetail(cmd lifecycle.Command) string {
	switch {
	case cmd.Kind == lifecycle.KindExecute:
		return cmd.Script
	case cmd.Spec != nil && len(cmd.Spec.Modules) > 0:
		return "[" + strings.Join(cmd.Spec.ModuleNames(), ", ") + "]"
	default:
		return ""
	}
}

// renderDecision produces a short description of a storage decision.
func renderDecision(host string, d storage.Decision) string {
	var b strings.Builder
	b.WriteString(planTitleStyle.Render(fmt.Sprintf("  storage %s: %s", host, d.Path)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("    provision volume: %t\n", d.ProvisionVolume))
	b.WriteString(fmt.Sprintf("    install helper:   %t\n", d.InstallHelper))
	return b.String()
}
