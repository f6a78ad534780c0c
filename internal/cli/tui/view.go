package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/moneyflow-dev/moneyflow/internal/util"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	faintStyle = lipgloss.NewStyle().Faint(true)
)

func (m model) View() string {
	if m.err != nil {
		return errStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}

	var b strings.Builder

	b.WriteString(headerStyle.Render("Transactions"))
	b.WriteString("\n")

	if m.filtering || m.filter != "" {
		b.WriteString(promptStyle.Render("filter: " + m.filter))
		if m.filtering {
			b.WriteString(promptStyle.Render("▌"))
		}
		b.WriteString("\n")
	}

	visible := m.visible()
	if len(visible) == 0 {
		b.WriteString(faintStyle.Render("No transactions"))
		b.WriteString("\n")
	}

	for i, t := range visible {
		line := fmt.Sprintf("%s  %-24s %12s  %s",
			t.Date().Format(time.DateOnly),
			truncate(t.Merchant(), 24),
			util.FormatMoney(t.Amount(), ",", "."),
			t.Category(),
		)

		if i == m.cursor {
			line = selectedStyle.Render(line)
		}

		b.WriteString(line)
		b.WriteString("\n")

		if state, ok := m.rowStates[t.ID()]; ok {
			b.WriteString(m.rowStateView(state))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")

	return b.String()
}

func (m model) rowStateView(state rowState) string {
	var b strings.Builder

	switch state.mode {
	case modeEditing:
		b.WriteString(promptStyle.Render("  category: " + state.candidate + "▌"))
		b.WriteString("\n")
	case modeSaving:
		b.WriteString(faintStyle.Render("  saving..."))
		b.WriteString("\n")
	case modeRuleCreation:
		b.WriteString(promptStyle.Render("  rule keyword: " + state.keyword + "▌"))
		b.WriteString(" ")
		b.WriteString(faintStyle.Render("-> " + state.candidate))
		b.WriteString("\n")
		if len(state.suggestions) > 0 {
			b.WriteString(faintStyle.Render("  suggestions: " + strings.Join(state.suggestions, ", ")))
			b.WriteString("\n")
		}
	case modeViewing:
	}

	if state.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("  error: %v", state.err)))
		b.WriteString("\n")
	}

	return b.String()
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
