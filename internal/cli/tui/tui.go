package tui

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/moneyflow-dev/moneyflow/internal/cli"
	"github.com/moneyflow-dev/moneyflow/internal/config"
	"github.com/moneyflow-dev/moneyflow/internal/logger"
	"github.com/moneyflow-dev/moneyflow/internal/rules"
	"github.com/moneyflow-dev/moneyflow/internal/storage"
)

type tuiCommand struct{}

func NewCommand() cli.Command {
	return tuiCommand{}
}

func (c tuiCommand) Description() string {
	return "Interactive transaction list with inline category editing"
}

func (c tuiCommand) SetFlags(_ *flag.FlagSet) {}

func (c tuiCommand) Run(_ *config.Config, store storage.Storage, engine *rules.Engine, _ *logger.Logger) error {
	if len(os.Getenv("MONEYFLOW_DEBUG")) > 0 {
		f, logErr := tea.LogToFile("debug.log", "debug")
		if logErr != nil {
			return fmt.Errorf("failed to log to file: %w", logErr)
		}
		defer f.Close()
	}

	p := tea.NewProgram(newModel(store, engine), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

type keymap struct {
	Up      key.Binding
	Down    key.Binding
	Edit    key.Binding
	Rule    key.Binding
	Filter  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Exit    key.Binding
}

func (k keymap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Edit, k.Rule, k.Filter, k.Exit}
}

func (k keymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Edit, k.Rule},
		{k.Filter, k.Confirm, k.Cancel, k.Exit},
	}
}

func defaultKeymap() keymap {
	return keymap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit category"),
		),
		Rule: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "create rule"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Exit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "exit"),
		),
	}
}
