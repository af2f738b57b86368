package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/screenrole/internal/config"
	"github.com/1broseidon/screenrole/internal/ipc"
)

// DaemonClient is the subset of the IPC client the TUI needs.
type DaemonClient interface {
	Status() (*ipc.StatusData, error)
	Displays() (*ipc.DisplaysData, error)
	ToggleBlackout() (bool, error)
	Relayout() error
	Reload() error
}

var _ DaemonClient = (*ipc.Client)(nil)

// Run starts the configuration TUI. It works offline when the daemon is not
// running; the Displays tab then stays empty.
func Run(configPath string, client DaemonClient) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	if configPath == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		configPath = p
	}
	if client == nil {
		client = ipc.NewClient()
	}

	p := tea.NewProgram(newModel(configPath, client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
