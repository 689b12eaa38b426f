package trigger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// StdinIsTerminal reports whether key handling can be enabled.
func StdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Keys reads single key presses: r requests a rebuild, q and ctrl+c call
// quit.
type Keys struct {
	next  Requester
	quit  func()
	input io.Reader
}

// NewKeys reads from input, or os.Stdin when input is nil.
func NewKeys(next Requester, quit func(), input io.Reader) *Keys {
	if input == nil {
		input = os.Stdin
	}
	if quit == nil {
		quit = func() {}
	}
	return &Keys{next: next, quit: quit, input: input}
}

type keyModel struct {
	next Requester
	quit func()
}

func (m keyModel) Init() tea.Cmd { return nil }

func (m keyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "r", "R":
		slog.Info("Rebuild requested from keyboard")
		m.next.RequestBuild()
	case "ctrl+c", "q":
		m.quit()
		return m, tea.Quit
	}
	return m, nil
}

func (m keyModel) View() string { return "" }

// Run blocks until a quit key is pressed or ctx is done. The
// terminal is put into raw mode for the duration when input is a TTY;
// rendering output is discarded so log lines are not repainted.
func (k *Keys) Run(ctx context.Context) error {
	p := tea.NewProgram(keyModel{next: k.next, quit: k.quit},
		tea.WithContext(ctx),
		tea.WithInput(k.input),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
	)
	_, err := p.Run()
	if err == nil || errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
