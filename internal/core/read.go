package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/tansholt/gosh/pkg/lineinput"
)

// ResetCursorColumn moves the cursor back to the first column, so the final
// frame of the editor can be reprinted cleanly after the program exits.
const ResetCursorColumn = "\x1b[0G"

// ErrInterrupted is returned when the user presses Ctrl+C.
var ErrInterrupted = errors.New("interrupted by user")

// ErrEndOfInput is returned when the user presses Ctrl+D on a blank line.
var ErrEndOfInput = errors.New("end of input")

type terminateMsg struct{}

func terminate() tea.Msg {
	return terminateMsg{}
}

type interruptMsg struct{}

func interrupt() tea.Msg {
	return interruptMsg{}
}

type endOfInputMsg struct{}

func endOfInput() tea.Msg {
	return endOfInputMsg{}
}

type appState int

const (
	active appState = iota
	terminated
)

type readModel struct {
	input  lineinput.Model
	logger *zap.Logger

	result      string
	appState    appState
	interrupted bool
	eof         bool
}

func newReadModel(prompt string, historyValues []string, completer lineinput.CompletionSource, tabWidth int, logger *zap.Logger) readModel {
	input := lineinput.New()
	input.Prompt = prompt
	input.TabWidth = tabWidth
	input.Completer = completer
	input.SetHistoryValues(historyValues)
	input.Cursor.SetMode(cursor.CursorStatic)
	input.Focus()

	return readModel{
		input:    input,
		logger:   logger,
		appState: active,
	}
}

func (m readModel) Init() tea.Cmd {
	return lineinput.Blink
}

func (m readModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width
		return m, nil

	case terminateMsg:
		m.appState = terminated
		return m, nil

	case interruptMsg:
		m.appState = terminated
		m.interrupted = true
		return m, nil

	case endOfInputMsg:
		m.appState = terminated
		m.eof = true
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if m.input.InReverseSearch() {
				break
			}
			// Plain enter always submits; linebreaks inside the buffer come
			// from alt+enter.
			m.result = m.input.Value()
			return m, tea.Sequence(terminate, tea.Quit)

		case "ctrl+c":
			if m.input.InReverseSearch() {
				break
			}
			m.result = ""
			return m, tea.Sequence(interrupt, tea.Quit)

		case "ctrl+d":
			if strings.TrimSpace(m.input.Value()) == "" {
				return m, tea.Sequence(endOfInput, tea.Quit)
			}
			return m, nil

		case "ctrl+l":
			return m, tea.Cmd(func() tea.Msg {
				return tea.ClearScreen()
			})
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m readModel) View() string {
	if m.appState == terminated {
		return ""
	}
	return m.input.View()
}

// finalOutput reprints the submitted line so it stays on screen after the
// editor exits.
func (m readModel) finalOutput() string {
	m.input.SetValue(m.result)
	m.input.Blur()
	return m.input.View()
}

// ReadLine runs the interactive editor until the user submits or aborts a
// line.
func ReadLine(prompt string, historyValues []string, completer lineinput.CompletionSource, tabWidth int, logger *zap.Logger) (string, error) {
	p := tea.NewProgram(newReadModel(prompt, historyValues, completer, tabWidth, logger))

	m, err := p.Run()
	if err != nil {
		return "", err
	}

	model, ok := m.(readModel)
	if !ok {
		logger.Error("ReadLine resulted in an unexpected model")
		panic("ReadLine resulted in an unexpected model")
	}

	if model.interrupted {
		fmt.Print(ResetCursorColumn + model.input.Prompt + model.input.Value() + "^C\n")
		return "", ErrInterrupted
	}

	if model.eof {
		fmt.Print(ResetCursorColumn + model.input.Prompt + "\n")
		return "", ErrEndOfInput
	}

	fmt.Print(ResetCursorColumn + model.finalOutput() + "\n")

	return model.result, nil
}
