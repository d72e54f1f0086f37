/*
This file is forked from the textinput component from
github.com/charmbracelet/bubbles

# MIT License

# Copyright (c) 2020-2023 Charmbracelet, Inc

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/
package lineinput

import (
	"strings"
	"unicode"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/runeutil"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Internal messages for clipboard operations.
type (
	pasteMsg    string
	pasteErrMsg struct{ error }
)

// KeyMap is the key bindings for different actions within the input.
//
// Vertical motion within the buffer is deliberately absent: up and down
// always navigate history, and linebreaks are entered explicitly with
// alt+enter. The cursor otherwise stays on the line it is on.
type KeyMap struct {
	CharacterForward        key.Binding
	CharacterBackward       key.Binding
	WordForward             key.Binding
	WordBackward            key.Binding
	DeleteCharacterBackward key.Binding
	DeleteCharacterForward  key.Binding
	DeleteAfterCursor       key.Binding
	DeleteBeforeCursor      key.Binding
	LineStart               key.Binding
	LineEnd                 key.Binding
	InsertLinebreak         key.Binding
	Paste                   key.Binding
	NextValue               key.Binding
	PrevValue               key.Binding
	Complete                key.Binding
	ReverseSearch           key.Binding
	ClearScreen             key.Binding
}

// DefaultKeyMap is the default set of key bindings for navigating and acting
// upon the input.
var DefaultKeyMap = KeyMap{
	CharacterForward:        key.NewBinding(key.WithKeys("right", "ctrl+f")),
	CharacterBackward:       key.NewBinding(key.WithKeys("left", "ctrl+b")),
	WordForward:             key.NewBinding(key.WithKeys("alt+right", "ctrl+right", "alt+f")),
	WordBackward:            key.NewBinding(key.WithKeys("alt+left", "ctrl+left", "alt+b")),
	DeleteCharacterBackward: key.NewBinding(key.WithKeys("backspace", "ctrl+h")),
	DeleteCharacterForward:  key.NewBinding(key.WithKeys("delete")),
	DeleteAfterCursor:       key.NewBinding(key.WithKeys("ctrl+k")),
	DeleteBeforeCursor:      key.NewBinding(key.WithKeys("ctrl+u")),
	LineStart:               key.NewBinding(key.WithKeys("home", "ctrl+a")),
	LineEnd:                 key.NewBinding(key.WithKeys("end", "ctrl+e")),
	InsertLinebreak:         key.NewBinding(key.WithKeys("alt+enter")),
	Paste:                   key.NewBinding(key.WithKeys("ctrl+v")),
	NextValue:               key.NewBinding(key.WithKeys("down", "ctrl+n")),
	PrevValue:               key.NewBinding(key.WithKeys("up", "ctrl+p")),
	Complete:                key.NewBinding(key.WithKeys("tab")),
	ReverseSearch:           key.NewBinding(key.WithKeys("ctrl+r")),
	ClearScreen:             key.NewBinding(key.WithKeys("ctrl+l")),
}

// Model is the Bubble Tea model for the shell's line editor. The buffer may
// span several lines; every keystroke triggers a full re-render with syntax
// highlighting, so the coloring can never drift from the buffer contents.
type Model struct {
	Err error

	// General settings.
	Prompt string
	Cursor cursor.Model

	// Styles. These will be applied as inline styles.
	PromptStyle              lipgloss.Style
	TextStyle                lipgloss.Style
	ReverseSearchPromptStyle lipgloss.Style
	Highlight                HighlightStyles

	// Width marks the horizontal boundary for this component to render
	// within. Content that exceeds this width will be wrapped. If 0 or less
	// this setting is ignored.
	Width int

	// TabWidth is how many spaces a tab inserts when the cursor sits inside
	// a multi-line code block, where tab means indentation rather than
	// completion.
	TabWidth int

	// Completer provides the candidates for tab completion. When nil, tab
	// does nothing outside code blocks.
	Completer CompletionSource

	// KeyMap encodes the keybindings recognized by the widget.
	KeyMap KeyMap

	focus bool

	// Cursor position as a rune offset into the current value.
	pos int

	// values[0] is the current value. Other indices are history values that
	// can be navigated with the up and down arrow keys.
	values             [][]rune
	selectedValueIndex int

	// rune sanitizer for pasted input.
	rsan runeutil.Sanitizer

	// Reverse search state.
	inReverseSearch    bool
	reverseSearchQuery string
	searchMatches      []string
	searchSelected     int
}

// New creates a new model with default settings.
func New() Model {
	return Model{
		Prompt:                   "> ",
		Cursor:                   cursor.New(),
		KeyMap:                   DefaultKeyMap,
		TabWidth:                 4,
		Highlight:                DefaultHighlightStyles(),
		ReverseSearchPromptStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),

		focus: false,
		pos:   0,

		values:             [][]rune{{}},
		selectedValueIndex: 0,
	}
}

// SetValue sets the value of the input.
func (m *Model) SetValue(s string) {
	m.values[0] = []rune(s)
	m.selectedValueIndex = 0
	m.SetCursor(len(m.values[0]))
}

// Value returns the value of the input.
func (m Model) Value() string {
	return string(m.values[m.selectedValueIndex])
}

// Position returns the cursor position.
func (m Model) Position() int {
	return m.pos
}

// InReverseSearch reports whether the input is in reverse search mode.
func (m Model) InReverseSearch() bool {
	return m.inReverseSearch
}

// SetCursor moves the cursor to the given position. If the position is out
// of bounds the cursor will be moved to the start or end accordingly.
func (m *Model) SetCursor(pos int) {
	m.pos = clamp(pos, 0, len(m.values[m.selectedValueIndex]))
}

// CursorStart moves the cursor to the start of the current line.
func (m *Model) CursorStart() {
	start, _ := m.lineBounds()
	m.SetCursor(start)
}

// CursorEnd moves the cursor to the end of the current line.
func (m *Model) CursorEnd() {
	_, end := m.lineBounds()
	m.SetCursor(end)
}

// Focused returns the focus state on the model.
func (m Model) Focused() bool {
	return m.focus
}

// Focus sets the focus state on the model. When the model is in focus it can
// receive keyboard input and the cursor will be shown.
func (m *Model) Focus() tea.Cmd {
	m.focus = true
	return m.Cursor.Focus()
}

// Blur removes the focus state on the model.
func (m *Model) Blur() {
	m.focus = false
	m.Cursor.Blur()
}

// Reset sets the input to its default state with no input.
func (m *Model) Reset() {
	m.values = [][]rune{{}}
	m.selectedValueIndex = 0
	m.SetCursor(0)
}

// SetHistoryValues sets the lines reachable with up and down, most recent
// first.
func (m *Model) SetHistoryValues(historyValues []string) {
	m.values = append([][]rune{m.values[0]}, make([][]rune, len(historyValues))...)

	for i, s := range historyValues {
		m.values[i+1] = []rune(s)
	}

	if m.selectedValueIndex >= len(m.values) {
		m.selectedValueIndex = 0
	}
}

// lineBounds returns the rune offsets of the start and end of the line the
// cursor is on. Linebreaks belong to neither line.
func (m Model) lineBounds() (int, int) {
	value := m.values[m.selectedValueIndex]
	start := 0
	for i := m.pos - 1; i >= 0; i-- {
		if value[i] == '\n' {
			start = i + 1
			break
		}
	}
	end := len(value)
	for i := m.pos; i < len(value); i++ {
		if value[i] == '\n' {
			end = i
			break
		}
	}
	return start, end
}

func (m *Model) insertRunes(v []rune) {
	value := m.values[m.selectedValueIndex]

	result := make([]rune, len(value)+len(v))
	copy(result, value[:m.pos])
	copy(result[m.pos:], v)
	copy(result[m.pos+len(v):], value[m.pos:])

	m.values[0] = result
	m.selectedValueIndex = 0
	m.pos += len(v)
}

// deleteRange removes the runes in [from, to) and leaves the cursor at from.
func (m *Model) deleteRange(from, to int) {
	value := m.values[m.selectedValueIndex]
	from = clamp(from, 0, len(value))
	to = clamp(to, from, len(value))
	if from == to {
		return
	}

	m.values[0] = cloneConcatRunes(value[:from], value[to:])
	m.selectedValueIndex = 0
	m.SetCursor(from)
}

// Update is the Bubble Tea update loop.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focus {
		return m, nil
	}

	oldPos := m.pos

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.inReverseSearch {
			return m.updateReverseSearch(msg), nil
		}

		switch {
		case key.Matches(msg, m.KeyMap.ReverseSearch):
			m.startReverseSearch()
			return m, nil
		case key.Matches(msg, m.KeyMap.Complete):
			m.handleTab()
		case key.Matches(msg, m.KeyMap.InsertLinebreak):
			m.insertRunes([]rune{'\n'})
		case key.Matches(msg, m.KeyMap.DeleteCharacterBackward):
			start, _ := m.lineBounds()
			if m.pos > start {
				m.deleteRange(m.pos-1, m.pos)
			}
		case key.Matches(msg, m.KeyMap.DeleteCharacterForward):
			_, end := m.lineBounds()
			if m.pos < end {
				m.deleteRange(m.pos, m.pos+1)
			}
		case key.Matches(msg, m.KeyMap.DeleteBeforeCursor):
			start, _ := m.lineBounds()
			m.deleteRange(start, m.pos)
		case key.Matches(msg, m.KeyMap.DeleteAfterCursor):
			_, end := m.lineBounds()
			m.deleteRange(m.pos, end)
		case key.Matches(msg, m.KeyMap.WordBackward):
			m.wordBackward()
		case key.Matches(msg, m.KeyMap.CharacterBackward):
			start, _ := m.lineBounds()
			if m.pos > start {
				m.SetCursor(m.pos - 1)
			}
		case key.Matches(msg, m.KeyMap.WordForward):
			m.wordForward()
		case key.Matches(msg, m.KeyMap.CharacterForward):
			_, end := m.lineBounds()
			if m.pos < end {
				m.SetCursor(m.pos + 1)
			}
		case key.Matches(msg, m.KeyMap.LineStart):
			m.CursorStart()
		case key.Matches(msg, m.KeyMap.LineEnd):
			m.CursorEnd()
		case key.Matches(msg, m.KeyMap.Paste):
			return m, Paste
		case key.Matches(msg, m.KeyMap.NextValue):
			m.nextValue()
		case key.Matches(msg, m.KeyMap.PrevValue):
			m.previousValue()
		case key.Matches(msg, m.KeyMap.ClearScreen):
			// Screen clearing is handled by the surrounding program; return
			// unchanged to prevent default character input.
			return m, nil
		default:
			// Input one or more regular characters.
			m.insertRunes(msg.Runes)
		}

	case pasteMsg:
		// Clipboard content can carry carriage returns and tabs; normalize
		// them so the buffer only ever holds plain runes and '\n'.
		paste := strings.ReplaceAll(string(msg), "\r\n", "\n")
		m.insertRunes(m.san().Sanitize([]rune(paste)))

	case pasteErrMsg:
		m.Err = msg
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.Cursor, cmd = m.Cursor.Update(msg)
	cmds = append(cmds, cmd)

	if oldPos != m.pos && m.Cursor.Mode() == cursor.CursorBlink {
		m.Cursor.Blink = false
		cmds = append(cmds, m.Cursor.BlinkCmd())
	}

	return m, tea.Batch(cmds...)
}

// san initializes or retrieves the rune sanitizer. The buffer is multi-line,
// so newlines are kept but normalized to '\n'; tabs become a space.
func (m *Model) san() runeutil.Sanitizer {
	if m.rsan == nil {
		m.rsan = runeutil.NewSanitizer(
			runeutil.ReplaceTabs(" "), runeutil.ReplaceNewlines("\n"))
	}
	return m.rsan
}

// Blink is a command used to initialize cursor blinking.
func Blink() tea.Msg {
	return cursor.Blink()
}

// Paste is a command for pasting from the clipboard into the input.
func Paste() tea.Msg {
	str, err := clipboard.ReadAll()
	if err != nil {
		return pasteErrMsg{err}
	}
	return pasteMsg(str)
}

func (m *Model) nextValue() {
	if len(m.values) == 1 {
		return
	}

	m.selectedValueIndex--
	if m.selectedValueIndex < 0 {
		m.selectedValueIndex = 0
	}
	m.SetCursor(len(m.values[m.selectedValueIndex]))
}

func (m *Model) previousValue() {
	if len(m.values) == 1 {
		return
	}

	m.selectedValueIndex++
	if m.selectedValueIndex >= len(m.values) {
		m.selectedValueIndex = len(m.values) - 1
	}
	m.SetCursor(len(m.values[m.selectedValueIndex]))
}

func (m *Model) wordBackward() {
	start, _ := m.lineBounds()
	value := m.values[m.selectedValueIndex]

	i := m.pos
	for i > start && unicode.IsSpace(value[i-1]) {
		i--
	}
	for i > start && !unicode.IsSpace(value[i-1]) {
		i--
	}
	m.SetCursor(i)
}

func (m *Model) wordForward() {
	_, end := m.lineBounds()
	value := m.values[m.selectedValueIndex]

	i := m.pos
	for i < end && unicode.IsSpace(value[i]) {
		i++
	}
	for i < end && !unicode.IsSpace(value[i]) {
		i++
	}
	m.SetCursor(i)
}
