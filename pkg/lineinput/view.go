package lineinput

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/ansi"
	"github.com/muesli/reflow/wrap"

	"github.com/tansholt/gosh/internal/parser"
)

// HighlightStyles are the lipgloss styles applied to the stages of the
// buffer as the user types.
type HighlightStyles struct {
	Command  lipgloss.Style
	Code     lipgloss.Style
	Operator lipgloss.Style
	Path     lipgloss.Style
	Text     lipgloss.Style
}

func DefaultHighlightStyles() HighlightStyles {
	return HighlightStyles{
		Command:  lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		Code:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Operator: lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
		Path:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Text:     lipgloss.NewStyle(),
	}
}

func (s HighlightStyles) forKind(kind parser.StageKind) lipgloss.Style {
	switch kind {
	case parser.KindCommand:
		return s.Command
	case parser.KindCode:
		return s.Code
	case parser.KindPipe:
		return s.Operator
	case parser.KindRedirect:
		return s.Path
	default:
		return s.Text
	}
}

// View renders the prompt and the highlighted buffer. The whole buffer is
// re-rendered from scratch: coloring comes from re-classifying the current
// text, never from patching the previous frame.
func (m Model) View() string {
	if m.inReverseSearch {
		matchText := ""
		prefix := "(reverse-i-search)"
		if m.searchSelected >= 0 && m.searchSelected < len(m.searchMatches) {
			matchText = m.searchMatches[m.searchSelected]
		} else if m.reverseSearchQuery != "" {
			prefix = "(failed reverse-i-search)"
		}
		return m.ReverseSearchPromptStyle.Render(fmt.Sprintf("%s`%s': %s", prefix, m.reverseSearchQuery, matchText))
	}

	value := m.values[m.selectedValueIndex]
	pos := clamp(m.pos, 0, len(value))
	kindAt := kindIndex(string(value))

	v := m.PromptStyle.Render(m.Prompt)
	v += m.renderRange(value, 0, pos, kindAt)

	if pos < len(value) {
		char := string(value[pos])
		if char == "\n" {
			// The cursor sits on an invisible linebreak; show it as a space
			// and keep the break.
			m.Cursor.SetChar(" ")
			v += m.Cursor.View() + "\n"
		} else {
			m.Cursor.SetChar(char)
			v += m.Cursor.View()
		}
		v += m.renderRange(value, pos+1, len(value), kindAt)
	} else {
		m.Cursor.SetChar(" ")
		v += m.Cursor.View()
	}

	if m.Width > 0 {
		// Measure the printable width; the styled text is full of ANSI
		// escape sequences.
		for _, line := range strings.Split(v, "\n") {
			if ansi.PrintableRuneWidth(line) > m.Width {
				v = wrap.String(v, m.Width)
				break
			}
		}
	}

	return v
}

// kindIndex maps each rune offset of the buffer to the kind of the stage it
// belongs to. Offsets outside every span, like separator spaces, get
// KindWhitespace.
func kindIndex(value string) func(int) parser.StageKind {
	spans := parser.Spans(value)
	return func(i int) parser.StageKind {
		for _, span := range spans {
			if i >= span.Start && i < span.End {
				return span.Kind
			}
		}
		return parser.KindWhitespace
	}
}

// renderRange renders value[from:to] in runs of identical stage kind,
// leaving linebreaks unstyled so terminal line handling stays intact.
func (m Model) renderRange(value []rune, from, to int, kindAt func(int) parser.StageKind) string {
	var b strings.Builder

	i := from
	for i < to {
		if value[i] == '\n' {
			b.WriteByte('\n')
			i++
			continue
		}

		kind := kindAt(i)
		j := i
		for j < to && value[j] != '\n' && kindAt(j) == kind {
			j++
		}
		b.WriteString(m.Highlight.forKind(kind).Inline(true).Render(string(value[i:j])))
		i = j
	}

	return b.String()
}
