package lineinput

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"

	"github.com/tansholt/gosh/internal/parser"
)

// CompletionSource provides the candidates for tab completion. Candidates
// returns the possible replacements for the given token; the model narrows
// them with case-insensitive prefix matching.
type CompletionSource interface {
	Candidates(prefix string) []string
}

// handleTab either indents or completes. Inside a multi-line code block tab
// means indentation; everywhere else it completes the token under the
// cursor.
func (m *Model) handleTab() {
	value := m.values[m.selectedValueIndex]

	if strings.ContainsRune(string(value), '\n') && m.inCodeSpan() {
		m.insertRunes([]rune(strings.Repeat(" ", max(1, m.TabWidth))))
		return
	}

	if m.Completer == nil {
		return
	}

	start := m.pos
	for start > 0 && !unicode.IsSpace(value[start-1]) {
		start--
	}
	prefix := string(value[start:m.pos])
	if prefix == "" {
		return
	}

	matches := matchCandidates(m.Completer.Candidates(prefix), prefix)
	if len(matches) == 0 {
		return
	}

	replacement := matches[0]
	if len(matches) > 1 {
		replacement = commonPrefix(matches)
		if len(replacement) <= len(prefix) {
			return
		}
	}

	if m.wouldOverflow(start, replacement) {
		return
	}

	m.deleteRange(start, m.pos)
	m.insertRunes([]rune(replacement))
}

func (m Model) inCodeSpan() bool {
	spans := parser.Spans(string(m.values[m.selectedValueIndex]))
	span, ok := parser.SpanAt(spans, m.pos)
	return ok && span.Kind == parser.KindCode
}

// wouldOverflow reports whether replacing the token starting at start would
// push the rendered line past the configured width. Completing past the edge
// would force a wrap mid-edit, so the completion is skipped instead.
func (m Model) wouldOverflow(start int, replacement string) bool {
	if m.Width <= 0 {
		return false
	}

	value := m.values[m.selectedValueIndex]
	completed := string(value[:start]) + replacement + string(value[m.pos:])

	widest := 0
	for _, line := range strings.Split(completed, "\n") {
		if w := uniseg.StringWidth(line); w > widest {
			widest = w
		}
	}
	return uniseg.StringWidth(m.Prompt)+widest > m.Width
}

func matchCandidates(candidates []string, prefix string) []string {
	lowered := strings.ToLower(prefix)
	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), lowered) {
			matches = append(matches, c)
		}
	}
	return matches
}

// commonPrefix returns the longest prefix shared by all candidates.
func commonPrefix(candidates []string) string {
	prefix := candidates[0]
	for _, c := range candidates[1:] {
		for !strings.HasPrefix(c, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}
