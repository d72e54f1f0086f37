package lineinput

import (
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
)

func (m *Model) startReverseSearch() {
	m.inReverseSearch = true
	m.reverseSearchQuery = ""
	m.updateSearchMatches()
}

func (m *Model) cancelReverseSearch() {
	m.inReverseSearch = false
	m.searchMatches = nil
	m.searchSelected = 0
}

func (m *Model) acceptReverseSearch() {
	if m.searchSelected >= 0 && m.searchSelected < len(m.searchMatches) {
		m.SetValue(m.searchMatches[m.searchSelected])
	}
	m.cancelReverseSearch()
}

// updateSearchMatches refreshes the fuzzy matches for the current query.
// An empty query matches the whole history, most recent first.
func (m *Model) updateSearchMatches() {
	history := make([]string, 0, len(m.values)-1)
	for _, v := range m.values[1:] {
		history = append(history, string(v))
	}

	if m.reverseSearchQuery == "" {
		m.searchMatches = history
	} else {
		m.searchMatches = m.searchMatches[:0]
		for _, match := range fuzzy.Find(m.reverseSearchQuery, history) {
			m.searchMatches = append(m.searchMatches, match.Str)
		}
	}
	m.searchSelected = 0
}

func (m Model) updateReverseSearch(msg tea.KeyMsg) Model {
	switch {
	case key.Matches(msg, m.KeyMap.ReverseSearch), key.Matches(msg, m.KeyMap.NextValue):
		if m.searchSelected < len(m.searchMatches)-1 {
			m.searchSelected++
		}
	case key.Matches(msg, m.KeyMap.PrevValue):
		if m.searchSelected > 0 {
			m.searchSelected--
		}
	case msg.String() == "enter",
		key.Matches(msg, m.KeyMap.CharacterBackward),
		key.Matches(msg, m.KeyMap.CharacterForward):
		m.acceptReverseSearch()
	case msg.String() == "ctrl+g", msg.String() == "ctrl+c", msg.String() == "esc", msg.String() == "escape":
		m.cancelReverseSearch()
	case key.Matches(msg, m.KeyMap.DeleteCharacterBackward):
		if len(m.reverseSearchQuery) > 0 {
			runes := []rune(m.reverseSearchQuery)
			m.reverseSearchQuery = string(runes[:len(runes)-1])
			m.updateSearchMatches()
		}
	case len(msg.Runes) > 0 && unicode.IsPrint(msg.Runes[0]):
		m.reverseSearchQuery += string(msg.Runes)
		m.updateSearchMatches()
	}
	return m
}
