package parser

import "strings"

// Span maps a classified stage onto the rune range of the line it came from.
// Ranges are half-open [Start, End). Separator spaces between stages fall
// outside every span and render unstyled.
type Span struct {
	Start int
	End   int
	Kind  StageKind
	Stage Stage
}

// Spans re-splits and re-classifies line and aligns each stage back onto the
// original text. The alignment is tolerant: stage texts are located by
// ordered search, so buffers the flatten rule does not reproduce exactly
// (a trailing space mid-typing, say) still produce usable spans for the
// remainder of the line.
func Spans(line string) []Span {
	runes := []rune(line)
	var spans []Span
	off := 0
	for _, st := range ClassifyLine(line) {
		text := []rune(st.Text())
		if len(text) == 0 {
			continue
		}
		idx := indexRunes(runes, text, off)
		if idx < 0 {
			break
		}
		spans = append(spans, Span{Start: idx, End: idx + len(text), Kind: st.Kind(), Stage: st})
		off = idx + len(text)
	}
	return spans
}

// SpanAt returns the span covering the given rune offset, if any. The end
// offset of a span counts as inside it so the cursor sitting just past the
// last typed character still reports the stage being edited.
func SpanAt(spans []Span, pos int) (Span, bool) {
	for _, sp := range spans {
		if pos >= sp.Start && pos <= sp.End {
			return sp, true
		}
	}
	return Span{}, false
}

func indexRunes(haystack, needle []rune, from int) int {
	if from > len(haystack) {
		return -1
	}
	idx := strings.Index(string(haystack[from:]), string(needle))
	if idx < 0 {
		return -1
	}
	return from + len([]rune(string(haystack[from:])[:idx]))
}
