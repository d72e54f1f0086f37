package parser

import "strings"

// Part is a single lexical unit extracted from a raw input line. Quote and
// bracket wrapping markers are retained in the part text so that joining
// parts back together stays visually faithful to what the user typed.
type Part string

// IsWhitespace reports whether the part is a preserved run of spaces.
func (p Part) IsWhitespace() bool {
	return len(p) > 0 && strings.Trim(string(p), " ") == ""
}

// IsLinebreak reports whether the part is a preserved line break.
func (p Part) IsLinebreak() bool {
	return p == "\n"
}

// Literal returns the execution-time text a token denotes. Parts keep their
// quote and escape markers so re-rendering stays faithful to what the user
// typed; at invocation the markers come off: a surrounding quote pair is
// dropped (escaped quotes inside it unescaped) and an escaped space loses
// its backslash.
func Literal(token string) string {
	if len(token) >= 2 && strings.HasPrefix(token, `"`) && strings.HasSuffix(token, `"`) {
		inner := token[1 : len(token)-1]
		return strings.ReplaceAll(inner, `\"`, `"`)
	}
	return strings.ReplaceAll(token, `\ `, " ")
}

type wrapState int

const (
	wrapNone wrapState = iota
	wrapQuote
	wrapBracket
)

// splitter is the accumulator state for one left-to-right scan. The original
// design is a recursive fold; an explicit loop over an accumulator struct
// keeps the same "ordered scan with local state" semantics without deep
// recursion.
type splitter struct {
	parts []Part
	acc   []rune
	wrap  wrapState
	depth int
	prev  rune
	run   int
}

// Split breaks a raw input line into ordered lexical parts. Parts are
// delimited by unwrapped, unescaped spaces; quote-wrapped and bracket-wrapped
// regions keep their content (and markers) intact, with bracket nesting
// tracked by depth. Runs of two or more spaces are preserved as whitespace
// parts of matching length so re-rendering keeps the user's column alignment.
//
// Split never fails: an unterminated quote or bracket at end of input is
// emitted as-is with its opening marker, so every partial buffer the editor
// holds mid-typing still renders.
func Split(raw string) []Part {
	s := &splitter{}
	for _, r := range raw {
		switch s.wrap {
		case wrapQuote:
			s.scanQuoted(r)
		case wrapBracket:
			s.scanBracketed(r)
		default:
			s.scanPlain(r)
		}
		s.prev = r
	}
	s.finish()
	return s.parts
}

func (s *splitter) scanPlain(r rune) {
	switch {
	case r == ' ' && s.prev != '\\':
		s.flushToken()
		s.run++
	case r == '\n':
		s.flushToken()
		s.flushRun()
		s.parts = append(s.parts, Part("\n"))
	case r == '"' && len(s.acc) == 0:
		s.flushRun()
		s.wrap = wrapQuote
	case r == '(' && len(s.acc) == 0:
		s.flushRun()
		s.wrap = wrapBracket
		s.depth = 1
	default:
		s.flushRun()
		s.acc = append(s.acc, r)
	}
}

func (s *splitter) scanQuoted(r rune) {
	if r == '"' && s.prev != '\\' {
		s.parts = append(s.parts, Part(`"`+string(s.acc)+`"`))
		s.acc = s.acc[:0]
		s.wrap = wrapNone
		return
	}
	s.acc = append(s.acc, r)
}

func (s *splitter) scanBracketed(r rune) {
	switch r {
	case '(':
		s.depth++
		s.acc = append(s.acc, r)
	case ')':
		s.depth--
		if s.depth == 0 {
			s.parts = append(s.parts, Part("("+string(s.acc)+")"))
			s.acc = s.acc[:0]
			s.wrap = wrapNone
			return
		}
		s.acc = append(s.acc, r)
	default:
		s.acc = append(s.acc, r)
	}
}

// flushToken emits the accumulated token, if any, as a part.
func (s *splitter) flushToken() {
	if len(s.acc) == 0 {
		return
	}
	s.flushRun()
	s.parts = append(s.parts, Part(s.acc))
	s.acc = s.acc[:0]
}

// flushRun emits a pending space run as a whitespace part. A run of exactly
// one space is an ordinary separator and produces no part; the single
// trailing blank before end of input is likewise discarded.
func (s *splitter) flushRun() {
	if s.run >= 2 {
		s.parts = append(s.parts, Part(strings.Repeat(" ", s.run)))
	}
	s.run = 0
}

// finish handles end of input. An open wrap state means the user typed an
// unterminated quote or bracket; the part is emitted with its opening marker
// re-attached rather than raising a parse error.
func (s *splitter) finish() {
	switch s.wrap {
	case wrapQuote:
		s.parts = append(s.parts, Part(`"`+string(s.acc)))
	case wrapBracket:
		s.parts = append(s.parts, Part("("+string(s.acc)))
	default:
		s.flushToken()
		s.flushRun()
	}
}

// JoinParts flattens parts back into line text. A single space separates two
// adjacent parts unless one of them is itself preserved whitespace (or a line
// break), which stands in for the separation entirely.
func JoinParts(parts []Part) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 && needSeparator(string(parts[i-1]), string(p)) {
			b.WriteByte(' ')
		}
		b.WriteString(string(p))
	}
	return b.String()
}

func needSeparator(prev, next string) bool {
	if prev == "" || next == "" {
		return false
	}
	return !isBoundaryWhitespace(prev[len(prev)-1]) && !isBoundaryWhitespace(next[0])
}

func isBoundaryWhitespace(c byte) bool {
	return c == ' ' || c == '\n'
}
