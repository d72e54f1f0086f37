package parser

import "strings"

// StageKind identifies the variant of a classified pipeline stage.
type StageKind int

const (
	KindCommand StageKind = iota
	KindCode
	KindPipe
	KindRedirect
	KindWhitespace
	KindLinebreak
)

// Stage is one typed step of a classified pipeline. The type is a closed sum:
// only the variants in this file implement the unexported marker method.
type Stage interface {
	Kind() StageKind

	// Text flattens the stage back to the text it was classified from,
	// ignoring color. Concatenating stage texts in order (see Render)
	// reproduces the original line.
	Text() string

	isStage()
}

// Command is a builtin or external-process invocation. Args may contain
// literal space-run tokens, which preserve user-typed multi-space argument
// separation through a render round trip.
type Command struct {
	Name string
	Args []string
}

// Code is a bracket-wrapped embedded code block. Source retains the
// outermost bracket pair; the executor strips exactly one layer before
// delegating to the evaluator.
type Code struct {
	Source string
}

// Pipe forwards the previous stage's output as the next stage's input.
type Pipe struct{}

// Redirect is a final sink: accumulated output is written to Path,
// truncating or appending per the flag. Gap is the length of a preserved
// whitespace run typed between the marker and the path; zero means the
// ordinary single separator space.
type Redirect struct {
	Append bool
	Path   string
	Gap    int
}

// Whitespace and Linebreak are presentation-only stages. They carry no
// execution effect but must survive classification so re-rendering matches
// the typed line exactly.
type Whitespace struct {
	Length int
}

type Linebreak struct{}

func (Command) isStage()    {}
func (Code) isStage()       {}
func (Pipe) isStage()       {}
func (Redirect) isStage()   {}
func (Whitespace) isStage() {}
func (Linebreak) isStage()  {}

func (Command) Kind() StageKind    { return KindCommand }
func (Code) Kind() StageKind       { return KindCode }
func (Pipe) Kind() StageKind       { return KindPipe }
func (Redirect) Kind() StageKind   { return KindRedirect }
func (Whitespace) Kind() StageKind { return KindWhitespace }
func (Linebreak) Kind() StageKind  { return KindLinebreak }

func (c Command) Text() string {
	var b strings.Builder
	b.WriteString(c.Name)
	prev := c.Name
	for _, arg := range c.Args {
		if needSeparator(prev, arg) {
			b.WriteByte(' ')
		}
		b.WriteString(arg)
		prev = arg
	}
	return b.String()
}

func (c Code) Text() string { return c.Source }

func (Pipe) Text() string { return PipeMarker }

func (r Redirect) Text() string {
	marker := RedirectMarker
	if r.Append {
		marker = AppendMarker
	}
	if r.Gap > 0 {
		return marker + strings.Repeat(" ", r.Gap) + r.Path
	}
	if r.Path == "" {
		return marker
	}
	return marker + " " + r.Path
}

func (w Whitespace) Text() string { return strings.Repeat(" ", w.Length) }

func (Linebreak) Text() string { return "\n" }

// IsPresentational reports whether the stage carries no execution effect.
// Pipe is kept out of this set: it participates in the fold (forwarding the
// payload) even though it never mutates it.
func IsPresentational(s Stage) bool {
	switch s.Kind() {
	case KindWhitespace, KindLinebreak:
		return true
	}
	return false
}

// Render flattens a stage sequence back to line text, inserting a single
// space between adjacent stages whose boundary characters are not already
// whitespace.
func Render(stages []Stage) string {
	var b strings.Builder
	prev := ""
	for _, st := range stages {
		t := st.Text()
		if needSeparator(prev, t) {
			b.WriteByte(' ')
		}
		b.WriteString(t)
		if t != "" {
			prev = t
		}
	}
	return b.String()
}
