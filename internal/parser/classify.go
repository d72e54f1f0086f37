package parser

import "strings"

// Markers recognized by the classifier. Classification precedence means a
// literal argument equal to one of these can never be passed through as a
// plain token; that matches the shell's observable behavior and is kept
// deliberately.
const (
	PipeMarker     = "|>"
	RedirectMarker = ">>"
	AppendMarker   = ">>>"
)

// Classify groups ordered lexical parts into typed pipeline stages with a
// single left-to-right scan. Check order is significant: whitespace and
// marker checks run before the generic command-with-args fallback.
func Classify(parts []Part) []Stage {
	var stages []Stage
	for i := 0; i < len(parts); i++ {
		p := parts[i]
		switch {
		case p.IsLinebreak():
			stages = append(stages, Linebreak{})
		case p.IsWhitespace():
			stages = append(stages, Whitespace{Length: len(p)})
		case p == PipeMarker:
			stages = append(stages, Pipe{})
		case p == RedirectMarker || p == AppendMarker:
			r := Redirect{Append: p == AppendMarker}
			if i+1 < len(parts) && parts[i+1].IsWhitespace() {
				i++
				r.Gap = len(parts[i])
			}
			if i+1 < len(parts) && !parts[i+1].IsWhitespace() && !parts[i+1].IsLinebreak() {
				i++
				r.Path = string(parts[i])
			}
			stages = append(stages, r)
		case isCodePart(p, i == len(parts)-1):
			stages = append(stages, Code{Source: string(p)})
		default:
			cmd := Command{Name: string(p)}
			for i+1 < len(parts) && isArgPart(parts[i+1]) {
				i++
				cmd.Args = append(cmd.Args, string(parts[i]))
			}
			stages = append(stages, cmd)
		}
	}
	return stages
}

// isCodePart recognizes a bracket-wrapped code block: the part opens with a
// bracket and either closes with one or is still being typed (last part).
func isCodePart(p Part, last bool) bool {
	if !strings.HasPrefix(string(p), "(") {
		return false
	}
	return last || strings.HasSuffix(string(p), ")")
}

// isArgPart reports whether a part belongs to the argument list of the
// command currently being collected. Markers end the list; a whitespace run
// joins it as a literal space token so multi-space separation survives a
// render round trip. A line break ends the list so each buffer line
// classifies on its own.
func isArgPart(p Part) bool {
	if p.IsLinebreak() {
		return false
	}
	switch p {
	case PipeMarker, RedirectMarker, AppendMarker:
		return false
	}
	return true
}

// ClassifyLine is the common split-then-classify composition.
func ClassifyLine(line string) []Stage {
	return Classify(Split(line))
}
