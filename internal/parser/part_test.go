package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPlainTokens(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Part
	}{
		{"empty", "", nil},
		{"single token", "echo", []Part{"echo"}},
		{"two tokens", "echo hi", []Part{"echo", "hi"}},
		{"three tokens", "cp a.txt b.txt", []Part{"cp", "a.txt", "b.txt"}},
		{"multi space run preserved", "a   b", []Part{"a", "   ", "b"}},
		{"double space run preserved", "a  b", []Part{"a", "  ", "b"}},
		{"trailing single blank discarded", "echo ", []Part{"echo"}},
		{"trailing run preserved", "echo   ", []Part{"echo", "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.in))
		})
	}
}

func TestSplitQuoted(t *testing.T) {
	assert.Equal(t, []Part{`"a b"`}, Split(`"a b"`))
	assert.Equal(t, []Part{"echo", `"hello world"`}, Split(`echo "hello world"`))
	// Escaped quote stays inside the part.
	assert.Equal(t, []Part{`"a \" b"`}, Split(`"a \" b"`))
	// Quotes do not nest: the second unescaped quote closes the part.
	assert.Equal(t, []Part{`"ab"`, "cd"}, Split(`"ab" cd`))
}

func TestSplitBracketDepth(t *testing.T) {
	assert.Equal(t, []Part{"(a (b) c)"}, Split("(a (b) c)"))
	assert.Equal(t, []Part{"(10)"}, Split("(10)"))
	assert.Equal(t, []Part{"((fun x -> x) 1)"}, Split("((fun x -> x) 1)"))
	// Spaces inside brackets never split.
	assert.Equal(t, []Part{"echo", "(a b c)"}, Split("echo (a b c)"))
}

func TestSplitEscapedSpace(t *testing.T) {
	assert.Equal(t, []Part{`a\ b`}, Split(`a\ b`))
	assert.Equal(t, []Part{`my\ file.txt`, "x"}, Split(`my\ file.txt x`))
}

func TestSplitUnterminatedInputNeverFails(t *testing.T) {
	// Open quote: marker re-attached, rest of line kept.
	assert.Equal(t, []Part{`"abc def`}, Split(`"abc def`))
	// Open bracket, including nested ones still open.
	assert.Equal(t, []Part{"(fun x ->"}, Split("(fun x ->"))
	assert.Equal(t, []Part{"(a (b"}, Split("(a (b"))
}

func TestSplitLinebreaks(t *testing.T) {
	assert.Equal(t, []Part{"echo", "a", "\n", "echo", "b"}, Split("echo a\necho b"))
	// Newlines inside a bracket stay in the code body.
	assert.Equal(t, []Part{"(let x = 1\n x + 1)"}, Split("(let x = 1\n x + 1)"))
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain token unchanged", "echo", "echo"},
		{"quote pair dropped", `"my file.txt"`, "my file.txt"},
		{"escaped quote unescaped inside pair", `"a \" b"`, `a " b`},
		{"escaped space unescaped", `my\ file.txt`, "my file.txt"},
		{"empty quote pair", `""`, ""},
		{"lone quote kept", `"`, `"`},
		{"unterminated quote kept", `"abc`, `"abc`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Literal(tt.in))
		})
	}
}

func TestJoinPartsRoundTrip(t *testing.T) {
	inputs := []string{
		"echo hi",
		"echo   hi",
		`echo "hello world" |> (fun s -> s) >> out.txt`,
		"(a (b) c)",
		`a\ b`,
		"ls -l\ncat file",
	}
	for _, in := range inputs {
		assert.Equal(t, in, JoinParts(Split(in)), "round trip of %q", in)
	}
}
