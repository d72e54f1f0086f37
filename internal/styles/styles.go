package styles

import (
	"os"

	"github.com/muesli/termenv"
)

var (
	stdout = termenv.NewOutput(os.Stdout)

	ERROR = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("9")).
			String()
	}
	RESULT = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("15")).
			String()
	}
	PROMPT = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("10")).
			Bold().
			String()
	}
	// NOTICE styles shell-generated messages (exit hints, help headers) so
	// they stand apart from command output.
	NOTICE = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("12")).
			String()
	}
	HINT = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("244")).
			String()
	}
)
