package pipeline

// Outcome is the value threaded between pipeline stages: either the normal
// output of the previous stage or an error description. An error outcome
// skips every remaining stage and becomes the line's final result.
type Outcome struct {
	Failed bool
	Text   string
}

func Ok(text string) Outcome {
	return Outcome{Text: text}
}

func Fail(text string) Outcome {
	return Outcome{Failed: true, Text: text}
}
