package quiz

import "github.com/abhisek/cloudverse/internal/catalog"

// timerTickMsg is one second of the question countdown. id ties the tick
// to the countdown chain that scheduled it so stale chains die out.
type timerTickMsg struct {
	id int
}

// generatedMsg carries the result of AI quiz generation.
type generatedMsg struct {
	Questions []catalog.Question
	Err       error
}
