package quizgen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You write multiple choice questions for people preparing for cloud computing certifications and interviews.

Rules:
- Generate exactly the requested number of questions about the given topic and difficulty.
- Each question has exactly 4 answer options and exactly one correct option.
- correctAnswer is the 0-based index (0-3) of the correct option.
- Give a brief explanation of why the correct answer is right.
- Focus on practical, interview-relevant questions. Include some trap questions that test understanding rather than memorization.
- Options must be distinct. Do not use "all of the above" or "none of the above".
- Do not repeat any question from the "already asked" list.
- Respond with JSON only.`

// buildUserMessage constructs the user message from Input and Config limits.
func buildUserMessage(input Input, count int, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate %d multiple choice questions about %q in cloud computing.\n", count, input.Topic.Title)
	fmt.Fprintf(&b, "Difficulty level: %s\n", difficultyOf(input))
	if input.Topic.Description != "" {
		fmt.Fprintf(&b, "Topic description: %s\n", input.Topic.Description)
	}
	if len(input.Topic.KeyPoints) > 0 {
		b.WriteString("Key points to draw from:\n")
		for _, kp := range input.Topic.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", kp)
		}
	}

	b.WriteString("\nAlready asked:\n")
	b.WriteString(buildPrior(input.PriorQuestions, cfg.MaxPriorQuestions))
	b.WriteString("\n\n")
	b.WriteString(`Respond as {"questions": [{"question": "...", "options": ["A", "B", "C", "D"], "correctAnswer": 0, "explanation": "..."}]}`)

	return b.String()
}

// buildPrior formats prior questions for the prompt, keeping the most
// recent max entries. Returns "None" when there are none.
func buildPrior(prior []string, max int) string {
	if len(prior) == 0 {
		return "None"
	}
	if max > 0 && len(prior) > max {
		prior = prior[len(prior)-max:]
	}

	var b strings.Builder
	for i, q := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
