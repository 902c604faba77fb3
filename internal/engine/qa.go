package engine

import (
	"context"
	"fmt"
	"strings"
)

// AnswerQuestion answers question from the transcript and summary in one
// completion call. A failed call returns an error wrapping ErrGeneration.
func AnswerQuestion(ctx context.Context, gen *Generator, question, transcript, summary string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	metrics.QARequests.Add(1)
	prompt := fmt.Sprintf(qaPrompt, question, summary, transcript)
	answer, err := gen.Generate(ctx, prompt, "")
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	return answer, nil
}
