// Package toolutil provides shared helpers for the tubenotes MCP tools.
package toolutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/anatolykoptev/go_tubenotes/internal/engine"
)

var validate = validator.New()

// Validate checks the validate tags of a tool input and turns failures
// into one readable error naming each offending JSON field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// WithGuidance appends user-facing help to URL and transcript failures.
// Other errors are returned unchanged.
func WithGuidance(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, engine.ErrInvalidURL):
		return fmt.Errorf("%w\n\n%s", err, engine.URLGuidance)
	case errors.Is(err, engine.ErrNoTranscript):
		return fmt.Errorf("%w\n\n%s", err, engine.TranscriptGuidance)
	}
	return err
}

// NormFormat normalises an export format: empty means "both".
func NormFormat(format string) string {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", "both", "all":
		return "both"
	case "md":
		return "markdown"
	case "word":
		return "docx"
	default:
		return f
	}
}
