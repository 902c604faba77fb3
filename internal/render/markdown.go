package render

import (
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_tubenotes/internal/engine"
)

// Markdown renders the summary verbatim under a metadata header, followed by
// the Q&A history in the order asked.
func Markdown(in Input) string {
	id := in.Video.ID
	var b strings.Builder
	fmt.Fprintf(&b, "# Video Summary: %s\n\n", in.title())
	fmt.Fprintf(&b, "Generated on: %s\n", in.timestamp())
	fmt.Fprintf(&b, "Video Link: %s\n\n", engine.WatchURL(id))
	fmt.Fprintf(&b, "![Thumbnail](%s)\n\n", engine.ThumbnailURL(id))
	b.WriteString(in.Summary.Text)
	b.WriteString("\n\n")

	if len(in.QA) > 0 {
		b.WriteString("\n## " + qaHeading + "\n\n")
		for _, qa := range in.QA {
			fmt.Fprintf(&b, "**Q: %s**\n\n", qa.Question)
			fmt.Fprintf(&b, "A: %s\n\n", qa.Answer)
		}
	}

	b.WriteString("\n---\n" + footerText)
	return b.String()
}
