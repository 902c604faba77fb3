package engine

import (
	"regexp"
	"strings"
)

var (
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
	bulletRe      = regexp.MustCompile(`(?m)^[ \t]*[-•*][ \t]+`)
	bareBulletRe  = regexp.MustCompile(`(?m)^[ \t]*•`)
	tableSepRowRe = regexp.MustCompile(`^[\|\s\-:]+$`)
)

// FormatResponse normalizes model output: blank-line runs collapse to one,
// bullet markers become "- ", and tables get a header separator row if the
// model left it out.
func FormatResponse(s string) string {
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	s = bulletRe.ReplaceAllString(s, "- ")
	s = bareBulletRe.ReplaceAllString(s, "- ")
	return fixTableHeaders(s)
}

func isTableLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "|")
}

func fixTableHeaders(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines)+2)
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		out = append(out, line)
		startsTable := isTableLine(line) && (i == 0 || !isTableLine(lines[i-1]))
		if !startsTable || tableSepRowRe.MatchString(strings.TrimSpace(line)) {
			continue
		}
		if i+1 < len(lines) && isTableLine(lines[i+1]) && !tableSepRowRe.MatchString(strings.TrimSpace(lines[i+1])) {
			out = append(out, separatorRow(line))
		}
	}
	return strings.Join(out, "\n")
}

func separatorRow(header string) string {
	cells := strings.Split(strings.Trim(strings.TrimSpace(header), "|"), "|")
	return "|" + strings.Repeat("---|", len(cells))
}
