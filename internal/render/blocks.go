// Package render turns a generated summary and its Q&A history into
// downloadable markdown and .docx documents.
package render

import (
	"regexp"
	"strings"
)

// Block is one parsed block of summary markdown.
type Block interface {
	block()
}

// Heading is a "#"-prefixed line; Level is the number of leading '#'.
type Heading struct {
	Level int
	Text  string
}

// BulletItem is a "- " or "* " list line. Inline markup is kept literally.
type BulletItem struct {
	Text string
}

// NumberedItem is a "<n>." list line with the number stripped.
type NumberedItem struct {
	Text string
}

// Table holds the cleaned content rows of a pipe table. Rows may be ragged.
type Table struct {
	Rows [][]string
}

// Run is a span of paragraph text.
type Run struct {
	Text string
	Bold bool
}

// Paragraph is any other non-blank line, split into bold and plain runs.
type Paragraph struct {
	Runs []Run
}

func (Heading) block()      {}
func (BulletItem) block()   {}
func (NumberedItem) block() {}
func (Table) block()        {}
func (Paragraph) block()    {}

var (
	headingRe  = regexp.MustCompile(`^#+`)
	numberedRe = regexp.MustCompile(`^\d+\.`)
	numPrefix  = regexp.MustCompile(`^\d+\.\s*`)
	sepRowRe   = regexp.MustCompile(`^[\|\s\-:]+$`)
	cellEdgeRe = regexp.MustCompile(`^[-\s]+|[-\s]+$`)
	cellWSRe   = regexp.MustCompile(`\s+`)
)

// Parse classifies summary lines into blocks. A table is a run of
// consecutive lines whose trimmed form starts with '|'.
func Parse(text string) []Block {
	var (
		blocks   []Block
		tableBuf []string
	)
	flush := func() {
		if len(tableBuf) == 0 {
			return
		}
		if t, ok := parseTable(tableBuf); ok {
			blocks = append(blocks, t)
		}
		tableBuf = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") {
			tableBuf = append(tableBuf, line)
			continue
		}
		flush()

		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(line, "#"):
			level := len(headingRe.FindString(line))
			if h := strings.TrimSpace(strings.TrimLeft(line, "#")); h != "" {
				blocks = append(blocks, Heading{Level: level, Text: h})
			}
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			blocks = append(blocks, BulletItem{Text: strings.TrimSpace(trimmed[2:])})
		case numberedRe.MatchString(line):
			blocks = append(blocks, NumberedItem{Text: strings.TrimSpace(numPrefix.ReplaceAllString(line, ""))})
		case strings.Contains(trimmed, "**"):
			blocks = append(blocks, Paragraph{Runs: splitBold(trimmed)})
		default:
			blocks = append(blocks, Paragraph{Runs: []Run{{Text: trimmed}}})
		}
	}
	flush()
	return blocks
}

// splitBold splits on "**"; odd segments are bold. Empty segments are dropped.
func splitBold(s string) []Run {
	parts := strings.Split(s, "**")
	runs := make([]Run, 0, len(parts))
	for i, p := range parts {
		if p == "" {
			continue
		}
		runs = append(runs, Run{Text: p, Bold: i%2 == 1})
	}
	return runs
}

// parseTable drops separator and empty rows and cleans every cell.
// It reports false when no content row survives.
func parseTable(lines []string) (Table, bool) {
	var rows [][]string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if sepRowRe.MatchString(trimmed) {
			continue
		}
		parts := strings.Split(strings.Trim(trimmed, "|"), "|")
		cells := make([]string, len(parts))
		empty := true
		for i, p := range parts {
			cells[i] = cleanCell(p)
			if cells[i] != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, cells)
		}
	}
	if len(rows) == 0 {
		return Table{}, false
	}
	return Table{Rows: rows}, true
}

// cleanCell strips leading and trailing dash runs and collapses whitespace.
func cleanCell(s string) string {
	s = cellEdgeRe.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(cellWSRe.ReplaceAllString(s, " "))
}

// Columns returns the widest row length.
func (t Table) Columns() int {
	n := 0
	for _, r := range t.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}
