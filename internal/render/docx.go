package render

import (
	"bytes"
	"fmt"
	"strconv"

	docx "github.com/fumiama/go-docx"

	"github.com/anatolykoptev/go_tubenotes/internal/engine"
)

// Run sizes in half-points.
const (
	titleSize = "40"
	bodySize  = "22"
)

var headingSizes = map[int]string{1: "32", 2: "28", 3: "26"}

func headingSize(level int) string {
	if s, ok := headingSizes[level]; ok {
		return s
	}
	return "24"
}

// Docx renders the summary as a .docx document with headings, lists,
// tables and bold runs.
func Docx(in Input) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := BuildDocument(in).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render docx: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildDocument lays out the document without serializing it.
func BuildDocument(in Input) *docx.Docx {
	d := docx.New().WithDefaultTheme()

	d.AddParagraph().Justification("center").
		AddText("Video Summary: " + in.title()).Bold().Size(titleSize)
	d.AddParagraph().AddText("Generated on: " + in.timestamp())
	d.AddParagraph().AddText("Video Link: " + engine.WatchURL(in.Video.ID))
	d.AddParagraph()

	b := builder{d: d}
	for _, blk := range Parse(in.Summary.Text) {
		b.add(blk)
	}

	if len(in.QA) > 0 {
		d.AddParagraph().AddText(qaHeading).Bold().Size(headingSize(1))
		for _, qa := range in.QA {
			q := d.AddParagraph()
			addText(q, "Q: ").Bold()
			addText(q, qa.Question)
			a := d.AddParagraph()
			addText(a, "A: ").Bold()
			addText(a, qa.Answer)
			d.AddParagraph()
		}
	}

	d.AddParagraph()
	d.AddParagraph().Justification("center").AddText(footerText)
	return d.WithA4Page()
}

// addText appends a run whose edge whitespace survives in Word.
func addText(p *docx.Paragraph, s string) *docx.Run {
	run := p.AddText(s)
	for _, c := range run.Children {
		if t, ok := c.(*docx.Text); ok {
			t.XMLSpace = "preserve"
		}
	}
	return run
}

// builder tracks the running number of an ordered list across blocks.
type builder struct {
	d    *docx.Docx
	next int
}

func (b *builder) add(blk Block) {
	if _, ok := blk.(NumberedItem); !ok {
		b.next = 0
	}
	switch v := blk.(type) {
	case Heading:
		b.d.AddParagraph().AddText(v.Text).Bold().Size(headingSize(max(v.Level, 1)))
	case BulletItem:
		b.d.AddParagraph().AddText("• " + v.Text).Size(bodySize)
	case NumberedItem:
		b.next++
		b.d.AddParagraph().AddText(strconv.Itoa(b.next) + ". " + v.Text).Size(bodySize)
	case Table:
		b.table(v)
	case Paragraph:
		p := b.d.AddParagraph()
		for _, r := range v.Runs {
			run := addText(p, r.Text)
			if r.Bold {
				run.Bold()
			}
		}
	}
}

// table writes a bordered grid with a bold header row. Every cell holds at
// least one paragraph, as Word requires.
func (b *builder) table(v Table) {
	tbl := b.d.AddTable(len(v.Rows), v.Columns(), 0, nil)
	for i, row := range tbl.TableRows {
		for j, cell := range row.TableCells {
			p := cell.AddParagraph()
			if j >= len(v.Rows[i]) || v.Rows[i][j] == "" {
				continue
			}
			run := p.AddText(v.Rows[i][j])
			if i == 0 {
				run.Bold()
			}
		}
	}
	b.d.AddParagraph()
}
