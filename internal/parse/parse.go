// Package parse turns raw 10-Q HTML into indexable text fragments:
// plaintext extraction, item-heading sectioning, paragraph chunking.
package parse

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/tenqd/internal/domain/filing"
	"github.com/kailas-cloud/tenqd/internal/domain/fragment"
)

// itemHeadingRe recognizes SEC item headings such as
// "Item 1A. Risk Factors" at the start of a line, case-insensitively.
var itemHeadingRe = regexp.MustCompile(`(?i)^item\s+(\d+[A-Z]?)\.\s*(.+)`)

// section is an intermediate grouping of extracted text under one heading.
type section struct {
	name string
	item string
	text string
}

// Parser converts filing HTML into fragments sized for embedding.
type Parser struct {
	chunkChars   int
	overlapChars int
}

// New creates a parser with the given chunk budget and overlap.
func New(chunkChars, overlapChars int) *Parser {
	return &Parser{chunkChars: chunkChars, overlapChars: overlapChars}
}

// Parse extracts text, splits it into item sections and chunks each
// section. Text before the first recognized heading lands in a section
// named "Unknown" with no item code.
func (p *Parser) Parse(doc string, d filing.Descriptor) []fragment.Fragment {
	sections := splitSections(extractLines(doc))

	var frags []fragment.Fragment
	for _, sec := range sections {
		for idx, text := range chunkText(sec.text, p.chunkChars, p.overlapChars) {
			frags = append(frags, fragment.FromSection(d, sec.name, sec.item, idx, text))
		}
	}
	return frags
}

// splitSections walks extracted lines and cuts a new section at every
// item heading. Blank lines become paragraph breaks inside a section so
// the chunker can split on them later.
func splitSections(lines []string) []section {
	var sections []section

	name := "Unknown"
	item := ""
	var paragraphs []string
	var current []string

	flushParagraph := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, "\n"))
			current = nil
		}
	}
	flushSection := func() {
		flushParagraph()
		if len(paragraphs) > 0 {
			sections = append(sections, section{
				name: name,
				item: item,
				text: strings.Join(paragraphs, "\n\n"),
			})
			paragraphs = nil
		}
	}

	for _, line := range lines {
		if line == "" {
			flushParagraph()
			continue
		}
		if m := itemHeadingRe.FindStringSubmatch(line); m != nil {
			flushSection()
			item = m[1]
			name = strings.TrimSpace(m[2])
			continue
		}
		current = append(current, line)
	}
	flushSection()

	return sections
}

// chunkText groups paragraphs into chunks of at most maxChars, seeding
// each new chunk with the trailing overlapChars of the one just closed.
// A single paragraph over the budget is kept whole.
func chunkText(text string, maxChars, overlapChars int) []string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var chunks []string
	current := ""

	for _, para := range paragraphs {
		if len(current)+len(para)+2 > maxChars && current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
			if overlapChars < len(current) {
				current = current[len(current)-overlapChars:]
			}
		}
		if current != "" {
			current += "\n\n"
		}
		current += para
	}
	if current != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	return chunks
}
