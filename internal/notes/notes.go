// Package notes renders report sections as Markdown or plain text.
package notes

import (
	"fmt"
	"io"
	"strings"
)

// Sink is the report interface the measurement code writes through.
type Sink interface {
	Put(format string, args ...any)
	Item(format string, args ...any)
	Quote(text string)
	Newline()
}

// Notes is one report section.
type Notes struct {
	w        io.Writer
	markdown bool
	err      error
}

// Section levels.
const (
	Title   = 0
	Heading = 1
)

// New opens a section titled title on w and writes its heading.
func New(w io.Writer, markdown bool, title string, level int) *Notes {
	n := &Notes{w: w, markdown: markdown}
	n.heading(title, level)

	return n
}

func (n *Notes) heading(title string, level int) {
	if n.markdown {
		n.printf("%s %s\n\n", strings.Repeat("#", level+1), title)
		return
	}

	underline := "-"
	if level == Title {
		underline = "="
	}

	n.printf("%s\n%s\n\n", title, strings.Repeat(underline, len(title)))
}

// Put writes a formatted line.
func (n *Notes) Put(format string, args ...any) {
	n.printf(format+"\n", args...)
}

// Item writes a formatted bullet.
func (n *Notes) Item(format string, args ...any) {
	if n.markdown {
		n.printf("- "+format+"\n", args...)
		return
	}

	n.printf("  * "+format+"\n", args...)
}

// Quote writes text verbatim as a block: a fenced block in Markdown, an
// indented one in plain text. A missing final newline is supplied.
func (n *Notes) Quote(text string) {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	if n.markdown {
		n.printf("```\n%s```\n", text)
		return
	}

	lines := strings.SplitAfter(text, "\n")
	for _, line := range lines {
		if line == "" {
			continue
		}

		n.printf("    %s", line)
	}
}

// Newline writes an empty line.
func (n *Notes) Newline() {
	n.printf("\n")
}

// Close ends the section with an empty line and returns the first write
// error seen.
func (n *Notes) Close() error {
	n.printf("\n")
	return n.err
}

func (n *Notes) printf(format string, args ...any) {
	if n.err != nil {
		return
	}

	_, n.err = fmt.Fprintf(n.w, format, args...)
}
