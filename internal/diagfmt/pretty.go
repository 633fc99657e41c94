package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"marrow/internal/diag"
	"marrow/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	noteColor    = color.New(color.FgBlue)
)

// Pretty renders diagnostics in a human-readable form. The bag is expected
// to be sorted. Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//	  <line> | <source line>
//	         |   ^~~~
//
// followed by its notes when ShowNotes is set.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	base := fs.BaseDir()
	for _, d := range bag.Items() {
		writeHeading(w, fs, d.Severity, d.Code, d.Primary, d.Message, base, opts)
		writeSnippet(w, fs, d.Primary)

		if !opts.ShowNotes {
			continue
		}
		for _, note := range d.Notes {
			pos, _ := fs.Resolve(note.Span)
			path := formatPath(fs.Get(note.Span.File), opts.PathMode, base)
			label := "note"
			if opts.Color {
				label = noteColor.Sprint(label)
			}
			fmt.Fprintf(w, "  %s:%d:%d: %s: %s\n", path, pos.Line, pos.Col, label, note.Msg)
		}
	}
}

func writeHeading(w io.Writer, fs *source.FileSet, sev diag.Severity, code diag.Code, span source.Span, msg, base string, opts PrettyOpts) {
	pos, _ := fs.Resolve(span)
	path := formatPath(fs.Get(span.File), opts.PathMode, base)

	sevText := sev.String()
	if opts.Color {
		sevText = severityColor(sev).Sprint(sevText)
	}
	fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n", path, pos.Line, pos.Col, sevText, code, msg)
}

// writeSnippet prints the source line of the span's start with a caret run
// underneath. Multi-line spans underline only their first line.
func writeSnippet(w io.Writer, fs *source.FileSet, span source.Span) {
	if span == (source.Span{}) {
		return
	}
	file := fs.Get(span.File)
	start, end := fs.Resolve(span)

	line := file.GetLine(start.Line)
	if line == "" && span.Len() == 0 {
		return
	}
	expanded := strings.ReplaceAll(line, "\t", "    ")

	gutter := fmt.Sprintf("%4d", start.Line)
	fmt.Fprintf(w, "%s | %s\n", gutter, expanded)

	// Caret alignment goes by display width so wide runes and tabs line up.
	prefix := lineSlice(line, start.Col-1)
	pad := runewidth.StringWidth(strings.ReplaceAll(prefix, "\t", "    "))

	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		width = runewidth.StringWidth(lineSlice(line, end.Col-1)) - runewidth.StringWidth(prefix)
	}
	if width < 1 {
		width = 1
	}
	marker := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "%s | %s%s\n", strings.Repeat(" ", len(gutter)), strings.Repeat(" ", pad), marker)
}

// lineSlice returns the first n runes of line.
func lineSlice(line string, n uint32) string {
	count := uint32(0)
	for i := range line {
		if count == n {
			return line[:i]
		}
		count++
	}
	return line
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return infoColor
	}
}
