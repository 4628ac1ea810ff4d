package sanitizer

import (
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func trimAndLower(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return s
}

// dropControl removes control characters other than line breaks and tabs.
func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeID trims and lowercases an identifier. Hex object ids are always
// lowercase when stored.
func SanitizeID(input string) string {
	return trimAndLower(input)
}

// SanitizeNotes normalizes multi-line free text: each line is trimmed with
// inner whitespace collapsed, and blank lines are dropped.
func SanitizeNotes(input string) string {
	p := Pipeline{
		func(s string) string { return strings.ReplaceAll(s, "\r\n", "\n") },
		dropControl,
		normalizeLines,
	}
	return p.Apply(input)
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = TrimAndNormalize(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// AppendLine adds line to notes on its own line. An empty line leaves notes
// untouched.
func AppendLine(notes, line string) string {
	line = TrimAndNormalize(dropControl(line))
	if line == "" {
		return notes
	}
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}
