// Package fasta handles the sequence records served by the per-target sequence endpoint.
package fasta

import (
	"errors"
	"regexp"
	"strings"
)

var ErrNotFasta = errors.New("sequence response does not start with a '>' header")

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize trims the endpoint response and, when the whole record came back on one line
// as `header|sequence`, splits it into a header line and a sequence line with all
// whitespace removed from the sequence. The result always ends with a single newline.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "\n") && strings.Contains(text, "|") {
		header, sequence, _ := strings.Cut(text, "|")
		text = strings.TrimSpace(header) + "\n" + whitespaceRegex.ReplaceAllString(sequence, "")
	}
	return text + "\n"
}

// Check returns ErrNotFasta unless `text` starts with a '>' header.
func Check(text string) error {
	if !strings.HasPrefix(text, ">") {
		return ErrNotFasta
	}
	return nil
}
