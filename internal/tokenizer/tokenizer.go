package tokenizer

import (
	"regexp"
	"strings"
)

// separatorRegex matches a run of spaces and tabs between words.
var separatorRegex = regexp.MustCompile(`[ \t]+`)

// SplitWords converts one physical input line into its words.
// Line terminators are stripped, any run of spaces or tabs counts as a single
// separator, and a blank line yields no words. Case and punctuation are kept:
// "notation," stays one word.
func SplitWords(line string) []string {
	// 1. Strip line terminators
	line = strings.TrimRight(line, "\r\n")

	// 2. Drop leading/trailing separators so they do not produce empty words
	line = strings.Trim(line, " \t")
	if line == "" {
		return make([]string, 0) // Return empty slice instead of nil
	}

	// 3. Split on separator runs
	return separatorRegex.Split(line, -1)
}

// JoinWords renders words the way the index prints them: single spaces.
func JoinWords(words []string) string {
	return strings.Join(words, " ")
}
