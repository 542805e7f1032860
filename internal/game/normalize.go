package game

import (
	"strings"
	"unicode/utf8"
)

const maxAnswerLen = 48

// NormalizeText trims leading/trailing whitespace, collapses internal runs of
// whitespace to a single space, and truncates to 48 characters. It is the
// single normalisation routine shared by draft updates, submissions and
// SHARED_10 key building so that scoring stays consistent with what players
// typed.
func NormalizeText(s string) string {
	fields := strings.Fields(s)
	out := strings.Join(fields, " ")
	if utf8.RuneCountInString(out) > maxAnswerLen {
		runes := []rune(out)
		out = string(runes[:maxAnswerLen])
	}
	return out
}

// NormalizeName applies the same trimming and collapsing as NormalizeText
// without the answer-length cap; name length is validated separately.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// nameKey is the case-insensitive uniqueness key for participant names.
func nameKey(name string) string {
	return strings.ToLower(NormalizeName(name))
}

// answerKey builds the SHARED_10 grouping key for a normalised answer.
func answerKey(answer string) string {
	return strings.ToLower(NormalizeText(answer))
}
