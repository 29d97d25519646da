// Package validate decides whether user-supplied shortcut data is acceptable
// for rendering and persistence. Checks deliberately overlap: length limits,
// a dangerous-pattern detector, a looks-like-a-query heuristic, and a
// SQL-shaped filter each cover gaps in the others. The detector is pattern
// based, not a parser, and prefers over-rejection to precision.
package validate

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"mailpanel/shortcut"
)

// Field limits, counted in runes after trimming.
const (
	MaxNameLength  = 100
	MaxQueryLength = 500
)

var (
	// ErrEmpty means the value is empty after trimming.
	ErrEmpty = errors.New("empty")
	// ErrPattern means a dangerous or SQL-shaped pattern matched. The matched
	// pattern is never included; callers must not echo input back.
	ErrPattern = errors.New("invalid pattern")
	// ErrNoContent means the query carries neither an operator nor text.
	ErrNoContent = errors.New("no operator or text")
	// ErrTooLong means the value exceeds its field's rune limit.
	ErrTooLong = errors.New("too long")
)

// Fixed substrings matched case-insensitively anywhere in the value.
var dangerousSubstrings = []string{
	"<script",
	"<iframe",
	"<embed",
	"<object",
	"javascript:",
	"data:",
	"vbscript:",
	"eval(",
	"expression(",
}

// SQL-shaped substrings. Defense in depth only: no SQL backend reads the
// query, but the string is free text that downstream tooling may consume.
var sqlSubstrings = []string{
	"union select",
	"drop table",
	"insert into",
	"delete from",
	"--",
}

var (
	dangerousAC = buildMatcher(dangerousSubstrings)
	sqlAC       = buildMatcher(sqlSubstrings)

	// Attribute-style event handler (onclick=, onload = ...) and an image tag
	// carrying a src attribute. These need shape, not just a substring.
	eventHandlerRe = regexp.MustCompile(`(?i)\bon\w+\s*=`)
	imgSrcRe       = regexp.MustCompile(`(?i)<img[^>]*src`)

	// UPDATE <table> SET and a statement break followed by a drop.
	sqlUpdateRe = regexp.MustCompile(`(?i)\bupdate\s+\S+\s+set\b`)
	sqlDropRe   = regexp.MustCompile(`(?i);.*drop`)
)

// Operator vocabulary for the looks-like-a-query heuristic. Matching is by
// substring, so compound forms (has:attachment, in:sent) pass through their
// base operator.
var queryOperators = []string{
	"from:", "to:", "subject:", "label:", "has:", "is:", "in:",
	"cc:", "bcc:", "after:", "before:", "older:", "newer:",
	"category:", "size:", "larger:", "smaller:", "filename:",
}

func buildMatcher(patterns []string) ahocorasick.AhoCorasick {
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchKind:            ahocorasick.StandardMatch,
		DFA:                  true,
	})
	return builder.Build(patterns)
}

func matches(ac ahocorasick.AhoCorasick, s string) bool {
	iter := ac.Iter(s)
	return iter.Next() != nil
}

// Length reports whether the value is non-empty after trimming and no longer
// than max runes. It never panics, whatever the input.
func Length(value string, max int) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	return len([]rune(trimmed)) <= max
}

// Dangerous reports whether the raw string matches any markup, script,
// URI-scheme, or event-handler pattern. Case-insensitive, conservative.
func Dangerous(value string) bool {
	if matches(dangerousAC, value) {
		return true
	}
	return eventHandlerRe.MatchString(value) || imgSrcRe.MatchString(value)
}

// sqlShaped reports whether the string resembles a SQL injection attempt.
func sqlShaped(value string) bool {
	if matches(sqlAC, value) {
		return true
	}
	return sqlUpdateRe.MatchString(value) || sqlDropRe.MatchString(value)
}

// Query checks a search expression. It returns nil when the query is
// acceptable, or one of ErrEmpty, ErrPattern, ErrNoContent.
func Query(q string) error {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return ErrEmpty
	}
	if Dangerous(trimmed) {
		return ErrPattern
	}

	lower := strings.ToLower(trimmed)
	hasOperator := false
	for _, op := range queryOperators {
		if strings.Contains(lower, op) {
			hasOperator = true
			break
		}
	}
	if !hasOperator && !containsAlnum(trimmed) {
		return ErrNoContent
	}

	if sqlShaped(lower) {
		return ErrPattern
	}
	return nil
}

// Name checks a shortcut label.
func Name(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmpty
	}
	if !Length(name, MaxNameLength) {
		return ErrTooLong
	}
	if Dangerous(name) {
		return ErrPattern
	}
	return nil
}

func containsAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// Record reports whether a record is fully valid. There is no partially
// valid state: a record failing any check is rejected whole.
func Record(r shortcut.Record) bool {
	if !Length(r.Name, MaxNameLength) || Dangerous(r.Name) {
		return false
	}
	if !Length(r.Query, MaxQueryLength) {
		return false
	}
	return Query(r.Query) == nil
}

// Collection reports whether a whole collection is acceptable for storage:
// between 1 and MaxRecords elements, every one independently valid. A single
// bad element invalidates the collection; callers fall back to defaults
// rather than repairing.
func Collection(c []shortcut.Record) bool {
	if len(c) == 0 || len(c) > shortcut.MaxRecords {
		return false
	}
	for _, r := range c {
		if !Record(r) {
			return false
		}
	}
	return true
}
