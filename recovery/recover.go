// Package recovery turns free-form model output that is supposed to contain JSON into a
// structured tree.
//
// Model output regularly arrives wrapped in prose or code fences, written with Python-style
// single quotes, or cut off mid-object when a stream is truncated. [Recover] runs an ordered
// fallback chain that goes from the cheapest and most precise parse to the most permissive one:
//
//  1. strict JSON parse of the text as-is
//  2. strict parse of the text between the first "{" and the last "}", without code fences and
//     duplicated outer braces
//  3. strict parse after converting single-quoted strings to double-quoted strings
//  4. strict parse after closing unterminated strings, objects and arrays
//  5. permissive literal parse (YAML flow syntax, Python True/False/None)
//
// Well-formed input returns at stage 1. When every stage fails, the returned [*Error] carries
// the original text.
//
// [Draft] and [Critique] go one step further: they validate the recovered tree against a JSON
// Schema and decode it into the typed records of the refine package.
package recovery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rickchristie/refine/node"
)

// Stage identifies which step of the fallback chain produced a result.
type Stage int

const (
	StageNone Stage = iota
	StageStrict
	StageExtracted
	StageQuotes
	StageAutoClose
	StageLiteral
)

// String returns a short name for the stage, for logs.
func (s Stage) String() string {
	switch s {
	case StageStrict:
		return "strict"
	case StageExtracted:
		return "extracted"
	case StageQuotes:
		return "quotes"
	case StageAutoClose:
		return "auto-close"
	case StageLiteral:
		return "literal"
	default:
		return "none"
	}
}

// Error reports that no stage of the fallback chain could recover a record.
type Error struct {
	// Text is the original input, kept for diagnostics.
	Text string

	// Err is the reason the last attempt failed.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("recovery failed: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// errNoRecord is the failure reported when no stage produced an object or array.
var errNoRecord = errors.New("no structured record found in text")

// maxCommaCuts bounds how many trailing elements auto-closure may drop from a truncated record.
const maxCommaCuts = 16

// Recover parses text into a tree, trying each stage of the fallback chain in order. The result
// is always an object or an array.
func Recover(text string) (*node.Node, error) {
	n, _, err := RecoverStage(text)
	return n, err
}

// RecoverStage is like Recover and also reports which stage succeeded.
func RecoverStage(text string) (*node.Node, Stage, error) {
	// 1. As-is.
	if n, ok := parseRecord(text); ok {
		return n, StageStrict, nil
	}

	// 2. Brace extraction.
	candidate := extract(text)
	if n, ok := parseRecord(candidate); ok {
		return n, StageExtracted, nil
	}

	// 3. Quote conversion.
	hasSingle := strings.ContainsRune(candidate, '\'')
	if hasSingle {
		if n, ok := parseRecord(ConvertQuotes(candidate)); ok {
			return n, StageQuotes, nil
		}
	}

	// 4. Auto-closure. A truncated record has no final "}", so closure starts from the tail.
	tail := extractTail(text)
	attempts := []string{tail}
	if strings.ContainsRune(tail, '\'') {
		attempts = append(attempts, ConvertQuotes(tail))
	}
	if candidate != tail {
		attempts = append(attempts, candidate)
		if hasSingle {
			attempts = append(attempts, ConvertQuotes(candidate))
		}
	}
	for _, attempt := range attempts {
		for _, closed := range closureCandidates(attempt) {
			if n, ok := parseRecord(closed); ok {
				return n, StageAutoClose, nil
			}
		}
	}

	// 5. Literal expression.
	n, err := parseLiteral(candidate)
	if err == nil {
		return n, StageLiteral, nil
	}

	return nil, StageNone, &Error{Text: text, Err: err}
}

// parseRecord strictly parses s and accepts only objects and arrays.
func parseRecord(s string) (*node.Node, bool) {
	n, ok := node.Parse(s)
	if !ok || !n.IsContainer() {
		return nil, false
	}
	return n, true
}

// extract returns the text between the first "{" and the last "}" inclusive, without code
// fences and without duplicated outer braces.
func extract(text string) string {
	s := strings.TrimSpace(text)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	s = stripFences(s)
	for strings.HasPrefix(s, "{{") && strings.HasSuffix(s, "}}") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// extractTail returns the text from the first "{" to the end, without code fences.
func extractTail(text string) string {
	s := stripFences(text)
	if start := strings.IndexByte(s, '{'); start >= 0 {
		s = s[start:]
	}
	for strings.HasPrefix(s, "{{") {
		s = s[1:]
	}
	return strings.TrimSpace(s)
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
