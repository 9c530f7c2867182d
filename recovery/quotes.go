package recovery

import (
	"strings"
	"unicode"
)

// ConvertQuotes rewrites single-quoted strings in s as double-quoted JSON strings.
//
// The lexer tracks whether it is inside a string, one character at a time:
//   - outside a string, a single quote opens a string and is written as a double quote
//   - inside a single-quoted string, an escaped single quote (\') is a literal quote
//   - inside a single-quoted string, a single quote followed by a letter is an apostrophe
//     ("Canada's") and stays as-is
//   - any other single quote closes the string
//   - a double quote inside a single-quoted string is escaped
//
// Double-quoted strings are copied unchanged, so text that mixes both styles keeps its
// apostrophes. Raw line breaks inside a converted string are escaped.
func ConvertQuotes(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 8)

	rs := []rune(s)
	inSingle, inDouble := false, false
	for i := 0; i < len(rs); i++ {
		c := rs[i]
		switch {
		case inDouble:
			sb.WriteRune(c)
			if c == '\\' && i+1 < len(rs) {
				i++
				sb.WriteRune(rs[i])
				continue
			}
			if c == '"' {
				inDouble = false
			}

		case inSingle:
			switch c {
			case '\\':
				if i+1 < len(rs) && rs[i+1] == '\'' {
					sb.WriteRune('\'')
					i++
					continue
				}
				sb.WriteRune(c)
				if i+1 < len(rs) {
					i++
					sb.WriteRune(rs[i])
				}
			case '\'':
				if i+1 < len(rs) && unicode.IsLetter(rs[i+1]) {
					sb.WriteRune('\'')
					continue
				}
				sb.WriteRune('"')
				inSingle = false
			case '"':
				sb.WriteString(`\"`)
			case '\n':
				sb.WriteString(`\n`)
			case '\r':
				sb.WriteString(`\r`)
			case '\t':
				sb.WriteString(`\t`)
			default:
				sb.WriteRune(c)
			}

		default:
			switch c {
			case '\'':
				sb.WriteRune('"')
				inSingle = true
			case '"':
				sb.WriteRune(c)
				inDouble = true
			default:
				sb.WriteRune(c)
			}
		}
	}
	return sb.String()
}
