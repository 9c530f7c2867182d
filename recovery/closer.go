package recovery

import (
	"strings"
	"unicode"
)

// scan holds what a single pass over possibly truncated JSON text learned.
type scan struct {
	// closers are the closing characters owed, innermost last.
	closers []byte

	// inString reports whether the text ends inside a string.
	inString bool

	// danglingEscape reports whether the text ends right after a backslash inside a string.
	danglingEscape bool

	// commas are the offsets of commas outside strings, in order.
	commas []int
}

func scanJSON(s string) scan {
	var sc scan
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if sc.inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				sc.inString = false
			}
			continue
		}
		switch c {
		case '"':
			sc.inString = true
		case '{':
			sc.closers = append(sc.closers, '}')
		case '[':
			sc.closers = append(sc.closers, ']')
		case '}', ']':
			if n := len(sc.closers); n > 0 && sc.closers[n-1] == c {
				sc.closers = sc.closers[:n-1]
			}
		case ',':
			sc.commas = append(sc.commas, i)
		}
	}
	sc.danglingEscape = sc.inString && escaped
	return sc
}

// AutoClose completes truncated JSON text: it terminates an open string, drops a dangling ","
// or completes a dangling ":" with null, then appends the closing character of every unmatched
// "{" and "[" in nesting order.
func AutoClose(s string) string {
	sc := scanJSON(s)

	out := s
	if sc.inString {
		if sc.danglingEscape {
			out = out[:len(out)-1]
		}
		out += `"`
	}
	out = strings.TrimRightFunc(out, unicode.IsSpace)
	out = strings.TrimSuffix(out, ",")
	if strings.HasSuffix(out, ":") {
		out += "null"
	}

	var sb strings.Builder
	sb.Grow(len(out) + len(sc.closers))
	sb.WriteString(out)
	for i := len(sc.closers) - 1; i >= 0; i-- {
		sb.WriteByte(sc.closers[i])
	}
	return sb.String()
}

// closureCandidates returns AutoClose(s) followed by auto-closed prefixes of s cut at its last
// commas outside strings, most complete first. Cutting recovers records whose truncation left a
// half-written key or value that closing alone cannot repair.
func closureCandidates(s string) []string {
	sc := scanJSON(s)
	if len(sc.closers) == 0 && !sc.inString {
		return nil
	}

	out := []string{AutoClose(s)}
	for i := len(sc.commas) - 1; i >= 0 && len(out) <= maxCommaCuts; i-- {
		out = append(out, AutoClose(s[:sc.commas[i]]))
	}
	return out
}
