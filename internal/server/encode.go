package server

import (
	"strconv"
	"strings"

	"github.com/rickchristie/refine"
	"github.com/tidwall/sjson"
)

var lineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// EncodeLine renders ev as "<source>\t<round>\t<payload>" without a trailing newline. The
// payload's backslashes, newlines, carriage returns and tabs are escaped, so every event
// occupies exactly one line.
func EncodeLine(ev refine.StreamEvent) string {
	return string(ev.Source) + "\t" + strconv.Itoa(ev.Round) + "\t" + lineEscaper.Replace(ev.Payload)
}

var lineUnescaper = strings.NewReplacer(
	`\\`, `\`,
	`\n`, "\n",
	`\r`, "\r",
	`\t`, "\t",
)

// DecodeLine parses a line written by EncodeLine.
func DecodeLine(line string) (refine.StreamEvent, bool) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) != 3 {
		return refine.StreamEvent{}, false
	}
	round, err := strconv.Atoi(parts[1])
	if err != nil {
		return refine.StreamEvent{}, false
	}
	return refine.StreamEvent{
		Source:  refine.Source(parts[0]),
		Round:   round,
		Payload: lineUnescaper.Replace(parts[2]),
	}, true
}

// SSEPayload renders ev as the JSON object carried by one SSE data frame:
// {"agent":<source>,"token":<payload>,"round":<round>}.
func SSEPayload(ev refine.StreamEvent) (string, error) {
	out, err := sjson.Set(`{}`, "agent", string(ev.Source))
	if err != nil {
		return "", err
	}
	if out, err = sjson.Set(out, "token", ev.Payload); err != nil {
		return "", err
	}
	return sjson.Set(out, "round", ev.Round)
}
