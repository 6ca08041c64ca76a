package attendance

import (
	"regexp"
	"strings"
)

var sessionIDRegex = regexp.MustCompile(`(?i)S\d+`)

// NormalizeSessionID cleans up a session identifier as students type (or
// paste) it: surrounding whitespace and angle brackets are stripped, and the
// first S-prefixed digit run found anywhere in the input wins, so "<S001>"
// or "join s001 now" both yield "S001". Inputs with no recognizable ID are
// uppercased as-is and left for the lookup to reject.
func NormalizeSessionID(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	if m := sessionIDRegex.FindString(s); m != "" {
		return strings.ToUpper(m)
	}
	return strings.ToUpper(s)
}
