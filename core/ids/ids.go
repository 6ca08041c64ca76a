// Package ids allocates the human-readable identifiers stamped on sessions,
// leave requests and warnings (S001, R012, W003...). IDs only ever grow; gaps
// left by deleted records are never refilled.
package ids

import (
	"fmt"
	"strconv"
	"strings"
)

// Allocator exposes the highest existing ID for a prefix. Implementations
// must serialize Next calls per prefix (a transaction or a lock) so two
// writers cannot observe the same high-water mark.
type Allocator interface {
	// LastID returns the identifier with the given prefix that sorts highest
	// under descending string order, or "" when none exists.
	LastID(prefix string) (string, error)
}

// Next returns the next identifier of the form <prefix><zero-padded number>.
// A malformed numeric suffix on the last ID counts as 0.
func Next(alloc Allocator, prefix string, width int) (string, error) {
	last, err := alloc.LastID(prefix)
	if err != nil {
		return "", err
	}
	return Increment(last, prefix, width), nil
}

// Increment computes the successor of `last` within the prefix's ID space.
// An empty `last` yields the first ID (e.g. "S001" for width 3).
func Increment(last, prefix string, width int) string {
	var num int
	if last != "" {
		suffix := strings.TrimPrefix(last, prefix)
		if n, err := strconv.Atoi(suffix); err == nil {
			num = n
		}
	}
	return fmt.Sprintf("%s%0*d", prefix, width, num+1)
}
