package normalizer

import (
	"regexp"
	"strings"
)

// Mode selects how program output is canonicalized before comparison.
type Mode string

const (
	// ModeExact strips known runtime noise and surrounding whitespace only.
	ModeExact Mode = "exact"
	// ModeNumeric keeps nothing but digits and minus signs. Graders accept
	// verbose stdout as long as the embedded numbers match the expected
	// answer; this mode enforces that policy.
	ModeNumeric Mode = "numeric"
)

// jvmBanner matches the one-line class-loader banner some JVMs emit when
// JAVA_TOOL_OPTIONS is set, e.g. "Picked up _JAVA_OPTIONS: -Xmx64m".
var jvmBanner = regexp.MustCompile(`(?m)^Picked up .*\n?`)

var nonNumeric = regexp.MustCompile(`[^0-9-]`)

// Normalize canonicalizes raw program stdout. Pure; always returns a string,
// possibly empty.
func Normalize(raw, language string, mode Mode) string {
	out := raw
	out = strings.ReplaceAll(out, "\r\n", "\n")

	if language == "java" {
		out = jvmBanner.ReplaceAllString(out, "")
	}

	if mode == ModeNumeric {
		return strings.TrimSpace(nonNumeric.ReplaceAllString(out, ""))
	}

	return strings.TrimSpace(out)
}
