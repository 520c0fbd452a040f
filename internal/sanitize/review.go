package sanitize

import (
	"fmt"
	"sort"
	"strings"
)

// reviewPreviewLen caps how much of stdout/stderr the review rendering
// shows. Large outputs are truncated with an explicit marker.
const reviewPreviewLen = 500

// FormatForReview renders a SanitizedContext for human review before
// anything is sent to a provider. It is a pure projection of the sanitized
// context: it never re-introduces unredacted content.
func FormatForReview(sc *SanitizedContext) string {
	var b strings.Builder

	b.WriteString("=== Context Review ===\n")
	fmt.Fprintf(&b, "Command: %s", sc.Sanitized.Command)
	if len(sc.Sanitized.Args) > 0 {
		fmt.Fprintf(&b, " %s", strings.Join(sc.Sanitized.Args, " "))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Cwd:     %s\n", sc.Sanitized.Cwd)
	fmt.Fprintf(&b, "Exit:    %d\n", sc.Sanitized.ExitCode)

	if sc.Sanitized.Stdout != "" {
		fmt.Fprintf(&b, "\nStdout:\n%s\n", preview(sc.Sanitized.Stdout))
	}
	if sc.Sanitized.Stderr != "" {
		fmt.Fprintf(&b, "\nStderr:\n%s\n", preview(sc.Sanitized.Stderr))
	}

	if len(sc.Sanitized.Env) > 0 {
		b.WriteString("\nEnvironment:\n")
		names := make([]string, 0, len(sc.Sanitized.Env))
		for name := range sc.Sanitized.Env {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "  %s=%s\n", name, sc.Sanitized.Env[name])
		}
	}

	fmt.Fprintf(&b, "\nRedactions: %d", len(sc.Redactions))
	if len(sc.Redactions) > 0 {
		counts := make(map[RedactionType]int)
		for _, r := range sc.Redactions {
			counts[r.Type]++
		}
		var parts []string
		for _, rt := range []RedactionType{RedactionEnv, RedactionCommand, RedactionStdout, RedactionStderr} {
			if counts[rt] > 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", rt, counts[rt]))
			}
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")

	return b.String()
}

func preview(text string) string {
	if len(text) <= reviewPreviewLen {
		return text
	}
	return text[:reviewPreviewLen] + "... (truncated)"
}
