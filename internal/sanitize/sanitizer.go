package sanitize

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// RedactionMarker replaces the entire value of an environment variable
// whose name matches the secret vocabulary. Name-based redaction is
// stricter than content scanning and always wins.
const RedactionMarker = "[REDACTED]"

// redactedSuffix terminates every content-based placeholder. Placeholders
// are built so no detector pattern can match them again, which is what
// makes sanitization idempotent.
const redactedSuffix = "…[redacted]"

// placeholderPrefixLen is how many leading characters of a matched secret
// survive into the placeholder, enough for a human to recognize which
// secret was caught without leaking it.
const placeholderPrefixLen = 4

// AnalysisContext is the raw material for both heuristic and provider
// analysis. It is mutated only by the Sanitizer, and never in place:
// sanitization always produces a new context.
type AnalysisContext struct {
	Command       string            `json:"command"`
	Args          []string          `json:"args"`
	Cwd           string            `json:"cwd"`
	ExitCode      int               `json:"exit_code"`
	Stdout        string            `json:"stdout"`
	Stderr        string            `json:"stderr"`
	Env           map[string]string `json:"env,omitempty"`
	PriorCommands []string          `json:"prior_commands,omitempty"`
}

// RedactionType tags which field a redaction was applied to.
type RedactionType string

const (
	RedactionEnv     RedactionType = "env"
	RedactionStdout  RedactionType = "stdout"
	RedactionStderr  RedactionType = "stderr"
	RedactionCommand RedactionType = "command"
)

// Redaction records one replacement so a human reviewer can audit what was
// removed before anything is transmitted externally.
type Redaction struct {
	Type        RedactionType `json:"type"`
	Pattern     string        `json:"pattern"`     // detector name that matched
	Replacement string        `json:"replacement"` // the placeholder that was inserted
}

// SanitizedContext pairs the original context with its sanitized form and
// the ordered list of redactions that were applied.
type SanitizedContext struct {
	Original   AnalysisContext `json:"original"`
	Sanitized  AnalysisContext `json:"sanitized"`
	Redactions []Redaction     `json:"redactions"`
}

// secretVocabulary matches env var names (and key=value keys) that are
// secret-bearing by convention, case-insensitive.
var secretVocabulary = regexp.MustCompile(`(?i)(password|passwd|secret|token|credential|api_?key|access_?key|private_?key|^key$|_key$|^key_)`)

// detector is one ordered redaction rule. Detectors run in declaration
// order; earlier detectors claim their matches before broader ones run.
type detector struct {
	name    string
	pattern *regexp.Regexp
	// keepKey preserves a leading "name=" through the replacement
	// (for key=value assignments the key itself is not secret).
	keepKey bool
}

// defaultDetectors is ordered from most specific to most general so a
// vendor-prefixed token is tagged by its vendor rule rather than falling
// through to the generic long-token rule.
var defaultDetectors = []detector{
	{
		name:    "pem_private_key",
		pattern: regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`),
	},
	{
		name:    "jwt",
		pattern: regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}`),
	},
	{
		name:    "github_token",
		pattern: regexp.MustCompile(`\b(?:ghp|gho|ghu|ghs|ghr)_[A-Za-z0-9]{20,}|\bgithub_pat_[A-Za-z0-9_]{20,}`),
	},
	{
		name:    "hosted_api_key",
		pattern: regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{16,}`),
	},
	{
		name:    "aws_access_key",
		pattern: regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	},
	{
		name:    "secret_assignment",
		pattern: regexp.MustCompile(`(?i)\b([A-Za-z0-9_]*(?:password|passwd|secret|token|credential|api_?key)[A-Za-z0-9_]*)=(\S+)`),
		keepKey: true,
	},
	{
		name:    "base64_blob",
		pattern: regexp.MustCompile(`\b[A-Za-z0-9+/]{40,}={0,2}`),
	},
	{
		name:    "long_opaque_token",
		pattern: regexp.MustCompile(`\b[A-Za-z0-9]{32,}\b`),
	},
}

// Sanitizer applies pattern-based redaction to anything leaving the local
// machine. It is a best-effort defense-in-depth layer, not a security
// boundary on its own.
type Sanitizer struct {
	detectors []detector
}

// New returns a Sanitizer with the default detector set.
func New() *Sanitizer {
	return &Sanitizer{detectors: defaultDetectors}
}

// Sanitize transforms an AnalysisContext into a SanitizedContext. The
// input is never modified; secrets in command arguments, stdout, stderr,
// prior commands, and the environment are replaced by non-reversible
// placeholders, each recorded as a redaction entry.
//
// Sanitize is idempotent: running it over an already-sanitized context
// produces no new redactions and leaves placeholders untouched.
func (s *Sanitizer) Sanitize(ctx AnalysisContext) *SanitizedContext {
	result := &SanitizedContext{
		Original:  ctx,
		Sanitized: ctx,
	}

	// Copy slices and maps so the sanitized context shares no mutable
	// state with the original.
	result.Sanitized.Args = make([]string, len(ctx.Args))
	copy(result.Sanitized.Args, ctx.Args)
	result.Sanitized.PriorCommands = make([]string, len(ctx.PriorCommands))
	copy(result.Sanitized.PriorCommands, ctx.PriorCommands)

	result.Sanitized.Command = s.scrubField(ctx.Command, RedactionCommand, &result.Redactions)
	for i, arg := range result.Sanitized.Args {
		result.Sanitized.Args[i] = s.scrubField(arg, RedactionCommand, &result.Redactions)
	}
	for i, prior := range result.Sanitized.PriorCommands {
		result.Sanitized.PriorCommands[i] = s.scrubField(prior, RedactionCommand, &result.Redactions)
	}
	result.Sanitized.Stdout = s.scrubField(ctx.Stdout, RedactionStdout, &result.Redactions)
	result.Sanitized.Stderr = s.scrubField(ctx.Stderr, RedactionStderr, &result.Redactions)
	result.Sanitized.Env = s.scrubEnv(ctx.Env, &result.Redactions)

	return result
}

// scrubEnv handles environment variables. A name matching the secret
// vocabulary redacts the entire value regardless of its shape; other
// values go through the normal content scan.
func (s *Sanitizer) scrubEnv(env map[string]string, redactions *[]Redaction) map[string]string {
	if env == nil {
		return nil
	}
	out := make(map[string]string, len(env))
	for name, value := range env {
		if secretVocabulary.MatchString(name) {
			out[name] = RedactionMarker
			// Re-sanitizing an already-marked value must not log again.
			if value != RedactionMarker {
				*redactions = append(*redactions, Redaction{
					Type:        RedactionEnv,
					Pattern:     "env_name",
					Replacement: RedactionMarker,
				})
			}
			continue
		}
		out[name] = s.scrubField(value, RedactionEnv, redactions)
	}
	return out
}

// scrubField runs the ordered detectors over one string. If a detector
// errors the whole field is conservatively replaced rather than passed
// through unredacted.
func (s *Sanitizer) scrubField(text string, fieldType RedactionType, redactions *[]Redaction) (scrubbed string) {
	defer func() {
		if r := recover(); r != nil {
			// Most conservative fallback: drop the whole field.
			fmt.Fprintf(os.Stderr, "sanitizer: detector failure on %s field, fully redacting: %v\n", fieldType, r)
			scrubbed = RedactionMarker
			*redactions = append(*redactions, Redaction{
				Type:        fieldType,
				Pattern:     "sanitization_failure",
				Replacement: RedactionMarker,
			})
		}
	}()

	scrubbed = text
	for _, d := range s.detectors {
		scrubbed = d.pattern.ReplaceAllStringFunc(scrubbed, func(match string) string {
			// Placeholders never re-match cleanly, but the key of a
			// key=value match can drag one back in. Skip anything that
			// is already a placeholder.
			if strings.Contains(match, redactedSuffix) || strings.Contains(match, RedactionMarker) {
				return match
			}

			replacement := placeholder(match)
			if d.keepKey {
				groups := d.pattern.FindStringSubmatch(match)
				if len(groups) == 3 {
					if strings.Contains(groups[2], redactedSuffix) || groups[2] == RedactionMarker {
						return match
					}
					replacement = groups[1] + "=" + placeholder(groups[2])
				}
			}

			*redactions = append(*redactions, Redaction{
				Type:        fieldType,
				Pattern:     d.name,
				Replacement: replacement,
			})
			return replacement
		})
	}
	return scrubbed
}

// placeholder keeps the first few characters of a match plus an ellipsis,
// never the full secret.
func placeholder(match string) string {
	prefix := match
	if len(prefix) > placeholderPrefixLen {
		prefix = prefix[:placeholderPrefixLen]
	}
	return prefix + redactedSuffix
}
