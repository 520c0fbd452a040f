package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/runebook/ambient/internal/events"
	"github.com/runebook/ambient/internal/provider"
	"github.com/runebook/ambient/internal/sanitize"
	"github.com/runebook/ambient/internal/storage"
	"github.com/runebook/ambient/internal/types"
)

// stderrSnippetLen caps how much error output one summary carries.
const stderrSnippetLen = 500

// priorCommandLimit caps how much session history one analysis carries.
const priorCommandLimit = 20

// sessionHistoryEvents bounds the event read backing the history.
const sessionHistoryEvents = 200

// cacheSize bounds the provider response cache.
const cacheSize = 128

// StatusPublisher receives the pipeline's state after each run. The
// file-based status surface implements it; tests substitute their own.
// PublishState updates the state alone, leaving the previous suggestion
// batch visible while a new analysis is in flight.
type StatusPublisher interface {
	Publish(state types.AgentState, suggestions []*types.Suggestion) error
	PublishState(state types.AgentState) error
}

// Config wires an Analyzer.
type Config struct {
	Store    storage.Storage
	Provider provider.Provider // nil means heuristics only
	Safety   provider.SafetyConfig
	Timeout  time.Duration // per provider call; zero uses 30s

	// ReviewGranted records that the operator has acknowledged what a
	// sanitized context looks like. While Safety.RequireReview is set
	// and this is false, the provider pass is skipped.
	ReviewGranted bool

	Heuristics []Heuristic     // nil uses DefaultHeuristics
	Publisher  StatusPublisher // nil disables status publishing
}

// cachedResult is one remembered provider answer. The provenance keeps
// the timestamp of the run that produced it, not the cache hit.
type cachedResult struct {
	suggestions []*types.Suggestion
	provenance  provider.Provenance
}

// Analyzer runs the two-pass analysis pipeline over stored command
// records.
type Analyzer struct {
	store      storage.Storage
	provider   provider.Provider
	safety     provider.SafetyConfig
	timeout    time.Duration
	reviewed   bool
	heuristics []Heuristic
	publisher  StatusPublisher
	sanitizer  *sanitize.Sanitizer

	group singleflight.Group
	cache *expirable.LRU[string, cachedResult]

	mu             sync.Mutex
	lastProvenance *provider.Provenance
}

// LastProvenance reports where the most recent provider pass came from,
// or nil when every run so far was heuristics only. A cache hit keeps
// the provenance of the run that produced it.
func (a *Analyzer) LastProvenance() *provider.Provenance {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastProvenance
}

// New creates an Analyzer.
func New(cfg Config) (*Analyzer, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	heuristics := cfg.Heuristics
	if heuristics == nil {
		heuristics = DefaultHeuristics()
	}

	a := &Analyzer{
		store:      cfg.Store,
		provider:   cfg.Provider,
		safety:     cfg.Safety,
		timeout:    timeout,
		reviewed:   cfg.ReviewGranted,
		heuristics: heuristics,
		publisher:  cfg.Publisher,
		sanitizer:  sanitize.New(),
	}
	if cfg.Safety.CacheEnabled {
		a.cache = expirable.NewLRU[string, cachedResult](cacheSize, nil, cfg.Safety.CacheTTL)
	}
	return a, nil
}

// AnalyzeCommand runs the pipeline for one stored command and persists
// the ranked batch. Concurrent calls for the same command collapse into
// a single run; all callers receive that run's result. A nil slice with
// a nil error means the command did not fail.
func (a *Analyzer) AnalyzeCommand(ctx context.Context, commandID string) ([]*types.Suggestion, error) {
	result, err, _ := a.group.Do(commandID, func() (interface{}, error) {
		return a.analyzeOnce(ctx, commandID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*types.Suggestion), nil
}

func (a *Analyzer) analyzeOnce(ctx context.Context, commandID string) ([]*types.Suggestion, error) {
	summary, err := BuildSummary(ctx, a.store, commandID)
	if err != nil {
		return nil, err
	}
	if summary == nil || summary.ExitCode == 0 {
		// Nothing to analyze. Publish idle so the surface never shows
		// stale counts for a command that succeeded.
		a.publish(types.StateIdle, nil)
		return nil, nil
	}

	a.publishState(types.StateAnalyzing)

	sanitized := a.sanitizer.Sanitize(sanitize.AnalysisContext{
		Command:       summary.Command,
		Args:          summary.Args,
		Cwd:           summary.Cwd,
		ExitCode:      summary.ExitCode,
		Stdout:        summary.Stdout,
		Stderr:        summary.Stderr,
		Env:           summary.Env,
		PriorCommands: a.priorCommands(ctx, summary.SessionID, commandID),
	})

	// Heuristics see the sanitized view too. They run locally, but
	// their output lands in world-readable suggestion files.
	sanitizedSummary := *summary
	sanitizedSummary.Command = sanitized.Sanitized.Command
	sanitizedSummary.Args = sanitized.Sanitized.Args
	sanitizedSummary.Stderr = sanitized.Sanitized.Stderr
	sanitizedSummary.Stdout = sanitized.Sanitized.Stdout
	sanitizedSummary.Env = sanitized.Sanitized.Env

	merged := runHeuristics(a.heuristics, sanitizedSummary)

	providerSuggestions, provenance := a.providerPass(ctx, commandID, sanitizedSummary, sanitized)
	merged = append(merged, providerSuggestions...)
	if provenance != nil {
		a.mu.Lock()
		a.lastProvenance = provenance
		a.mu.Unlock()
	}

	for _, s := range merged {
		s.CommandID = commandID
	}

	ranked := rank(dedupe(merged))

	if err := a.store.SaveSuggestions(ctx, commandID, ranked); err != nil {
		// Losing persistence must not lose the analysis itself.
		fmt.Fprintf(os.Stderr, "Warning: failed to persist suggestions for %s: %v\n", commandID, err)
	}

	if len(ranked) > 0 {
		a.publish(types.StateIssuesFound, ranked)
	} else {
		a.publish(types.StateIdle, nil)
	}
	return ranked, nil
}

// providerPass runs the optional second pass. Every failure path
// degrades to heuristics only; it never returns an error.
func (a *Analyzer) providerPass(ctx context.Context, commandID string, summary types.ErrorSummary, sanitized *sanitize.SanitizedContext) ([]*types.Suggestion, *provider.Provenance) {
	if a.provider == nil {
		return nil, nil
	}
	if a.safety.RequireReview && !a.reviewed {
		return nil, nil
	}
	if !a.provider.IsAvailable(ctx) {
		fmt.Fprintf(os.Stderr, "Warning: provider %s unavailable, using heuristics only\n", a.provider.Name())
		return nil, nil
	}

	key := a.fingerprint(sanitized)
	if a.cache != nil {
		if hit, ok := a.cache.Get(key); ok {
			// Provenance keeps the original run's timestamp so a cache
			// hit is distinguishable from a fresh answer. The batch is
			// copied with fresh ids so it can be persisted for this
			// command without colliding with the batch that seeded it.
			reused := cloneBatch(hit.suggestions)
			for _, s := range reused {
				s.ID = uuid.New().String()
			}
			return reused, &hit.provenance
		}
	}

	var prior []*types.Suggestion
	if p, err := a.store.GetSuggestions(ctx, commandID); err == nil {
		prior = p
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result, err := a.provider.Analyze(callCtx, &provider.Request{
		CommandID:        commandID,
		Summary:          summary,
		Sanitized:        sanitized,
		RepoMetadata:     repoMetadata(summary.Cwd),
		PriorSuggestions: prior,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: provider %s failed, using heuristics only: %v\n", a.provider.Name(), err)
		return nil, nil
	}

	if a.cache != nil {
		// The cache holds its own copies so later CommandID stamping on
		// the returned batch cannot reach the cached structs.
		a.cache.Add(key, cachedResult{suggestions: cloneBatch(result.Suggestions), provenance: result.Provenance})
	}
	return result.Suggestions, &result.Provenance
}

// cloneBatch copies every suggestion in a batch. Suggestion fields are
// all scalars, so a struct copy is a full copy.
func cloneBatch(batch []*types.Suggestion) []*types.Suggestion {
	out := make([]*types.Suggestion, len(batch))
	for i, s := range batch {
		c := *s
		out[i] = &c
	}
	return out
}

// priorCommands lists the command lines that ran earlier in the same
// session, oldest first, excluding the command under analysis.
func (a *Analyzer) priorCommands(ctx context.Context, sessionID, commandID string) []string {
	if sessionID == "" {
		return nil
	}
	record, err := a.store.GetEventsBySession(ctx, sessionID, sessionHistoryEvents)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load session history: %v\n", err)
		return nil
	}

	var lines []string
	for _, ev := range record {
		if ev.Type != events.EventTypeCommandStart || ev.CommandID == commandID {
			continue
		}
		data, err := ev.GetCommandStartData()
		if err != nil {
			continue
		}
		line := data.Command
		if len(data.Args) > 0 {
			line += " " + strings.Join(data.Args, " ")
		}
		lines = append(lines, line)
	}
	if len(lines) > priorCommandLimit {
		lines = lines[len(lines)-priorCommandLimit:]
	}
	return lines
}

// repoMetadata collects lightweight repository facts from the command's
// working directory. File reads only, no subprocesses; a directory
// outside any repository yields nil.
func repoMetadata(cwd string) map[string]string {
	dir := cwd
	for dir != "" {
		head, err := os.ReadFile(filepath.Join(dir, ".git", "HEAD"))
		if err == nil {
			meta := map[string]string{"repo_root": dir}
			if branch, ok := strings.CutPrefix(strings.TrimSpace(string(head)), "ref: refs/heads/"); ok {
				meta["git_branch"] = branch
			}
			return meta
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil
}

// fingerprint keys the response cache on the sanitized input after
// truncation, so two failures that transmit identical bytes share one
// provider answer.
func (a *Analyzer) fingerprint(sanitized *sanitize.SanitizedContext) string {
	san := sanitized.Sanitized
	stderr := san.Stderr
	if max := a.safety.MaxContextLength; max > 0 && len(stderr) > max {
		stderr = stderr[:max]
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%s",
		san.Command, strings.Join(san.Args, "\x1f"), san.ExitCode, stderr)
	return hex.EncodeToString(h.Sum(nil))
}

// BuildSummary reconstructs one command's failure summary from its
// stored events. Returns nil when the command has no exit record yet.
func BuildSummary(ctx context.Context, store storage.Storage, commandID string) (*types.ErrorSummary, error) {
	record, err := store.GetEventsByCommand(ctx, commandID)
	if err != nil {
		return nil, fmt.Errorf("failed to load command record: %w", err)
	}
	if len(record) == 0 {
		return nil, nil
	}

	if gaps := events.DetectChunkGaps(record); len(gaps) > 0 {
		for _, gap := range gaps {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", gap.String())
		}
	}

	summary := &types.ErrorSummary{ExitCode: -1, SessionID: record[0].SessionID}
	var stdout, stderr strings.Builder

	for _, ev := range record {
		switch ev.Type {
		case events.EventTypeCommandStart:
			data, err := ev.GetCommandStartData()
			if err != nil {
				continue
			}
			summary.Command = data.Command
			summary.Args = data.Args
			summary.Cwd = data.Cwd
			summary.Env = data.Env
			summary.Timestamp = ev.Time()
		case events.EventTypeStdoutChunk:
			if data, err := ev.GetOutputChunkData(); err == nil {
				stdout.WriteString(data.Chunk)
			}
		case events.EventTypeStderrChunk:
			if data, err := ev.GetOutputChunkData(); err == nil {
				stderr.WriteString(data.Chunk)
			}
		case events.EventTypeExitStatus:
			if data, err := ev.GetExitStatusData(); err == nil {
				summary.ExitCode = data.ExitCode
			}
		}
	}

	if summary.Command == "" || summary.ExitCode < 0 {
		return nil, nil
	}

	summary.Stdout = snippet(stdout.String())
	summary.Stderr = snippet(stderr.String())
	return summary, nil
}

// snippet keeps the tail of output, where the actionable error usually
// is.
func snippet(s string) string {
	if len(s) <= stderrSnippetLen {
		return s
	}
	return s[len(s)-stderrSnippetLen:]
}

func (a *Analyzer) publish(state types.AgentState, suggestions []*types.Suggestion) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Publish(state, suggestions); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to publish status: %v\n", err)
	}
}

func (a *Analyzer) publishState(state types.AgentState) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.PublishState(state); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to publish status: %v\n", err)
	}
}
