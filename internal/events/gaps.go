package events

import (
	"fmt"
	"sort"
)

// CaptureGap describes a hole in the chunk sequence for one
// (command, stream) pair. Gaps mean lost capture data: they are reported
// to the operator and analysis proceeds on partial data, but chunks are
// never resequenced to paper over them.
type CaptureGap struct {
	CommandID string
	Stream    Stream
	// Missing lists the chunk indexes that never arrived
	Missing []int
}

func (g CaptureGap) String() string {
	return fmt.Sprintf("capture gap: command=%s stream=%s missing chunks %v", g.CommandID, g.Stream, g.Missing)
}

// DetectChunkGaps scans a set of events for missing chunk indexes.
// The chunkIndex contract is strict per-(command, stream) monotonicity
// starting at zero, so any absent index below the observed maximum is a
// gap. Duplicate indexes are ignored; ordering of the input is irrelevant.
func DetectChunkGaps(evts []*TerminalEvent) []CaptureGap {
	type streamKey struct {
		commandID string
		stream    Stream
	}

	seen := make(map[streamKey]map[int]bool)
	for _, e := range evts {
		stream, ok := StreamForType(e.Type)
		if !ok {
			continue
		}
		data, err := e.GetOutputChunkData()
		if err != nil {
			continue
		}
		key := streamKey{commandID: e.CommandID, stream: stream}
		if seen[key] == nil {
			seen[key] = make(map[int]bool)
		}
		seen[key][data.ChunkIndex] = true
	}

	var gaps []CaptureGap
	for key, indexes := range seen {
		max := -1
		for idx := range indexes {
			if idx > max {
				max = idx
			}
		}
		var missing []int
		for i := 0; i <= max; i++ {
			if !indexes[i] {
				missing = append(missing, i)
			}
		}
		if len(missing) > 0 {
			gaps = append(gaps, CaptureGap{
				CommandID: key.commandID,
				Stream:    key.stream,
				Missing:   missing,
			})
		}
	}

	// Deterministic report order for logs and tests.
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].CommandID != gaps[j].CommandID {
			return gaps[i].CommandID < gaps[j].CommandID
		}
		return gaps[i].Stream < gaps[j].Stream
	})

	return gaps
}

// SortChunks orders chunk events by chunk index in place. Non-chunk events
// keep their relative position at the end. Used by the store to reconstruct
// a command's output even when chunks arrived out of order.
func SortChunks(evts []*TerminalEvent) {
	index := func(e *TerminalEvent) int {
		if _, ok := StreamForType(e.Type); !ok {
			return int(^uint(0) >> 1) // non-chunks sort last
		}
		data, err := e.GetOutputChunkData()
		if err != nil {
			return int(^uint(0) >> 1)
		}
		return data.ChunkIndex
	}
	sort.SliceStable(evts, func(i, j int) bool {
		return index(evts[i]) < index(evts[j])
	})
}
