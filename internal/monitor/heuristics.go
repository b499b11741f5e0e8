package monitor

import (
	"hash/fnv"
	"strings"
)

// paneState classifies a captured pane tail (spec.md §6: "Pane tail
// heuristics").
type paneState string

const (
	paneIdle           paneState = "idle"
	paneStreaming      paneState = "streaming"
	paneAwaitingInput  paneState = "awaiting_input"
	paneUnknown        paneState = "unknown"
)

// classifyPane applies the fixed substring heuristics from spec.md §6.
// awaiting_input is checked before streaming/idle since a pane can contain
// both a previous streaming indicator and a fresh input prompt.
func classifyPane(tail string) paneState {
	switch {
	case strings.Contains(tail, "↑↓ select"),
		strings.Contains(tail, "enter submit"),
		strings.Contains(tail, "esc dismiss"):
		return paneAwaitingInput
	case strings.Contains(tail, "⬝"),
		strings.Contains(tail, "esc interrupt"):
		return paneStreaming
	case strings.Contains(tail, "ctrl+p commands"):
		return paneIdle
	default:
		return paneUnknown
	}
}

func hashTail(tail string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tail))
	return h.Sum64()
}
