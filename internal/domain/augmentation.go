package domain

import (
	"encoding/json"
	"strconv"
)

// TextChunk is a sentence-scale slice of plain text, terminator included.
type TextChunk struct {
	Text string
}

// ClassificationResult is a top-1 language guess. OK is false when the
// detector produced no guess at all.
type ClassificationResult struct {
	Language   string
	Confidence float64
	OK         bool
}

// NoGuess is the ClassificationResult for an inconclusive chunk.
var NoGuess = ClassificationResult{}

// MismatchVerdict aggregates chunk classifications for one article load.
type MismatchVerdict struct {
	CheckedCount   int
	NonTargetCount int
	Ratio          float64
	Triggered      bool
}

// IndexEntry pairs an element ordinal with its source text.
type IndexEntry struct {
	Ordinal int
	Text    string
}

// TranslationIndex lists translatable elements by their position in the selection.
type TranslationIndex []IndexEntry

// Payload converts the index into the ordinal-keyed request body.
func (idx TranslationIndex) Payload() map[string]string {
	out := make(map[string]string, len(idx))
	for _, entry := range idx {
		out[strconv.Itoa(entry.Ordinal)] = entry.Text
	}
	return out
}

// JSON serializes the request body sent to the remote translator.
func (idx TranslationIndex) JSON() (string, error) {
	raw, err := json.Marshal(idx.Payload())
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// TranslationMap maps ordinal strings to translated text.
type TranslationMap map[string]string

// Clone copies the map so callers cannot alias session state.
func (m TranslationMap) Clone() TranslationMap {
	if m == nil {
		return nil
	}
	out := make(TranslationMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SummaryPhase enumerates the summary lifecycle seen by the surface.
type SummaryPhase int

const (
	SummaryAbsent SummaryPhase = iota
	SummaryLoading
	SummaryReady
)

func (p SummaryPhase) String() string {
	switch p {
	case SummaryLoading:
		return "loading"
	case SummaryReady:
		return "ready"
	default:
		return "absent"
	}
}

// SummaryState is the per-session summary. Text is set only when Ready.
type SummaryState struct {
	Phase SummaryPhase
	Text  string
}
