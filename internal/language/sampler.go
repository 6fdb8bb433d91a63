package language

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"ArticleAugmenter/internal/domain"
)

var sentenceExpr = regexp.MustCompile(`[^.!?\n]+[.!?\n]*`)

// Sampler splits plain text into sentence-like chunks long enough to classify.
type Sampler struct {
	minLength int
}

// NewSampler builds a sampler; chunks with fewer than minLength runes after trimming are dropped.
func NewSampler(minLength int) Sampler {
	if minLength < 0 {
		minLength = 0
	}
	return Sampler{minLength: minLength}
}

// Split returns raw chunks in source order, terminators kept. Text without
// any boundary comes back as a single chunk.
func Split(text string) []string {
	chunks := sentenceExpr.FindAllString(text, -1)
	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

// Chunks returns the trimmed chunks eligible for classification.
func (s Sampler) Chunks(text string) []domain.TextChunk {
	var out []domain.TextChunk
	for _, raw := range Split(text) {
		trimmed := strings.TrimSpace(raw)
		if utf8.RuneCountInString(trimmed) < s.minLength {
			continue
		}
		out = append(out, domain.TextChunk{Text: trimmed})
	}
	return out
}
