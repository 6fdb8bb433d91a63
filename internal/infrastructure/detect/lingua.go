package detect

import (
	"fmt"
	"strings"

	"github.com/pemistahl/lingua-go"

	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/ports"
)

// LinguaClassifier implements ports.LanguageClassifier on top of lingua-go.
type LinguaClassifier struct {
	detector lingua.LanguageDetector
}

var _ ports.LanguageClassifier = (*LinguaClassifier)(nil)

// NewLinguaClassifier builds a detector over the named languages
// (e.g. "english", "french"); an empty list loads every language lingua knows.
func NewLinguaClassifier(names []string) (*LinguaClassifier, error) {
	languages, err := resolveLanguages(names)
	if err != nil {
		return nil, err
	}

	builder := lingua.NewLanguageDetectorBuilder()
	var detector lingua.LanguageDetector
	if len(languages) == 0 {
		detector = builder.FromAllLanguages().Build()
	} else {
		detector = builder.FromLanguages(languages...).Build()
	}
	return &LinguaClassifier{detector: detector}, nil
}

// Classify returns the highest-confidence language, or domain.NoGuess when
// lingua has nothing to offer for the chunk.
func (c *LinguaClassifier) Classify(chunk string) domain.ClassificationResult {
	if c == nil || c.detector == nil {
		return domain.NoGuess
	}

	values := c.detector.ComputeLanguageConfidenceValues(chunk)
	if len(values) == 0 {
		return domain.NoGuess
	}

	top := values[0]
	if top.Value() <= 0 || top.Language() == lingua.Unknown {
		return domain.NoGuess
	}

	return domain.ClassificationResult{
		Language:   canonical(top.Language()),
		Confidence: top.Value(),
		OK:         true,
	}
}

func canonical(lang lingua.Language) string {
	return strings.ToLower(lang.String())
}

func resolveLanguages(names []string) ([]lingua.Language, error) {
	if len(names) == 0 {
		return nil, nil
	}

	known := make(map[string]lingua.Language)
	for _, lang := range lingua.AllLanguages() {
		known[canonical(lang)] = lang
	}

	out := make([]lingua.Language, 0, len(names))
	for _, name := range names {
		lang, ok := known[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown detection language %q", name)
		}
		out = append(out, lang)
	}
	if len(out) < 2 {
		return nil, fmt.Errorf("detection needs at least two languages, got %d", len(out))
	}
	return out, nil
}
