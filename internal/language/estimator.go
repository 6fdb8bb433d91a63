package language

import (
	"context"
	"log/slog"

	"ArticleAugmenter/internal/config"
	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/logging"
	"ArticleAugmenter/internal/ports"
)

// Estimator turns per-chunk guesses into a translation verdict.
type Estimator struct {
	confidenceCutoff float64
	ratioThreshold   float64
}

// NewEstimator reads the cutoff and ratio threshold from detection config.
func NewEstimator(cfg config.DetectionConfig) Estimator {
	return Estimator{
		confidenceCutoff: cfg.ConfidenceCutoff,
		ratioThreshold:   cfg.RatioThreshold,
	}
}

// NonTarget reports whether a single result counts against the target.
// A missing guess always does; a guess counts only when it names another
// language with confidence above the cutoff.
func (e Estimator) NonTarget(result domain.ClassificationResult, target string) bool {
	if !result.OK {
		return true
	}
	return result.Language != target && result.Confidence > e.confidenceCutoff
}

// Estimate aggregates results already filtered by the sampler.
func (e Estimator) Estimate(results []domain.ClassificationResult, target string) domain.MismatchVerdict {
	verdict := domain.MismatchVerdict{CheckedCount: len(results)}
	for _, result := range results {
		if e.NonTarget(result, target) {
			verdict.NonTargetCount++
		}
	}
	if verdict.CheckedCount > 0 {
		verdict.Ratio = float64(verdict.NonTargetCount) / float64(verdict.CheckedCount)
	}
	verdict.Triggered = verdict.Ratio > e.ratioThreshold
	return verdict
}

// Detector runs sampling, classification and estimation over one text.
type Detector struct {
	sampler    Sampler
	classifier ports.LanguageClassifier
	estimator  Estimator
	logger     *slog.Logger
}

// NewDetector wires the mismatch pipeline.
func NewDetector(cfg config.DetectionConfig, classifier ports.LanguageClassifier, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Detector{
		sampler:    NewSampler(cfg.MinChunkLength),
		classifier: classifier,
		estimator:  NewEstimator(cfg),
		logger:     logger,
	}
}

// Assess decides whether plainText is probably not written in the target language.
// targetCode is a locale code such as "zh-CN"; it is mapped to a canonical name first.
// When ctx ends mid-pass the remaining chunks are skipped and the verdict is
// not triggered.
func (d *Detector) Assess(ctx context.Context, plainText, targetCode string) domain.MismatchVerdict {
	target := CanonicalName(targetCode)
	chunks := d.sampler.Chunks(plainText)

	results := make([]domain.ClassificationResult, 0, len(chunks))
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			d.logger.Debug("detection abandoned", "classified", len(results), "chunks", len(chunks), "error", err)
			return domain.MismatchVerdict{}
		}
		result := d.classify(ctx, chunk.Text)
		d.logger.Debug("chunk classified",
			"chunk", preview(chunk.Text),
			"language", result.Language,
			"confidence", result.Confidence,
			"guessed", result.OK,
			"non_target", d.estimator.NonTarget(result, target))
		results = append(results, result)
	}

	verdict := d.estimator.Estimate(results, target)
	d.logger.Debug("mismatch verdict",
		"target_code", targetCode,
		"target", target,
		"checked", verdict.CheckedCount,
		"non_target", verdict.NonTargetCount,
		"ratio", verdict.Ratio,
		"triggered", verdict.Triggered)
	return verdict
}

func (d *Detector) classify(ctx context.Context, chunk string) domain.ClassificationResult {
	switch c := d.classifier.(type) {
	case nil:
		return domain.NoGuess
	case ports.ContextClassifier:
		return c.ClassifyContext(ctx, chunk)
	default:
		return c.Classify(chunk)
	}
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= 30 {
		return text
	}
	return string(runes[:30]) + "..."
}
