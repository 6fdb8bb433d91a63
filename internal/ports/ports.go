package ports

import (
	"context"
	"time"

	"ArticleAugmenter/internal/config"
	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/inject"
)

// LanguageClassifier produces a top-1 language guess for one chunk.
type LanguageClassifier interface {
	Classify(chunk string) domain.ClassificationResult
}

// ContextClassifier is implemented by classifiers that block on I/O, so a
// detection pass can stop once its session is gone.
type ContextClassifier interface {
	ClassifyContext(ctx context.Context, chunk string) domain.ClassificationResult
}

// SummaryRequest carries everything the remote summarizer needs.
type SummaryRequest struct {
	Settings       config.AIConfig
	Title          string
	PlainText      string
	TargetLanguage string
}

// TranslationRequest carries the ordinal-keyed JSON body to translate.
type TranslationRequest struct {
	Settings       config.AIConfig
	TargetLanguage string
	JSONBody       string
}

// TextAPI is the remote text service used for summaries and translations.
type TextAPI interface {
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
	Translate(ctx context.Context, req TranslationRequest) (string, error)
}

// Surface is the isolated rendering target. Dispatch delivers one command;
// the core never reads the surface back.
type Surface interface {
	Dispatch(ctx context.Context, cmd inject.Command) error
}

// ContentFetcher loads full article HTML for the FullContent render mode.
type ContentFetcher interface {
	FetchFull(ctx context.Context, link string) (string, error)
}

// AugmentationStore keeps finished summaries and translations across sessions.
type AugmentationStore interface {
	LoadSummary(ctx context.Context, key domain.AugmentationKey) (string, bool, error)
	SaveSummary(ctx context.Context, key domain.AugmentationKey, summary string) error
	LoadTranslation(ctx context.Context, key domain.AugmentationKey) (domain.TranslationMap, bool, error)
	SaveTranslation(ctx context.Context, key domain.AugmentationKey, translations domain.TranslationMap) error
}

// ArticleSource loads a displayable article from a reference (path, URL, feed item).
type ArticleSource interface {
	Name() string
	Fetch(ctx context.Context, ref string) ([]domain.Article, error)
}

// AugmentationIndex reports which articles already have stored augmentations.
type AugmentationIndex interface {
	AugmentedArticles(ctx context.Context, ids []string) (map[string]bool, error)
}

// Scheduler triggers a job periodically until stopped.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// Notifier publishes a text digest of augmented articles.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}
