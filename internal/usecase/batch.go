package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/logging"
	"ArticleAugmenter/internal/ports"
)

// Report is the result of augmenting one article.
type Report struct {
	Article  domain.Article
	Snapshot SessionSnapshot
	Page     string
	Err      error
}

// Augmenter runs one article through a full session.
type Augmenter interface {
	Augment(ctx context.Context, article domain.Article) Report
}

// BatchDeps wires the batch use case.
type BatchDeps struct {
	Source    ports.ArticleSource
	Index     ports.AugmentationIndex
	Augmenter Augmenter
	Logger    *slog.Logger
}

// Batch augments every article of a source reference, e.g. all feed items.
type Batch struct {
	source      ports.ArticleSource
	index       ports.AugmentationIndex
	augmenter   Augmenter
	concurrency int
	logger      *slog.Logger
}

// NewBatch constructs the batch use case. concurrency <= 0 means one at a time.
func NewBatch(deps BatchDeps, concurrency int) *Batch {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Batch{
		source:      deps.Source,
		index:       deps.Index,
		augmenter:   deps.Augmenter,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Process fetches ref, drops articles that already have stored augmentations
// and augments the rest. Reports keep the source order. Per-article failures
// are carried in Report.Err; only source and index errors abort the batch.
func (b *Batch) Process(ctx context.Context, ref string) ([]Report, error) {
	if b.source == nil || b.augmenter == nil {
		return nil, nil
	}

	articles, err := b.source.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}

	ids := make([]string, len(articles))
	for i, article := range articles {
		ids[i] = article.ID
	}

	skip := map[string]bool{}
	if b.index != nil && len(ids) > 0 {
		skip, err = b.index.AugmentedArticles(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load augmented: %w", err)
		}
	}

	pending := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		if skip[article.ID] {
			b.logger.Debug("article already augmented", "article_id", article.ID)
			continue
		}
		pending = append(pending, article)
	}

	reports := make([]Report, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, article := range pending {
		g.Go(func() error {
			reports[i] = b.augmenter.Augment(gctx, article)
			if reports[i].Err != nil {
				b.logger.Warn("article augmentation failed", "article_id", article.ID, "error", reports[i].Err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return reports, err
	}

	b.logger.Info("batch processed", "ref", ref, "fetched", len(articles), "augmented", len(pending))
	return reports, nil
}
