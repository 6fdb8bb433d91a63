package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/ports"
)

const (
	summaryPrefix     = "summary:"
	translationPrefix = "translation:"
)

// MemoryStore keeps augmentations in process with a TTL. Next, when set, is
// consulted on a miss and written through on save.
type MemoryStore struct {
	cache *gocache.Cache
	next  ports.AugmentationStore
}

var _ ports.AugmentationStore = (*MemoryStore)(nil)

// NewMemoryStore builds a store with the given expiration and purge interval.
func NewMemoryStore(ttl, cleanup time.Duration, next ports.AugmentationStore) *MemoryStore {
	return &MemoryStore{cache: gocache.New(ttl, cleanup), next: next}
}

// LoadSummary returns a cached summary, falling back to the next store.
func (m *MemoryStore) LoadSummary(ctx context.Context, key domain.AugmentationKey) (string, bool, error) {
	if v, ok := m.cache.Get(summaryPrefix + key.String()); ok {
		if summary, ok := v.(string); ok {
			return summary, true, nil
		}
	}
	if m.next == nil {
		return "", false, nil
	}
	summary, ok, err := m.next.LoadSummary(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	m.cache.SetDefault(summaryPrefix+key.String(), summary)
	return summary, true, nil
}

// SaveSummary caches and writes through.
func (m *MemoryStore) SaveSummary(ctx context.Context, key domain.AugmentationKey, summary string) error {
	m.cache.SetDefault(summaryPrefix+key.String(), summary)
	if m.next == nil {
		return nil
	}
	return m.next.SaveSummary(ctx, key, summary)
}

// LoadTranslation returns a copy of the cached map, falling back to the next store.
func (m *MemoryStore) LoadTranslation(ctx context.Context, key domain.AugmentationKey) (domain.TranslationMap, bool, error) {
	if v, ok := m.cache.Get(translationPrefix + key.String()); ok {
		if translations, ok := v.(domain.TranslationMap); ok {
			return translations.Clone(), true, nil
		}
	}
	if m.next == nil {
		return nil, false, nil
	}
	translations, ok, err := m.next.LoadTranslation(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	m.cache.SetDefault(translationPrefix+key.String(), translations.Clone())
	return translations, true, nil
}

// SaveTranslation caches a copy and writes through.
func (m *MemoryStore) SaveTranslation(ctx context.Context, key domain.AugmentationKey, translations domain.TranslationMap) error {
	m.cache.SetDefault(translationPrefix+key.String(), translations.Clone())
	if m.next == nil {
		return nil
	}
	return m.next.SaveTranslation(ctx, key, translations)
}
