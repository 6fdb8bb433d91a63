package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"ArticleAugmenter/internal/domain"
)

type countingStore struct {
	summaries    map[string]string
	translations map[string]domain.TranslationMap
	loads        int
	saves        int
	err          error
}

func newCountingStore() *countingStore {
	return &countingStore{summaries: map[string]string{}, translations: map[string]domain.TranslationMap{}}
}

func (s *countingStore) LoadSummary(_ context.Context, key domain.AugmentationKey) (string, bool, error) {
	s.loads++
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.summaries[key.String()]
	return v, ok, nil
}

func (s *countingStore) SaveSummary(_ context.Context, key domain.AugmentationKey, summary string) error {
	s.saves++
	s.summaries[key.String()] = summary
	return nil
}

func (s *countingStore) LoadTranslation(_ context.Context, key domain.AugmentationKey) (domain.TranslationMap, bool, error) {
	s.loads++
	v, ok := s.translations[key.String()]
	return v, ok, nil
}

func (s *countingStore) SaveTranslation(_ context.Context, key domain.AugmentationKey, translations domain.TranslationMap) error {
	s.saves++
	s.translations[key.String()] = translations
	return nil
}

var key = domain.AugmentationKey{ArticleID: "a1", Mode: domain.RenderNormal, Language: "de"}

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Minute, time.Minute, nil)
	ctx := context.Background()

	if _, ok, _ := store.LoadSummary(ctx, key); ok {
		t.Fatalf("expected miss on empty store")
	}
	if err := store.SaveSummary(ctx, key, "Zusammenfassung"); err != nil {
		t.Fatalf("SaveSummary error: %v", err)
	}
	got, ok, err := store.LoadSummary(ctx, key)
	if err != nil || !ok || got != "Zusammenfassung" {
		t.Fatalf("unexpected load: %q %t %v", got, ok, err)
	}

	other := key
	other.Mode = domain.RenderFullContent
	if _, ok, _ := store.LoadSummary(ctx, other); ok {
		t.Fatalf("render mode must be part of the key")
	}
}

func TestMemoryStoreTranslationsAreCopied(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Minute, time.Minute, nil)
	ctx := context.Background()

	source := domain.TranslationMap{"0": "Hallo"}
	if err := store.SaveTranslation(ctx, key, source); err != nil {
		t.Fatalf("SaveTranslation error: %v", err)
	}
	source["0"] = "mutated"

	got, ok, _ := store.LoadTranslation(ctx, key)
	if !ok || got["0"] != "Hallo" {
		t.Fatalf("cached map aliased caller map: %v", got)
	}
	got["0"] = "mutated again"
	again, _, _ := store.LoadTranslation(ctx, key)
	if again["0"] != "Hallo" {
		t.Fatalf("loaded map aliased cache entry: %v", again)
	}
}

func TestMemoryStoreReadThrough(t *testing.T) {
	t.Parallel()

	next := newCountingStore()
	next.summaries[key.String()] = "from database"
	store := NewMemoryStore(time.Minute, time.Minute, next)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, ok, err := store.LoadSummary(ctx, key)
		if err != nil || !ok || got != "from database" {
			t.Fatalf("unexpected load: %q %t %v", got, ok, err)
		}
	}
	if next.loads != 1 {
		t.Fatalf("expected one read-through, got %d", next.loads)
	}

	if err := store.SaveTranslation(ctx, key, domain.TranslationMap{"1": "x"}); err != nil {
		t.Fatalf("SaveTranslation error: %v", err)
	}
	if next.saves != 1 {
		t.Fatalf("expected write-through, got %d saves", next.saves)
	}
}

func TestMemoryStorePropagatesErrors(t *testing.T) {
	t.Parallel()

	next := newCountingStore()
	next.err = errors.New("db down")
	store := NewMemoryStore(time.Minute, time.Minute, next)

	if _, _, err := store.LoadSummary(context.Background(), key); err == nil {
		t.Fatalf("expected error from next store")
	}
}
