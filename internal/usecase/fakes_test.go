package usecase

import (
	"context"
	"sync"

	"ArticleAugmenter/internal/content"
	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/inject"
	"ArticleAugmenter/internal/ports"
)

type fakeAPI struct {
	mu             sync.Mutex
	summary        string
	summaryErr     error
	translation    string
	translationErr error
	summaries      int
	translations   int

	// When set, Translate signals started and blocks until release is closed.
	started chan struct{}
	release chan struct{}
}

func (f *fakeAPI) Summarize(ctx context.Context, req ports.SummaryRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries++
	return f.summary, f.summaryErr
}

func (f *fakeAPI) Translate(ctx context.Context, req ports.TranslationRequest) (string, error) {
	f.mu.Lock()
	f.translations++
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		close(started)
		<-release
	}
	return f.translation, f.translationErr
}

func (f *fakeAPI) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summaries, f.translations
}

type recordingSurface struct {
	mu       sync.Mutex
	commands []inject.Command
}

func (s *recordingSurface) Dispatch(ctx context.Context, cmd inject.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
	return nil
}

func (s *recordingSurface) byKind(kind inject.Kind) []inject.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []inject.Command
	for _, cmd := range s.commands {
		if cmd.Kind == kind {
			out = append(out, cmd)
		}
	}
	return out
}

func (s *recordingSurface) lastSummary() (inject.SummaryPayload, bool) {
	cmds := s.byKind(inject.KindSummary)
	if len(cmds) == 0 {
		return inject.SummaryPayload{}, false
	}
	return *cmds[len(cmds)-1].Summary, true
}

type memStore struct {
	mu           sync.Mutex
	summaries    map[string]string
	translations map[string]domain.TranslationMap
}

func newMemStore() *memStore {
	return &memStore{summaries: map[string]string{}, translations: map[string]domain.TranslationMap{}}
}

func (m *memStore) LoadSummary(ctx context.Context, key domain.AugmentationKey) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.summaries[key.String()]
	return v, ok, nil
}

func (m *memStore) SaveSummary(ctx context.Context, key domain.AugmentationKey, summary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[key.String()] = summary
	return nil
}

func (m *memStore) LoadTranslation(ctx context.Context, key domain.AugmentationKey) (domain.TranslationMap, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.translations[key.String()]
	return v.Clone(), ok, nil
}

func (m *memStore) SaveTranslation(ctx context.Context, key domain.AugmentationKey, translations domain.TranslationMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.translations[key.String()] = translations.Clone()
	return nil
}

type stubDetector struct {
	triggered bool
}

func (d stubDetector) Assess(ctx context.Context, plainText, targetCode string) domain.MismatchVerdict {
	if d.triggered {
		return domain.MismatchVerdict{Triggered: true, Ratio: 1, CheckedCount: 3, NonTargetCount: 3}
	}
	return domain.MismatchVerdict{CheckedCount: 3}
}

type stubFetcher struct {
	full string
	err  error
}

func (f stubFetcher) FetchFull(ctx context.Context, link string) (string, error) {
	return f.full, f.err
}

func newTestEngine(surface *recordingSurface) *inject.Engine {
	return inject.NewEngine(surface, content.Selection{Root: "article", Items: "p, li"}, inject.Labels{Generate: "Generate"}, nil, nil)
}

// blockingDetector waits for ctx to end and records why.
type blockingDetector struct {
	started chan struct{}
	ended   chan error
}

func (d blockingDetector) Assess(ctx context.Context, plainText, targetCode string) domain.MismatchVerdict {
	close(d.started)
	<-ctx.Done()
	d.ended <- ctx.Err()
	return domain.MismatchVerdict{}
}
