package render

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"ArticleAugmenter/internal/content"
	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/inject"
)

const testBody = `<h2>Heading that is long enough</h2>
<p>First paragraph of the article.</p>
<ul><li>First list item is long</li><li>Second list item is long</li></ul>
<p>Last paragraph of the article.</p>`

var labels = inject.Labels{Generate: "Generate AI Summary", Loading: "Generating AI summary...", Title: "AI Summary"}

func newTestSurface(t *testing.T) *Surface {
	t.Helper()
	s, err := NewSurface(domain.Article{ID: "a1", Title: "Title <x>"}, testBody)
	if err != nil {
		t.Fatalf("NewSurface error: %v", err)
	}
	return s
}

func newTestEngine(d inject.Dispatcher) *inject.Engine {
	return inject.NewEngine(d, content.Selection{Root: "article", Items: "p, li, h1, h2, h3, h4, h5, h6"}, labels, nil, nil)
}

func TestSurfaceSummaryViews(t *testing.T) {
	t.Parallel()

	s := newTestSurface(t)
	engine := newTestEngine(s)
	ctx := context.Background()

	if err := engine.InjectSummary(ctx, domain.SummaryState{}); err != nil {
		t.Fatalf("inject button: %v", err)
	}
	if got := s.Text("#" + inject.GenerateButtonID); got != "Generate AI Summary" {
		t.Fatalf("unexpected button label %q", got)
	}

	if err := engine.InjectSummary(ctx, domain.SummaryState{Phase: domain.SummaryLoading}); err != nil {
		t.Fatalf("inject loading: %v", err)
	}
	if s.Find("#"+inject.GenerateButtonID).Length() != 0 {
		t.Fatalf("button must be replaced by loading view")
	}
	if got := s.Text(".ai-summary-loading"); got != "Generating AI summary..." {
		t.Fatalf("unexpected loading label %q", got)
	}

	if err := engine.InjectSummary(ctx, domain.SummaryState{Phase: domain.SummaryReady, Text: "Key **points**."}); err != nil {
		t.Fatalf("inject card: %v", err)
	}
	if got := s.Text(".ai-summary-title"); got != "AI Summary" {
		t.Fatalf("unexpected card title %q", got)
	}
	if s.Find(".ai-summary-content strong").Length() != 1 {
		t.Fatalf("summary markdown not rendered")
	}
	if s.Find(".ai-summary-loading").Length() != 0 {
		t.Fatalf("loading view must be gone")
	}
	if s.Applied() != 3 {
		t.Fatalf("expected 3 applied commands, got %d", s.Applied())
	}
}

func TestSurfaceTitleIsEscaped(t *testing.T) {
	t.Parallel()

	s := newTestSurface(t)
	if got := s.Text("p.title"); got != "Title <x>" {
		t.Fatalf("unexpected title %q", got)
	}
	if s.Find("x").Length() != 0 {
		t.Fatalf("title markup must not be parsed")
	}
}

func TestSurfaceTranslationInjection(t *testing.T) {
	t.Parallel()

	s := newTestSurface(t)
	engine := newTestEngine(s)
	translations := domain.TranslationMap{
		"0": "Titre assez long",
		"1": "Premier <paragraphe>",
		"2": "Premier élément",
		"4": "Dernier paragraphe",
	}

	if err := engine.InjectTranslations(context.Background(), translations); err != nil {
		t.Fatalf("InjectTranslations error: %v", err)
	}
	if s.Annotated() != 4 {
		t.Fatalf("expected 4 annotations, got %d", s.Annotated())
	}

	if got := s.Text("h2.ai-translation"); got != "Titre assez long" {
		t.Fatalf("heading sibling missing: %q", got)
	}
	if got := s.Find("li").First().Find("div.ai-translation").Text(); got != "Premier élément" {
		t.Fatalf("li child missing: %q", got)
	}
	if s.Find("p.ai-translation").Length() != 2 {
		t.Fatalf("expected two paragraph siblings, got %d", s.Find("p.ai-translation").Length())
	}
	if s.Find("paragraphe").Length() != 0 {
		t.Fatalf("translation text must be escaped")
	}
	if got := s.Find("p.ai-translation").Last().Prev().Text(); got != "Last paragraph of the article." {
		t.Fatalf("ordinal 4 annotated the wrong element, previous is %q", got)
	}
}

func TestSurfaceTranslationIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestSurface(t)
	engine := newTestEngine(s)
	translations := domain.TranslationMap{"1": "Premier paragraphe", "2": "Premier élément", "3": "Deuxième élément"}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := engine.InjectTranslations(ctx, translations); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}
	if s.Find(".ai-translation").Length() != 3 {
		t.Fatalf("expected 3 annotations after repeated injection, got %d", s.Find(".ai-translation").Length())
	}
	if s.Annotated() != 3 {
		t.Fatalf("repeat passes must not inject, counted %d", s.Annotated())
	}
}

func TestSurfaceTranslationIgnoresBadOrdinals(t *testing.T) {
	t.Parallel()

	s := newTestSurface(t)
	engine := newTestEngine(s)
	err := engine.InjectTranslations(context.Background(), domain.TranslationMap{"-1": "x", "99": "y", "abc": "z"})
	if err != nil {
		t.Fatalf("InjectTranslations error: %v", err)
	}
	if s.Annotated() != 0 {
		t.Fatalf("expected no annotations, got %d", s.Annotated())
	}
}

func TestSurfaceMissingRootIsNoop(t *testing.T) {
	t.Parallel()

	s, err := NewSurfaceFromHTML(`<html><body><p>No article wrapper here at all.</p></body></html>`)
	if err != nil {
		t.Fatalf("NewSurfaceFromHTML error: %v", err)
	}
	if err := newTestEngine(s).InjectTranslations(context.Background(), domain.TranslationMap{"0": "Pas d'article"}); err != nil {
		t.Fatalf("InjectTranslations error: %v", err)
	}
	if s.Annotated() != 0 {
		t.Fatalf("expected no annotations without root")
	}
}

func TestSurfaceClickPostsMessage(t *testing.T) {
	t.Parallel()

	s := newTestSurface(t)
	var got []string
	s.OnMessage(func(msg string) { got = append(got, msg) })

	if s.Click(inject.GenerateButtonID) {
		t.Fatalf("button does not exist before the summary view is injected")
	}
	if err := newTestEngine(s).InjectSummary(context.Background(), domain.SummaryState{}); err != nil {
		t.Fatalf("InjectSummary error: %v", err)
	}
	if !s.Click(inject.GenerateButtonID) {
		t.Fatalf("expected button click to succeed")
	}
	if len(got) != 1 || got[0] != inject.GenerateMessage {
		t.Fatalf("unexpected messages %q", got)
	}
}

func TestSurfaceLoadResetsPage(t *testing.T) {
	t.Parallel()

	s := New()
	if err := s.Dispatch(context.Background(), inject.Command{ID: "x", Kind: inject.KindSummary, Summary: &inject.SummaryPayload{}}); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}

	if err := s.Load(domain.Article{Title: "One"}, testBody); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if err := newTestEngine(s).InjectTranslations(context.Background(), domain.TranslationMap{"1": "Un"}); err != nil {
		t.Fatalf("InjectTranslations error: %v", err)
	}
	if err := s.Load(domain.Article{Title: "Two"}, testBody); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if s.Find(".ai-translation").Length() != 0 || s.Annotated() != 0 {
		t.Fatalf("reload must drop injected nodes")
	}
	if got := s.Text("p.title"); got != "Two" {
		t.Fatalf("unexpected title after reload %q", got)
	}
}

func TestRecorderWritesJSONLines(t *testing.T) {
	t.Parallel()

	s := newTestSurface(t)
	var buf bytes.Buffer
	rec := NewRecorder(NewLockedWriter(&buf), s)
	engine := newTestEngine(rec)

	if err := engine.InjectSummary(context.Background(), domain.SummaryState{}); err != nil {
		t.Fatalf("InjectSummary error: %v", err)
	}
	if err := engine.InjectTranslations(context.Background(), domain.TranslationMap{"1": "Un"}); err != nil {
		t.Fatalf("InjectTranslations error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if _, err := inject.Decode([]byte(line)); err != nil {
			t.Fatalf("line is not a command: %v", err)
		}
	}
	if s.Applied() != 2 {
		t.Fatalf("recorder must forward to the surface")
	}
}
