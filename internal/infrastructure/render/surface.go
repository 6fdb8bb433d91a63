package render

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"ArticleAugmenter/internal/content"
	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/inject"
	"ArticleAugmenter/internal/ports"
)

const surfaceStyle = `
.ai-btn { background: var(--primary); color: white; border: none; padding: 6px 12px; border-radius: 4px; cursor: pointer; font-size: 13px; margin: 12px 0; display: block; }
.ai-summary-card { background: #f3f2f1; padding: 12px; border-radius: 4px; border-left: 4px solid var(--primary); margin: 12px 0; font-size: 14px; line-height: 1.5; }
.ai-summary-content { word-break: break-word; }
.ai-summary-title { font-weight: 600; margin-top: 0; margin-bottom: 8px; font-size: 12px; color: var(--gray); text-transform: uppercase; }
.ai-summary-loading { color: var(--gray); font-size: 13px; margin: 12px 0; }
.ai-translation { color: var(--primary); font-size: 0.9em; margin-top: 4px; border-left: 2px solid var(--primary-light); padding-left: 8px; opacity: 0.8; }
li .ai-translation { display: block; margin-top: 2px; border-left: none; padding-left: 0; font-style: italic; }
`

// Surface is a renderer-side executor: it owns a goquery document standing
// in for the sandboxed article view and applies inject.Commands to it.
type Surface struct {
	mu        sync.Mutex
	doc       *goquery.Document
	listeners []func(string)
	applied   int
	annotated int
}

var _ ports.Surface = (*Surface)(nil)

// ErrNotLoaded is returned when a command arrives before any page was loaded.
var ErrNotLoaded = errors.New("surface has no page loaded")

// New returns an empty surface. Load a page before dispatching commands.
func New() *Surface {
	return &Surface{}
}

// NewSurface renders the article page: title, summary container and the
// article body wrapped in <article>.
func NewSurface(article domain.Article, body string) (*Surface, error) {
	s := New()
	if err := s.Load(article, body); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSurfaceFromHTML wraps an already rendered page.
func NewSurfaceFromHTML(page string) (*Surface, error) {
	s := New()
	if err := s.LoadHTML(page); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the page with a fresh rendering of article. Listeners survive
// the reload, injected nodes and counters do not.
func (s *Surface) Load(article domain.Article, body string) error {
	page := fmt.Sprintf(`<!DOCTYPE html><html><head><meta charset="utf-8"><style>%s</style></head><body>`+
		`<p class="title">%s</p><div id="%s"></div><article>%s</article></body></html>`,
		surfaceStyle, html.EscapeString(article.Title), inject.SummaryContainerID, body)
	return s.LoadHTML(page)
}

// LoadHTML replaces the page with already rendered markup.
func (s *Surface) LoadHTML(page string) error {
	doc, err := content.Parse(page)
	if err != nil {
		return fmt.Errorf("load surface: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.applied = 0
	s.annotated = 0
	return nil
}

// OnMessage registers a listener for messages the page posts back to the host.
func (s *Surface) OnMessage(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Click simulates a user click on the element with the given id. Clicking the
// generate button posts inject.GenerateMessage. It reports whether the element exists.
func (s *Surface) Click(id string) bool {
	s.mu.Lock()
	found := s.doc != nil && s.doc.Find("#"+id).Length() > 0
	listeners := append([]func(string){}, s.listeners...)
	s.mu.Unlock()

	if !found {
		return false
	}
	if id == inject.GenerateButtonID {
		for _, fn := range listeners {
			fn(inject.GenerateMessage)
		}
	}
	return true
}

// Dispatch applies one command.
func (s *Surface) Dispatch(ctx context.Context, cmd inject.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cmd.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNotLoaded
	}

	switch cmd.Kind {
	case inject.KindSummary:
		s.applySummary(*cmd.Summary)
	case inject.KindTranslation:
		s.annotated += s.applyTranslation(*cmd.Translation)
	}
	s.applied++
	return nil
}

func (s *Surface) applySummary(p inject.SummaryPayload) {
	container := s.doc.Find("#" + inject.SummaryContainerID)
	if container.Length() == 0 {
		return
	}

	var markup string
	switch p.View {
	case inject.ViewCard:
		markup = fmt.Sprintf(`<div class="ai-summary-card"><p class="ai-summary-title">%s</p><div class="ai-summary-content">%s</div></div>`,
			html.EscapeString(p.Labels.Title), p.HTML)
	case inject.ViewLoading:
		markup = fmt.Sprintf(`<div class="ai-summary-loading"><span class="spinner"></span> %s</div>`,
			html.EscapeString(p.Labels.Loading))
	default:
		markup = fmt.Sprintf(`<button id="%s" class="ai-btn">%s</button>`,
			inject.GenerateButtonID, html.EscapeString(p.Labels.Generate))
	}
	container.SetHtml(markup)
}

// applyTranslation returns how many annotations were inserted.
func (s *Surface) applyTranslation(p inject.TranslationPayload) int {
	selection := content.Selection{Root: p.RootSelector, Items: p.ItemSelector}
	if p.RootSelector != "" && s.doc.Find(p.RootSelector).Length() == 0 {
		return 0
	}
	items := selection.Query(s.doc)

	injected := 0
	for _, ordinal := range sortedOrdinals(p.Entries) {
		idx, err := strconv.Atoi(ordinal)
		if err != nil || idx < 0 || idx >= items.Length() {
			continue
		}
		el := items.Eq(idx)
		if annotated(el) {
			continue
		}

		text := html.EscapeString(p.Entries[ordinal])
		tag := goquery.NodeName(el)
		if tag == "li" {
			el.AppendHtml(fmt.Sprintf(`<div class="%s">%s</div>`, content.AnnotationClass, text))
		} else {
			el.AfterHtml(fmt.Sprintf(`<%s class="%s">%s</%s>`, tag, content.AnnotationClass, text, tag))
		}
		injected++
	}
	return injected
}

func annotated(el *goquery.Selection) bool {
	if el.Next().HasClass(content.AnnotationClass) {
		return true
	}
	return el.ChildrenFiltered("." + content.AnnotationClass).Length() > 0
}

func sortedOrdinals(entries map[string]string) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	return keys
}

// HTML returns the current page markup.
func (s *Surface) HTML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return "", ErrNotLoaded
	}
	return goquery.OuterHtml(s.doc.Selection)
}

// Find runs a read-only query against a snapshot of the page, mainly for tests and the CLI.
func (s *Surface) Find(selector string) *goquery.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return &goquery.Selection{}
	}
	return s.doc.Selection.Clone().Find(selector)
}

// Applied counts executed commands.
func (s *Surface) Applied() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}

// Annotated counts translation nodes inserted so far.
func (s *Surface) Annotated() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.annotated
}

// Text returns the trimmed text of the first match of selector.
func (s *Surface) Text(selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}
