package usecase

import (
	"context"
	"testing"

	"ArticleAugmenter/internal/config"
	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/inject"
)

const frenchArticle = `<article><p>Bonjour tout le monde, ceci est un long paragraphe.</p><p>court</p><ul><li>Un élément de liste assez long.</li></ul></article>`

func newTranslationFixture(api *fakeAPI, store *memStore) (*TranslationOrchestrator, *recordingSurface) {
	surface := &recordingSurface{}
	deps := TranslationDeps{Injector: newTestEngine(surface)}
	if api != nil {
		deps.API = api
	}
	if store != nil {
		deps.Store = store
	}
	extraction := config.ExtractionConfig{RootSelector: "article", ItemSelector: "p, li", MinTextLength: 10}
	return NewTranslationOrchestrator(config.AIConfig{Enabled: true, TranslateEnabled: true}, extraction, deps), surface
}

func TestTranslationRunSucceeds(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{translation: `{"0":"Hello everyone, this is a long paragraph.","2":"A fairly long list item."}`}
	store := newMemStore()
	o, surface := newTranslationFixture(api, store)
	session := domain.SessionKey{ArticleID: "a1", Mode: domain.RenderNormal, Seq: 1}
	o.Reset(session)

	if !o.Begin(session) {
		t.Fatalf("Begin should claim the slot")
	}
	if o.Begin(session) {
		t.Fatalf("second Begin must fail while loading")
	}

	outcome := o.Run(context.Background(), TranslationJob{Session: session, HTML: frenchArticle, TargetLanguage: "en-US"})
	if outcome != OutcomeSucceeded {
		t.Fatalf("expected success, got %s", outcome)
	}

	snap := o.Snapshot()
	if snap.Phase != TranslationSucceeded || snap.Loading || len(snap.Translations) != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	cmds := surface.byKind(inject.KindTranslation)
	if len(cmds) != 1 || cmds[0].Translation.Entries["2"] != "A fairly long list item." {
		t.Fatalf("unexpected translation commands %+v", cmds)
	}

	if _, ok, _ := store.LoadTranslation(context.Background(), domain.AugmentationKey{ArticleID: "a1", Mode: domain.RenderNormal, Language: "en-US"}); !ok {
		t.Fatalf("translation was not stored")
	}
	if o.Begin(session) {
		t.Fatalf("Begin must fail once a map exists")
	}
}

func TestTranslationEmptyIndexSkipsRemoteCall(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{translation: `{"0":"x"}`}
	o, surface := newTranslationFixture(api, nil)
	session := domain.SessionKey{ArticleID: "a1", Mode: domain.RenderNormal, Seq: 1}
	o.Reset(session)
	o.Begin(session)

	outcome := o.Run(context.Background(), TranslationJob{Session: session, HTML: "<article><p>tiny</p></article>", TargetLanguage: "en"})
	if outcome != OutcomeEmpty {
		t.Fatalf("expected empty, got %s", outcome)
	}
	if _, n := api.calls(); n != 0 {
		t.Fatalf("expected no remote call, got %d", n)
	}
	if snap := o.Snapshot(); snap.Loading || snap.Phase != TranslationIdle {
		t.Fatalf("slot not released: %+v", snap)
	}
	if len(surface.byKind(inject.KindTranslation)) != 0 {
		t.Fatalf("nothing should be injected")
	}
}

func TestTranslationMalformedReplyFails(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{translation: "Sorry, I cannot do that."}
	o, surface := newTranslationFixture(api, nil)
	session := domain.SessionKey{ArticleID: "a1", Mode: domain.RenderNormal, Seq: 1}
	o.Reset(session)
	o.Begin(session)

	outcome := o.Run(context.Background(), TranslationJob{Session: session, HTML: frenchArticle, TargetLanguage: "en"})
	if outcome != OutcomeFailed {
		t.Fatalf("expected failure, got %s", outcome)
	}
	snap := o.Snapshot()
	if snap.Phase != TranslationFailed || snap.Loading || snap.Translations != nil {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(surface.byKind(inject.KindTranslation)) != 0 {
		t.Fatalf("nothing should be injected on failure")
	}
}

func TestTranslationStaleResultDiscarded(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		translation: `{"0":"Hello"}`,
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	o, surface := newTranslationFixture(api, nil)
	first := domain.SessionKey{ArticleID: "a1", Mode: domain.RenderNormal, Seq: 1}
	o.Reset(first)
	o.Begin(first)

	done := make(chan Outcome, 1)
	go func() {
		done <- o.Run(context.Background(), TranslationJob{Session: first, HTML: frenchArticle, TargetLanguage: "en"})
	}()

	<-api.started
	second := domain.SessionKey{ArticleID: "a2", Mode: domain.RenderNormal, Seq: 2}
	o.Reset(second)
	close(api.release)

	if outcome := <-done; outcome != OutcomeStale {
		t.Fatalf("expected stale, got %s", outcome)
	}
	snap := o.Snapshot()
	if snap.Session != second || snap.Translations != nil || snap.Loading {
		t.Fatalf("stale result leaked into new session: %+v", snap)
	}
	if len(surface.byKind(inject.KindTranslation)) != 0 {
		t.Fatalf("stale translation must not be injected")
	}
}

func TestTranslationServedFromStore(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	key := domain.AugmentationKey{ArticleID: "a1", Mode: domain.RenderNormal, Language: "en"}
	_ = store.SaveTranslation(context.Background(), key, domain.TranslationMap{"0": "Cached"})

	o, surface := newTranslationFixture(nil, store)
	session := domain.SessionKey{ArticleID: "a1", Mode: domain.RenderNormal, Seq: 1}
	o.Reset(session)
	o.Begin(session)

	if outcome := o.Run(context.Background(), TranslationJob{Session: session, HTML: frenchArticle, TargetLanguage: "en"}); outcome != OutcomeSucceeded {
		t.Fatalf("expected success from store, got %s", outcome)
	}
	if cmds := surface.byKind(inject.KindTranslation); len(cmds) != 1 || cmds[0].Translation.Entries["0"] != "Cached" {
		t.Fatalf("unexpected commands %+v", cmds)
	}

	if err := o.Reinject(context.Background(), session); err != nil {
		t.Fatalf("Reinject error: %v", err)
	}
	if len(surface.byKind(inject.KindTranslation)) != 2 {
		t.Fatalf("expected reinjection")
	}
}

func TestTranslationWithoutAPIFails(t *testing.T) {
	t.Parallel()

	o, _ := newTranslationFixture(nil, nil)
	session := domain.SessionKey{ArticleID: "a1", Mode: domain.RenderNormal, Seq: 1}
	o.Reset(session)
	o.Begin(session)
	if outcome := o.Run(context.Background(), TranslationJob{Session: session, HTML: frenchArticle}); outcome != OutcomeFailed {
		t.Fatalf("expected failure, got %s", outcome)
	}
}

func TestParseTranslation(t *testing.T) {
	t.Parallel()

	got, err := ParseTranslation("```json\n{\"1\": \"Hi\", \"4\": \"There\"}\n```")
	if err != nil {
		t.Fatalf("ParseTranslation error: %v", err)
	}
	if len(got) != 2 || got["4"] != "There" {
		t.Fatalf("unexpected map %v", got)
	}

	for _, raw := range []string{"", "   ", "null", "[1,2]", "{not json"} {
		if _, err := ParseTranslation(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
