package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ArticleAugmenter/internal/config"
	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/inject"
)

func newSummaryFixture(api *fakeAPI, settings config.AIConfig) (*SummaryOrchestrator, *recordingSurface) {
	surface := &recordingSurface{}
	deps := SummaryDeps{Injector: newTestEngine(surface), Store: newMemStore()}
	if api != nil {
		deps.API = api
	}
	return NewSummaryOrchestrator(settings, 20, deps), surface
}

func TestSummaryRunReady(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{summary: "**Short** recap."}
	o, surface := newSummaryFixture(api, config.AIConfig{Enabled: true})
	session := domain.SessionKey{ArticleID: "a1", Mode: domain.RenderNormal, Seq: 1}
	o.Reset(session)

	if !o.Begin(context.Background(), session) {
		t.Fatalf("Begin should start from absent")
	}
	if view, _ := surface.lastSummary(); view.View != inject.ViewLoading {
		t.Fatalf("expected loading view, got %s", view.View)
	}
	if o.Begin(context.Background(), session) {
		t.Fatalf("Begin must fail while loading")
	}

	outcome := o.Run(context.Background(), SummaryJob{Session: session, Title: "T", PlainText: "text", TargetLanguage: "en"})
	if outcome != OutcomeSucceeded {
		t.Fatalf("expected success, got %s", outcome)
	}
	state := o.State()
	if state.Phase != domain.SummaryReady || state.Text != "**Short** recap." {
		t.Fatalf("unexpected state %+v", state)
	}
	view, _ := surface.lastSummary()
	if view.View != inject.ViewCard || !strings.Contains(view.HTML, "<strong>Short</strong>") {
		t.Fatalf("unexpected card %+v", view)
	}
}

func TestSummaryFailureRestoresButton(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{summaryErr: errors.New("Error: bad key")}
	o, surface := newSummaryFixture(api, config.AIConfig{Enabled: true})
	session := domain.SessionKey{ArticleID: "a1", Mode: domain.RenderNormal, Seq: 1}
	o.Reset(session)
	o.Begin(context.Background(), session)

	if outcome := o.Run(context.Background(), SummaryJob{Session: session}); outcome != OutcomeFailed {
		t.Fatalf("expected failure, got %s", outcome)
	}
	if state := o.State(); state.Phase != domain.SummaryAbsent {
		t.Fatalf("expected absent after failure, got %s", state.Phase)
	}
	view, _ := surface.lastSummary()
	if view.View != inject.ViewButton || strings.Contains(view.HTML, "bad key") {
		t.Fatalf("failure text must not be shown: %+v", view)
	}
	if !o.Begin(context.Background(), session) {
		t.Fatalf("user must be able to retry")
	}
}

func TestSummaryBlankReplyFails(t *testing.T) {
	t.Parallel()

	o, _ := newSummaryFixture(&fakeAPI{summary: "   "}, config.AIConfig{Enabled: true})
	session := domain.SessionKey{ArticleID: "a1", Seq: 1}
	o.Reset(session)
	o.Begin(context.Background(), session)
	if outcome := o.Run(context.Background(), SummaryJob{Session: session}); outcome != OutcomeFailed {
		t.Fatalf("expected failure, got %s", outcome)
	}
}

func TestSummaryStaleDiscarded(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{summary: "old article summary"}
	o, surface := newSummaryFixture(api, config.AIConfig{Enabled: true})
	first := domain.SessionKey{ArticleID: "a1", Mode: domain.RenderNormal, Seq: 1}
	o.Reset(first)
	o.Begin(context.Background(), first)

	second := domain.SessionKey{ArticleID: "a2", Mode: domain.RenderNormal, Seq: 2}
	o.Reset(second)

	if outcome := o.Run(context.Background(), SummaryJob{Session: first}); outcome != OutcomeStale {
		t.Fatalf("expected stale, got %s", outcome)
	}
	if state := o.State(); state.Phase != domain.SummaryAbsent {
		t.Fatalf("new session must stay absent, got %+v", state)
	}
	for _, cmd := range surface.byKind(inject.KindSummary) {
		if cmd.Summary.View == inject.ViewCard {
			t.Fatalf("stale summary injected")
		}
	}
}

func TestSummaryAutoStartGate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		text  string
		setup func(o *SummaryOrchestrator, session domain.SessionKey)
		want  bool
	}{
		{name: "exactly at minimum", text: strings.Repeat("a", 500), want: false},
		{name: "one over minimum", text: strings.Repeat("a", 501), want: true},
		{name: "multibyte counted as characters", text: strings.Repeat("中", 200), want: false},
		{name: "multibyte over minimum", text: strings.Repeat("中", 501), want: true},
		{
			name: "already loading",
			text: strings.Repeat("a", 600),
			setup: func(o *SummaryOrchestrator, session domain.SessionKey) {
				o.Begin(context.Background(), session)
			},
			want: false,
		},
		{
			name: "already ready",
			text: strings.Repeat("a", 600),
			setup: func(o *SummaryOrchestrator, session domain.SessionKey) {
				o.Begin(context.Background(), session)
				o.Run(context.Background(), SummaryJob{Session: session})
			},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			surface := &recordingSurface{}
			o := NewSummaryOrchestrator(config.AIConfig{Enabled: true, AutoSummary: true}, 500,
				SummaryDeps{API: &fakeAPI{summary: "done"}, Injector: newTestEngine(surface)})
			session := domain.SessionKey{ArticleID: "a1", Seq: 1}
			o.Reset(session)
			if tc.setup != nil {
				tc.setup(o, session)
			}
			if got := o.ShouldAutoStart(tc.text); got != tc.want {
				t.Fatalf("ShouldAutoStart = %t, want %t", got, tc.want)
			}
		})
	}

	off, _ := newSummaryFixture(nil, config.AIConfig{Enabled: true})
	if off.ShouldAutoStart(strings.Repeat("a", 600)) {
		t.Fatalf("auto summary disabled")
	}
}
