package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ArticleAugmenter/internal/config"
	"ArticleAugmenter/internal/content"
	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/inject"
	"ArticleAugmenter/internal/logging"
	"ArticleAugmenter/internal/ports"
)

// ErrSessionClosed is returned by Handle after Close.
var ErrSessionClosed = errors.New("session controller closed")

// SessionState is the lifecycle of the displayed article.
type SessionState int

const (
	StateIdle SessionState = iota
	StateSurfaceLoading
	StateActive
	// StatePassive: the surface shows content that is never augmented.
	StatePassive
	// StateFailed: the full content could not be loaded.
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateSurfaceLoading:
		return "surface_loading"
	case StateActive:
		return "active"
	case StatePassive:
		return "passive"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Event is an input to the session controller.
type Event interface {
	eventName() string
}

// ArticleChanged opens a new article. Mode is the initial render mode; an
// empty mode means normal.
type ArticleChanged struct {
	Article domain.Article
	Mode    domain.RenderMode
}

// RenderModeToggled switches the render mode of the current article.
type RenderModeToggled struct {
	Mode domain.RenderMode
}

// SurfaceLoaded reports that the surface finished loading the active content.
type SurfaceLoaded struct{}

// SummaryRequested is the user asking for a summary.
type SummaryRequested struct{}

// SurfaceMessage is a raw message posted by the surface.
type SurfaceMessage struct {
	Text string
}

func (ArticleChanged) eventName() string    { return "article_changed" }
func (RenderModeToggled) eventName() string { return "render_mode_toggled" }
func (SurfaceLoaded) eventName() string     { return "surface_loaded" }
func (SummaryRequested) eventName() string  { return "summary_requested" }
func (SurfaceMessage) eventName() string    { return "surface_message" }

// transitions lists the events each state accepts; anything else is ignored.
var transitions = map[SessionState]map[string]bool{
	StateIdle: {
		"article_changed": true,
	},
	StateSurfaceLoading: {
		"article_changed":     true,
		"render_mode_toggled": true,
		"surface_loaded":      true,
	},
	StateActive: {
		"article_changed":     true,
		"render_mode_toggled": true,
		"surface_loaded":      true,
		"summary_requested":   true,
		"surface_message":     true,
	},
	StatePassive: {
		"article_changed":     true,
		"render_mode_toggled": true,
		"surface_loaded":      true,
	},
	StateFailed: {
		"article_changed":     true,
		"render_mode_toggled": true,
	},
}

// MismatchDetector decides whether a text needs translation. It should
// return early once ctx is done.
type MismatchDetector interface {
	Assess(ctx context.Context, plainText, targetCode string) domain.MismatchVerdict
}

// SessionDeps wires the controller.
type SessionDeps struct {
	Summary     *SummaryOrchestrator
	Translation *TranslationOrchestrator
	Detector    MismatchDetector
	Injector    *inject.Engine
	Fetcher     ports.ContentFetcher
	Logger      *slog.Logger
}

// SessionSnapshot is a copy of the controller state.
type SessionSnapshot struct {
	State       SessionState
	Session     domain.SessionKey
	Article     domain.Article
	Reason      string
	Summary     domain.SummaryState
	Translation TranslationSnapshot
}

// SessionController binds one article and render mode to a session and
// drives the summary and translation flows from surface events.
type SessionController struct {
	settings    config.AIConfig
	target      string
	summary     *SummaryOrchestrator
	translation *TranslationOrchestrator
	detector    MismatchDetector
	fetcher     ports.ContentFetcher
	logger      *slog.Logger

	mu      sync.Mutex
	state   SessionState
	article domain.Article
	session domain.SessionKey
	reason  string
	closed  bool
	// cancelDetect stops the detection pass of the current session.
	cancelDetect context.CancelFunc

	wg sync.WaitGroup
}

// NewSessionController builds a controller for cfg.
func NewSessionController(cfg config.Config, deps SessionDeps) *SessionController {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	summary := deps.Summary
	if summary == nil {
		summary = NewSummaryOrchestrator(cfg.AI, cfg.Extraction.SummaryMinLength, SummaryDeps{Injector: deps.Injector, Logger: logger})
	}
	translation := deps.Translation
	if translation == nil {
		translation = NewTranslationOrchestrator(cfg.AI, cfg.Extraction, TranslationDeps{Injector: deps.Injector, Logger: logger})
	}
	return &SessionController{
		settings:    cfg.AI,
		target:      cfg.TargetLanguage(),
		summary:     summary,
		translation: translation,
		detector:    deps.Detector,
		fetcher:     deps.Fetcher,
		logger:      logger,
	}
}

// Handle applies one event. Events the current state does not accept are
// dropped. The context is used for the flows the event starts and must stay
// valid until Wait returns.
func (c *SessionController) Handle(ctx context.Context, ev Event) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	state := c.state
	c.mu.Unlock()

	if !transitions[state][ev.eventName()] {
		c.logger.Debug("event ignored", "event", ev.eventName(), "state", state)
		return nil
	}

	switch e := ev.(type) {
	case ArticleChanged:
		mode := e.Mode
		if mode == "" || (mode != domain.RenderNormal && !e.Article.HasWebLink()) {
			mode = domain.RenderNormal
		}
		return c.open(ctx, e.Article, mode)
	case RenderModeToggled:
		return c.toggle(ctx, e.Mode)
	case SurfaceLoaded:
		c.surfaceLoaded(ctx)
	case SummaryRequested:
		c.requestSummary(ctx)
	case SurfaceMessage:
		if e.Text == inject.GenerateMessage {
			c.requestSummary(ctx)
		} else {
			c.logger.Debug("unknown surface message", "text", e.Text)
		}
	}
	return nil
}

func (c *SessionController) toggle(ctx context.Context, requested domain.RenderMode) error {
	c.mu.Lock()
	article := c.article
	current := c.session.Mode
	c.mu.Unlock()

	if requested != domain.RenderNormal && !article.HasWebLink() {
		c.logger.Debug("mode toggle ignored, no web link", "article_id", article.ID, "mode", requested)
		return nil
	}
	mode := requested
	if mode == current {
		mode = domain.RenderNormal
	}
	return c.open(ctx, article, mode)
}

// open starts a new session. Every piece of per-article state is reset.
func (c *SessionController) open(ctx context.Context, article domain.Article, mode domain.RenderMode) error {
	c.mu.Lock()
	session := domain.SessionKey{ArticleID: article.ID, Mode: mode, Seq: c.session.Seq + 1}
	c.session = session
	c.article = article
	c.reason = ""
	c.state = StateSurfaceLoading
	c.stopDetection()
	c.summary.Reset(session)
	c.translation.Reset(session)
	c.mu.Unlock()

	log := c.logger.With("article_id", article.ID, "mode", mode, "seq", session.Seq)
	log.Info("session opened")

	if mode != domain.RenderFullContent || article.FullContent != "" {
		return nil
	}
	if c.fetcher == nil {
		return c.failFull(session, log, errors.New("no content fetcher configured"))
	}

	full, err := c.fetcher.FetchFull(ctx, article.Link)
	if err != nil {
		return c.failFull(session, log, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != session {
		log.Debug("stale full content discarded")
		return nil
	}
	c.article.FullContent = full
	return nil
}

func (c *SessionController) failFull(session domain.SessionKey, log *slog.Logger, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != session {
		return nil
	}
	c.state = StateFailed
	c.reason = "full content unavailable"
	log.Warn("full content unavailable", "error", err)
	return fmt.Errorf("load full content: %w", err)
}

func (c *SessionController) surfaceLoaded(ctx context.Context) {
	c.mu.Lock()
	session := c.session
	article := c.article
	if !c.settings.Enabled || !session.Mode.Augmentable() {
		c.state = StatePassive
		c.mu.Unlock()
		c.logger.Debug("surface passive", "article_id", article.ID, "mode", session.Mode)
		return
	}
	c.state = StateActive
	c.mu.Unlock()

	log := c.logger.With("article_id", article.ID, "mode", session.Mode, "seq", session.Seq)

	plain, err := content.PlainText(article.ActiveContent(session.Mode))
	if err != nil {
		log.Warn("plain text extraction failed", "error", err)
	}

	if err := c.summary.Inject(ctx, session); err != nil {
		log.Warn("inject summary view", "error", err)
	}
	if c.summary.ShouldAutoStart(plain) {
		c.startSummary(ctx, session, article, plain)
	}

	if !c.settings.TranslateEnabled {
		return
	}
	if len(c.translation.Snapshot().Translations) > 0 {
		if err := c.translation.Reinject(ctx, session); err != nil {
			log.Warn("reinject translations", "error", err)
		}
		return
	}
	if !c.translation.Begin(session) {
		return
	}

	job := TranslationJob{Session: session, HTML: article.ActiveContent(session.Mode), TargetLanguage: c.target}
	detectCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.session != session {
		c.mu.Unlock()
		cancel()
		c.translation.Abandon(session)
		return
	}
	c.stopDetection()
	c.cancelDetect = cancel
	c.mu.Unlock()

	c.spawn(func() {
		defer cancel()
		if c.detector == nil {
			c.translation.Abandon(session)
			return
		}
		verdict := c.detector.Assess(detectCtx, plain, c.target)
		if !verdict.Triggered {
			log.Debug("translation not needed", "ratio", verdict.Ratio, "checked", verdict.CheckedCount)
			c.translation.Abandon(session)
			return
		}
		outcome := c.translation.Run(ctx, job)
		log.Debug("translation finished", "outcome", outcome)
	})
}

// stopDetection cancels a running detection pass. Callers hold c.mu.
func (c *SessionController) stopDetection() {
	if c.cancelDetect != nil {
		c.cancelDetect()
		c.cancelDetect = nil
	}
}

func (c *SessionController) requestSummary(ctx context.Context) {
	if !c.settings.Enabled {
		return
	}
	c.mu.Lock()
	session := c.session
	article := c.article
	c.mu.Unlock()

	plain, err := content.PlainText(article.ActiveContent(session.Mode))
	if err != nil {
		c.logger.Warn("plain text extraction failed", "article_id", article.ID, "error", err)
	}
	c.startSummary(ctx, session, article, plain)
}

func (c *SessionController) startSummary(ctx context.Context, session domain.SessionKey, article domain.Article, plain string) {
	if !c.summary.Begin(ctx, session) {
		return
	}
	job := SummaryJob{Session: session, Title: article.Title, PlainText: plain, TargetLanguage: c.target}
	c.spawn(func() {
		outcome := c.summary.Run(ctx, job)
		c.logger.Debug("summary finished", "article_id", article.ID, "outcome", outcome)
	})
}

func (c *SessionController) spawn(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

// Wait blocks until every flow started so far has finished or ctx is done.
func (c *SessionController) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close rejects further events. In-flight flows still complete; use Wait.
func (c *SessionController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Current returns the session key and article being displayed.
func (c *SessionController) Current() (domain.SessionKey, domain.Article) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session, c.article
}

// ActiveContent returns the body the surface should load for the current session.
func (c *SessionController) ActiveContent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.article.ActiveContent(c.session.Mode)
}

// Snapshot returns a copy of the controller and orchestrator state.
func (c *SessionController) Snapshot() SessionSnapshot {
	c.mu.Lock()
	snap := SessionSnapshot{
		State:   c.state,
		Session: c.session,
		Article: c.article,
		Reason:  c.reason,
	}
	c.mu.Unlock()
	snap.Summary = c.summary.State()
	snap.Translation = c.translation.Snapshot()
	return snap
}
