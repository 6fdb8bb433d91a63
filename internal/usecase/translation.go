package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ArticleAugmenter/internal/config"
	"ArticleAugmenter/internal/content"
	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/inject"
	"ArticleAugmenter/internal/logging"
	"ArticleAugmenter/internal/ports"
)

// TranslationPhase is the per-session translation lifecycle.
type TranslationPhase int

const (
	TranslationIdle TranslationPhase = iota
	TranslationExtracting
	TranslationAwaiting
	TranslationSucceeded
	TranslationFailed
)

func (p TranslationPhase) String() string {
	switch p {
	case TranslationExtracting:
		return "extracting"
	case TranslationAwaiting:
		return "awaiting_response"
	case TranslationSucceeded:
		return "succeeded"
	case TranslationFailed:
		return "failed"
	default:
		return "idle"
	}
}

// TranslationJob is one attempt bound to the session that started it.
type TranslationJob struct {
	Session        domain.SessionKey
	HTML           string
	TargetLanguage string
}

// TranslationDeps wires the driven adapters of the orchestrator.
type TranslationDeps struct {
	API      ports.TextAPI
	Store    ports.AugmentationStore
	Injector *inject.Engine
	Logger   *slog.Logger
}

// TranslationSnapshot is a copy of the orchestrator state.
type TranslationSnapshot struct {
	Session      domain.SessionKey
	Phase        TranslationPhase
	Loading      bool
	Translations domain.TranslationMap
}

// TranslationOrchestrator extracts translatable elements, translates them in
// one batch and injects the result, for at most one attempt per session.
type TranslationOrchestrator struct {
	api       ports.TextAPI
	store     ports.AugmentationStore
	injector  *inject.Engine
	extractor content.Extractor
	settings  config.AIConfig
	timeout   time.Duration
	logger    *slog.Logger

	mu           sync.Mutex
	session      domain.SessionKey
	phase        TranslationPhase
	loading      bool
	translations domain.TranslationMap
}

// NewTranslationOrchestrator constructs the orchestrator.
func NewTranslationOrchestrator(settings config.AIConfig, extraction config.ExtractionConfig, deps TranslationDeps) *TranslationOrchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &TranslationOrchestrator{
		api:       deps.API,
		store:     deps.Store,
		injector:  deps.Injector,
		extractor: content.NewExtractor(content.SelectionFrom(extraction), extraction.MinTextLength),
		settings:  settings,
		timeout:   settings.Timeout,
		logger:    logger,
	}
}

// Reset discards all state and binds the orchestrator to a new session.
func (o *TranslationOrchestrator) Reset(session domain.SessionKey) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.session = session
	o.phase = TranslationIdle
	o.loading = false
	o.translations = nil
}

// Begin claims the single translation slot of session. It fails when the
// session is not current, an attempt is in flight or a map already exists.
func (o *TranslationOrchestrator) Begin(session domain.SessionKey) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != session || o.loading || len(o.translations) > 0 {
		return false
	}
	o.loading = true
	return true
}

// Abandon releases a slot claimed by Begin without running, e.g. when the
// mismatch verdict did not trigger.
func (o *TranslationOrchestrator) Abandon(session domain.SessionKey) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == session {
		o.loading = false
		o.phase = TranslationIdle
	}
}

// Snapshot returns a copy of the current state.
func (o *TranslationOrchestrator) Snapshot() TranslationSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return TranslationSnapshot{
		Session:      o.session,
		Phase:        o.phase,
		Loading:      o.loading,
		Translations: o.translations.Clone(),
	}
}

// Reinject re-sends the current map, e.g. after the surface reloaded.
func (o *TranslationOrchestrator) Reinject(ctx context.Context, session domain.SessionKey) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != session || len(o.translations) == 0 {
		return nil
	}
	return o.injector.InjectTranslations(ctx, o.translations)
}

// Run executes a job previously claimed with Begin. Errors never escape:
// they end as OutcomeFailed with the loading flag cleared.
func (o *TranslationOrchestrator) Run(ctx context.Context, job TranslationJob) Outcome {
	log := o.logger.With("article_id", job.Session.ArticleID, "mode", job.Session.Mode)

	if !o.advance(job.Session, TranslationExtracting) {
		return OutcomeStale
	}

	index, err := o.extractor.IndexHTML(job.HTML)
	if err != nil {
		return o.fail(job.Session, log, fmt.Errorf("extract: %w", err))
	}
	if len(index) == 0 {
		log.Debug("no translatable elements")
		o.Abandon(job.Session)
		return OutcomeEmpty
	}

	key := domain.AugmentationKey{ArticleID: job.Session.ArticleID, Mode: job.Session.Mode, Language: job.TargetLanguage}
	if cached, ok := o.loadCached(ctx, key, log); ok {
		return o.complete(ctx, job.Session, cached, log)
	}

	if o.api == nil {
		return o.fail(job.Session, log, fmt.Errorf("text api is not configured"))
	}

	body, err := index.JSON()
	if err != nil {
		return o.fail(job.Session, log, fmt.Errorf("encode index: %w", err))
	}

	if !o.advance(job.Session, TranslationAwaiting) {
		return OutcomeStale
	}
	log.Info("requesting translation", "elements", len(index), "target", job.TargetLanguage)

	callCtx, cancel := withCallTimeout(ctx, o.timeout)
	raw, err := o.api.Translate(callCtx, ports.TranslationRequest{
		Settings:       o.settings,
		TargetLanguage: job.TargetLanguage,
		JSONBody:       body,
	})
	cancel()
	if err != nil {
		return o.fail(job.Session, log, fmt.Errorf("translate: %w", err))
	}

	translations, err := ParseTranslation(raw)
	if err != nil {
		return o.fail(job.Session, log, err)
	}

	outcome := o.complete(ctx, job.Session, translations, log)
	if outcome == OutcomeSucceeded && o.store != nil {
		if err := o.store.SaveTranslation(ctx, key, translations); err != nil {
			log.Warn("store translation", "error", err)
		}
	}
	return outcome
}

func (o *TranslationOrchestrator) loadCached(ctx context.Context, key domain.AugmentationKey, log *slog.Logger) (domain.TranslationMap, bool) {
	if o.store == nil {
		return nil, false
	}
	cached, ok, err := o.store.LoadTranslation(ctx, key)
	if err != nil {
		log.Warn("load stored translation", "error", err)
		return nil, false
	}
	if ok && len(cached) > 0 {
		log.Debug("translation served from store")
		return cached, true
	}
	return nil, false
}

func (o *TranslationOrchestrator) advance(session domain.SessionKey, phase TranslationPhase) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != session {
		return false
	}
	o.phase = phase
	return true
}

// complete stores and injects translations unless the session changed.
// Injection happens under the lock so a concurrent Reset cannot interleave.
func (o *TranslationOrchestrator) complete(ctx context.Context, session domain.SessionKey, translations domain.TranslationMap, log *slog.Logger) Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != session {
		log.Debug("stale translation discarded")
		return OutcomeStale
	}

	o.translations = translations.Clone()
	o.loading = false
	o.phase = TranslationSucceeded
	log.Info("translation ready", "entries", len(translations))

	if err := o.injector.InjectTranslations(ctx, o.translations); err != nil {
		log.Warn("inject translations", "error", err)
	}
	return OutcomeSucceeded
}

func (o *TranslationOrchestrator) fail(session domain.SessionKey, log *slog.Logger, err error) Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != session {
		log.Debug("stale translation failure discarded", "error", err)
		return OutcomeStale
	}
	o.loading = false
	o.phase = TranslationFailed
	o.translations = nil
	log.Warn("translation failed", "error", err)
	return OutcomeFailed
}

// ParseTranslation decodes the ordinal-keyed reply, tolerating a markdown
// code fence around the JSON object.
func ParseTranslation(raw string) (domain.TranslationMap, error) {
	text := stripCodeFence(strings.TrimSpace(raw))
	if text == "" {
		return nil, fmt.Errorf("parse translation: empty response")
	}
	var translations domain.TranslationMap
	if err := json.Unmarshal([]byte(text), &translations); err != nil {
		return nil, fmt.Errorf("parse translation: %w", err)
	}
	if translations == nil {
		return nil, fmt.Errorf("parse translation: not an object")
	}
	return translations, nil
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
