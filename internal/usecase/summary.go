package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"ArticleAugmenter/internal/config"
	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/inject"
	"ArticleAugmenter/internal/logging"
	"ArticleAugmenter/internal/ports"
)

// SummaryJob is one summary attempt bound to the session that started it.
type SummaryJob struct {
	Session        domain.SessionKey
	Title          string
	PlainText      string
	TargetLanguage string
}

// SummaryDeps wires the driven adapters of the orchestrator.
type SummaryDeps struct {
	API      ports.TextAPI
	Store    ports.AugmentationStore
	Injector *inject.Engine
	Logger   *slog.Logger
}

// SummaryOrchestrator owns the summary of the current session.
type SummaryOrchestrator struct {
	api       ports.TextAPI
	store     ports.AugmentationStore
	injector  *inject.Engine
	settings  config.AIConfig
	minLength int
	timeout   time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	session domain.SessionKey
	state   domain.SummaryState
}

// NewSummaryOrchestrator constructs the orchestrator. minLength is the plain
// text length the auto-summary gate requires.
func NewSummaryOrchestrator(settings config.AIConfig, minLength int, deps SummaryDeps) *SummaryOrchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &SummaryOrchestrator{
		api:       deps.API,
		store:     deps.Store,
		injector:  deps.Injector,
		settings:  settings,
		minLength: minLength,
		timeout:   settings.Timeout,
		logger:    logger,
	}
}

// Reset binds the orchestrator to a new session with no summary.
func (o *SummaryOrchestrator) Reset(session domain.SessionKey) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.session = session
	o.state = domain.SummaryState{}
}

// State returns the summary state of the current session.
func (o *SummaryOrchestrator) State() domain.SummaryState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// ShouldAutoStart evaluates the auto-summary gate for plainText, whose
// length is counted in characters.
func (o *SummaryOrchestrator) ShouldAutoStart(plainText string) bool {
	if !o.settings.Enabled || !o.settings.AutoSummary {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Phase == domain.SummaryAbsent && utf8.RuneCountInString(plainText) > o.minLength
}

// Inject re-sends the view for the current state.
func (o *SummaryOrchestrator) Inject(ctx context.Context, session domain.SessionKey) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != session {
		return nil
	}
	return o.injector.InjectSummary(ctx, o.state)
}

// Begin moves an absent summary to Loading and shows the loading view.
// It returns false when the session is stale or a summary exists or is loading.
func (o *SummaryOrchestrator) Begin(ctx context.Context, session domain.SessionKey) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != session || o.state.Phase != domain.SummaryAbsent {
		return false
	}
	o.state = domain.SummaryState{Phase: domain.SummaryLoading}
	if err := o.injector.InjectSummary(ctx, o.state); err != nil {
		o.logger.Warn("inject loading view", "error", err)
	}
	return true
}

// Run executes a job previously claimed with Begin.
func (o *SummaryOrchestrator) Run(ctx context.Context, job SummaryJob) Outcome {
	log := o.logger.With("article_id", job.Session.ArticleID, "mode", job.Session.Mode)
	key := domain.AugmentationKey{ArticleID: job.Session.ArticleID, Mode: job.Session.Mode, Language: job.TargetLanguage}

	if o.store != nil {
		cached, ok, err := o.store.LoadSummary(ctx, key)
		switch {
		case err != nil:
			log.Warn("load stored summary", "error", err)
		case ok && strings.TrimSpace(cached) != "":
			log.Debug("summary served from store")
			return o.complete(ctx, job.Session, cached, log)
		}
	}

	if o.api == nil {
		return o.fail(ctx, job.Session, log, fmt.Errorf("text api is not configured"))
	}

	log.Info("requesting summary", "chars", len(job.PlainText), "target", job.TargetLanguage)
	callCtx, cancel := withCallTimeout(ctx, o.timeout)
	text, err := o.api.Summarize(callCtx, ports.SummaryRequest{
		Settings:       o.settings,
		Title:          job.Title,
		PlainText:      job.PlainText,
		TargetLanguage: job.TargetLanguage,
	})
	cancel()
	if err != nil {
		return o.fail(ctx, job.Session, log, fmt.Errorf("summarize: %w", err))
	}
	if strings.TrimSpace(text) == "" {
		return o.fail(ctx, job.Session, log, errors.New("summarize: empty summary"))
	}

	outcome := o.complete(ctx, job.Session, text, log)
	if outcome == OutcomeSucceeded && o.store != nil {
		if err := o.store.SaveSummary(ctx, key, text); err != nil {
			log.Warn("store summary", "error", err)
		}
	}
	return outcome
}

func (o *SummaryOrchestrator) complete(ctx context.Context, session domain.SessionKey, text string, log *slog.Logger) Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != session {
		log.Debug("stale summary discarded")
		return OutcomeStale
	}
	o.state = domain.SummaryState{Phase: domain.SummaryReady, Text: text}
	log.Info("summary ready", "chars", len(text))
	if err := o.injector.InjectSummary(ctx, o.state); err != nil {
		log.Warn("inject summary", "error", err)
	}
	return OutcomeSucceeded
}

// fail returns the session to Absent so the generate button reappears.
func (o *SummaryOrchestrator) fail(ctx context.Context, session domain.SessionKey, log *slog.Logger, err error) Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != session {
		log.Debug("stale summary failure discarded", "error", err)
		return OutcomeStale
	}
	o.state = domain.SummaryState{}
	log.Warn("summary failed", "error", err)
	if injectErr := o.injector.InjectSummary(ctx, o.state); injectErr != nil {
		log.Warn("inject summary button", "error", injectErr)
	}
	return OutcomeFailed
}
