package inject

import (
	"context"
	"fmt"
	"log/slog"

	"ArticleAugmenter/internal/content"
	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/logging"
)

// Dispatcher delivers commands to the rendering surface.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd Command) error
}

// Engine turns session state into commands and hands them to the surface.
type Engine struct {
	surface   Dispatcher
	selection content.Selection
	labels    Labels
	renderer  *Renderer
	logger    *slog.Logger
}

// NewEngine wires the engine. selection must be the one used for extraction.
func NewEngine(surface Dispatcher, selection content.Selection, labels Labels, renderer *Renderer, logger *slog.Logger) *Engine {
	if renderer == nil {
		renderer = NewRenderer()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{
		surface:   surface,
		selection: selection,
		labels:    labels,
		renderer:  renderer,
		logger:    logger,
	}
}

// SummaryCommand builds the full-replace command for the summary container.
func (e *Engine) SummaryCommand(state domain.SummaryState) Command {
	cmd := newCommand(KindSummary)
	payload := &SummaryPayload{Labels: e.labels}
	switch {
	case state.Phase == domain.SummaryReady && state.Text != "":
		payload.View = ViewCard
		payload.HTML = e.renderer.RenderOrEscape(state.Text)
	case state.Phase == domain.SummaryLoading:
		payload.View = ViewLoading
	default:
		payload.View = ViewButton
	}
	cmd.Summary = payload
	return cmd
}

// TranslationCommand builds the annotation command. It returns false for an empty map.
func (e *Engine) TranslationCommand(translations domain.TranslationMap) (Command, bool) {
	if len(translations) == 0 {
		return Command{}, false
	}
	cmd := newCommand(KindTranslation)
	cmd.Translation = &TranslationPayload{
		RootSelector: e.selection.Root,
		ItemSelector: e.selection.Items,
		Entries:      translations.Clone(),
	}
	return cmd, true
}

// InjectSummary issues the summary command for state.
func (e *Engine) InjectSummary(ctx context.Context, state domain.SummaryState) error {
	return e.dispatch(ctx, e.SummaryCommand(state))
}

// InjectTranslations issues the translation command; an empty map is a no-op.
func (e *Engine) InjectTranslations(ctx context.Context, translations domain.TranslationMap) error {
	cmd, ok := e.TranslationCommand(translations)
	if !ok {
		return nil
	}
	return e.dispatch(ctx, cmd)
}

func (e *Engine) dispatch(ctx context.Context, cmd Command) error {
	if e == nil || e.surface == nil {
		return nil
	}
	if err := e.surface.Dispatch(ctx, cmd); err != nil {
		return fmt.Errorf("dispatch %s command: %w", cmd.Kind, err)
	}
	e.logger.Debug("command dispatched", "kind", cmd.Kind, "id", cmd.ID)
	return nil
}
