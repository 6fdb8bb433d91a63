package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"ArticleAugmenter/internal/config"
	"ArticleAugmenter/internal/content"
	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/i18n"
	"ArticleAugmenter/internal/infrastructure/cache"
	"ArticleAugmenter/internal/infrastructure/detect"
	"ArticleAugmenter/internal/infrastructure/fetch"
	"ArticleAugmenter/internal/infrastructure/llm"
	"ArticleAugmenter/internal/infrastructure/ml"
	"ArticleAugmenter/internal/infrastructure/parser"
	"ArticleAugmenter/internal/infrastructure/render"
	"ArticleAugmenter/internal/infrastructure/scheduler"
	"ArticleAugmenter/internal/infrastructure/storage"
	"ArticleAugmenter/internal/infrastructure/telegram"
	"ArticleAugmenter/internal/inject"
	"ArticleAugmenter/internal/language"
	"ArticleAugmenter/internal/logging"
	"ArticleAugmenter/internal/ports"
	"ArticleAugmenter/internal/source"
	"ArticleAugmenter/internal/usecase"
)

// Application wires configs to adapters and use cases.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	api      ports.TextAPI
	tester   *llm.Client
	detector *language.Detector
	store    ports.AugmentationStore
	index    ports.AugmentationIndex
	fetcher  ports.ContentFetcher
	registry *source.Registry
	catalog  *i18n.Catalog
	renderer *inject.Renderer
	notifier ports.Notifier
	db       *sql.DB
}

// Options adjusts how a single article is augmented.
type Options struct {
	Mode domain.RenderMode
	// RequestSummary clicks the generate button once the surface is loaded.
	RequestSummary bool
	// Commands, when set, receives every injection command as a JSON line.
	Commands io.Writer
}

// New builds the application. A configured database is opened and its
// schema ensured; failure to reach it is an error.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.NewWithFormat(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	}

	classifier, err := newClassifier(cfg.Detection, baseLogger.With("component", "ml"))
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}

	client := llm.NewClient(cfg.AI, baseLogger.With("component", "llm"))
	a := &Application{
		cfg:      cfg,
		logger:   baseLogger,
		api:      client,
		tester:   client,
		detector: language.NewDetector(cfg.Detection, classifier, baseLogger.With("component", "language")),
		catalog:  i18n.New(cfg.UI.Locale),
		renderer: inject.NewRenderer(),
	}

	var persistent ports.AugmentationStore
	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		pg := storage.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.db = db
		a.index = pg
		persistent = pg
	}
	a.store = cache.NewMemoryStore(cfg.Cache.TTL, cfg.Cache.CleanupInterval, persistent)

	httpClient := &http.Client{Timeout: cfg.Fetch.Timeout}
	fetcher := fetch.NewReadabilityFetcher(httpClient, cfg.Fetch)
	a.fetcher = fetcher

	a.registry = source.NewRegistry()
	a.registry.Register(parser.NewFileSource())
	a.registry.Register(parser.NewPageSource(fetcher))
	a.registry.Register(parser.NewFeedSource(httpClient, cfg.Fetch.UserAgent, cfg.Feed.Limit))

	if n := telegram.NewNotifier(cfg.Notify, nil); n != nil {
		a.notifier = n
	}

	return a, nil
}

func newClassifier(cfg config.DetectionConfig, logger *slog.Logger) (ports.LanguageClassifier, error) {
	if cfg.Backend == config.BackendHTTP {
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("detection.endpoint is required for the http backend")
		}
		return ml.NewClassifier(cfg, nil, logger), nil
	}
	return detect.NewLinguaClassifier(cfg.Languages)
}

// Close releases the database handle, if any.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Config returns the effective configuration.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Registry exposes the article sources.
func (a *Application) Registry() *source.Registry {
	return a.registry
}

// Detect runs the mismatch pipeline over the plain text of html.
func (a *Application) Detect(ctx context.Context, html string) (domain.MismatchVerdict, error) {
	plain, err := content.PlainText(html)
	if err != nil {
		return domain.MismatchVerdict{}, err
	}
	return a.detector.Assess(ctx, plain, a.cfg.TargetLanguage()), nil
}

// TestConnection sends a minimal request with the configured AI settings.
func (a *Application) TestConnection(ctx context.Context) error {
	return a.tester.TestConnection(ctx, a.cfg.AI)
}

// Augment opens article on a fresh surface, runs every flow the settings
// enable and returns the final page.
func (a *Application) Augment(ctx context.Context, article domain.Article, opts Options) usecase.Report {
	report := usecase.Report{Article: article}
	log := a.logger.With("component", "session", "article_id", article.ID)

	surface := render.New()
	var dispatcher ports.Surface = surface
	if opts.Commands != nil {
		dispatcher = render.NewRecorder(opts.Commands, surface)
	}

	engine := inject.NewEngine(dispatcher, content.SelectionFrom(a.cfg.Extraction), a.catalog.Labels(), a.renderer,
		a.logger.With("component", "inject"))
	controller := usecase.NewSessionController(a.cfg, usecase.SessionDeps{
		Summary: usecase.NewSummaryOrchestrator(a.cfg.AI, a.cfg.Extraction.SummaryMinLength, usecase.SummaryDeps{
			API:      a.api,
			Store:    a.store,
			Injector: engine,
			Logger:   a.logger.With("component", "usecase.summary"),
		}),
		Translation: usecase.NewTranslationOrchestrator(a.cfg.AI, a.cfg.Extraction, usecase.TranslationDeps{
			API:      a.api,
			Store:    a.store,
			Injector: engine,
			Logger:   a.logger.With("component", "usecase.translation"),
		}),
		Detector: a.detector,
		Injector: engine,
		Fetcher:  a.fetcher,
		Logger:   a.logger.With("component", "usecase.session"),
	})
	defer controller.Close()

	surface.OnMessage(func(msg string) {
		if err := controller.Handle(ctx, usecase.SurfaceMessage{Text: msg}); err != nil {
			log.Warn("surface message", "error", err)
		}
	})

	if err := controller.Handle(ctx, usecase.ArticleChanged{Article: article, Mode: opts.Mode}); err != nil {
		report.Err = err
		report.Snapshot = controller.Snapshot()
		return report
	}

	_, current := controller.Current()
	if err := surface.Load(current, controller.ActiveContent()); err != nil {
		report.Err = err
		return report
	}
	if err := controller.Handle(ctx, usecase.SurfaceLoaded{}); err != nil {
		report.Err = err
		return report
	}
	if opts.RequestSummary {
		surface.Click(inject.GenerateButtonID)
	}

	if err := controller.Wait(ctx); err != nil {
		report.Err = fmt.Errorf("wait for session: %w", err)
	}

	report.Snapshot = controller.Snapshot()
	report.Article = report.Snapshot.Article
	if page, err := surface.HTML(); err == nil {
		report.Page = page
	}
	return report
}

type augmenter struct {
	app  *Application
	opts Options
}

func (g augmenter) Augment(ctx context.Context, article domain.Article) usecase.Report {
	return g.app.Augment(ctx, article, g.opts)
}

// Batch returns the batch use case over the named source.
func (a *Application) Batch(sourceName string, opts Options, skipKnown bool) (*usecase.Batch, error) {
	src, err := a.registry.Resolve(sourceName)
	if err != nil {
		return nil, err
	}
	deps := usecase.BatchDeps{
		Source:    src,
		Augmenter: augmenter{app: a, opts: opts},
		Logger:    a.logger.With("component", "usecase.batch"),
	}
	if skipKnown {
		deps.Index = a.index
	}
	return usecase.NewBatch(deps, a.cfg.Feed.Concurrency), nil
}

// Poller re-runs batch against ref every feed.interval and hands results to report.
func (a *Application) Poller(batch *usecase.Batch, ref string, report func([]usecase.Report)) *usecase.Poller {
	return usecase.NewPoller(scheduler.NewTickerScheduler(a.cfg.Feed.Interval), batch, ref, report,
		a.logger.With("component", "usecase.poller"))
}

// Notify publishes a digest of reports when a notifier is configured.
func (a *Application) Notify(ctx context.Context, reports []usecase.Report) error {
	if a.notifier == nil {
		return nil
	}
	digest := usecase.BuildDigest(reports)
	if digest == "" {
		return nil
	}
	if err := a.notifier.PublishDigest(ctx, digest); err != nil {
		return fmt.Errorf("publish digest: %w", err)
	}
	return nil
}
