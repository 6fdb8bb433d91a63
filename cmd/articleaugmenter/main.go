package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ArticleAugmenter/internal/app"
	"ArticleAugmenter/internal/config"
	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/infrastructure/render"
	"ArticleAugmenter/internal/logging"
	"ArticleAugmenter/internal/usecase"
)

var (
	configPath string
	logLevel   string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "articleaugmenter",
		Short: "Summarize and translate articles the way a feed reader displays them",
		Long: `articleaugmenter opens an article on an isolated rendering surface, detects
whether its text is written in the reader's language, and injects an AI
summary and inline translations.

Commands:
  augment          Augment one local HTML file or web page
  detect           Report the language mismatch verdict for an article
  feed             Augment every item of an RSS/Atom/JSON feed
  test-connection  Check the configured AI endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config path (default: $ARTICLE_AUGMENTER_CONFIG)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level")

	root.AddCommand(
		newAugmentCmd(),
		newDetectCmd(),
		newFeedCmd(),
		newTestConnectionCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	var cfg config.Config
	if configPath != "" {
		cfg = config.LoadFile(configPath)
	} else {
		cfg = config.Load()
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg
}

func newApp(ctx context.Context, cfg config.Config) (*app.Application, error) {
	// Logs go to stderr so stdout can carry pages and command streams.
	logger := logging.NewWithFormat(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	return app.New(ctx, cfg, logger)
}

// sourceFor picks the page source for URLs and the file source otherwise.
func sourceFor(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return "page"
	}
	return "file"
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

// ---------------------------------------------------------------------------
// augment
// ---------------------------------------------------------------------------

func newAugmentCmd() *cobra.Command {
	var (
		mode     string
		summary  bool
		commands string
		out      string
	)

	cmd := &cobra.Command{
		Use:   "augment <file|url>",
		Short: "Augment one article and print the resulting page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			application, err := newApp(ctx, loadConfig())
			if err != nil {
				return err
			}
			defer application.Close()

			articles, err := application.Registry().Fetch(ctx, sourceFor(args[0]), args[0])
			if err != nil {
				return err
			}
			if len(articles) == 0 {
				return fmt.Errorf("no article found at %s", args[0])
			}

			opts := app.Options{Mode: domain.ParseRenderMode(mode), RequestSummary: summary}
			if commands != "" {
				w, closeFn, err := openOutput(commands)
				if err != nil {
					return err
				}
				defer closeFn()
				opts.Commands = w
			}

			report := application.Augment(ctx, articles[0], opts)
			if report.Err != nil {
				return report.Err
			}

			w, closeFn, err := openOutput(out)
			if err != nil {
				return err
			}
			defer closeFn()
			if _, err := fmt.Fprintln(w, report.Page); err != nil {
				return fmt.Errorf("write page: %w", err)
			}
			printReport(report)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(domain.RenderNormal), "Render mode: normal, full, webpage")
	cmd.Flags().BoolVar(&summary, "summary", false, "Click the generate button after loading")
	cmd.Flags().StringVar(&commands, "commands", "", "Write injection commands as JSON lines to this path (- for stdout)")
	cmd.Flags().StringVar(&out, "out", "", "Write the augmented page here instead of stdout")
	return cmd
}

func printReport(report usecase.Report) {
	snap := report.Snapshot
	fmt.Fprintf(os.Stderr, "%s [%s] state=%s summary=%s translation=%s entries=%d\n",
		report.Article.Title, snap.Session.Mode, snap.State, snap.Summary.Phase,
		snap.Translation.Phase, len(snap.Translation.Translations))
}

// ---------------------------------------------------------------------------
// detect
// ---------------------------------------------------------------------------

func newDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <file|url>",
		Short: "Print the language mismatch verdict for an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := loadConfig()
			application, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			articles, err := application.Registry().Fetch(ctx, sourceFor(args[0]), args[0])
			if err != nil {
				return err
			}
			for _, article := range articles {
				verdict, err := application.Detect(ctx, article.Content)
				if err != nil {
					return err
				}
				fmt.Printf("%s\ttarget=%s\tchecked=%d\tnon_target=%d\tratio=%.2f\ttranslate=%t\n",
					article.Title, cfg.TargetLanguage(), verdict.CheckedCount, verdict.NonTargetCount,
					verdict.Ratio, verdict.Triggered)
			}
			return nil
		},
	}
	return cmd
}

// ---------------------------------------------------------------------------
// feed
// ---------------------------------------------------------------------------

func newFeedCmd() *cobra.Command {
	var (
		limit     int
		outDir    string
		summary   bool
		skipKnown bool
		every     time.Duration
		commands  string
	)

	cmd := &cobra.Command{
		Use:   "feed <url>",
		Short: "Augment every item of a feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := loadConfig()
			if limit > 0 {
				cfg.Feed.Limit = limit
			}
			if every > 0 {
				cfg.Feed.Interval = every
			}

			application, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("create %s: %w", outDir, err)
				}
			}

			opts := app.Options{RequestSummary: summary}
			if commands != "" {
				w, closeFn, err := openOutput(commands)
				if err != nil {
					return err
				}
				defer closeFn()
				// Items run concurrently and share the stream.
				opts.Commands = render.NewLockedWriter(w)
			}

			batch, err := application.Batch("feed", opts, skipKnown)
			if err != nil {
				return err
			}

			handle := func(reports []usecase.Report) {
				for i, report := range reports {
					printReport(report)
					if outDir == "" || report.Err != nil {
						continue
					}
					name := filepath.Join(outDir, fmt.Sprintf("%03d-%s.html", i+1, slug(report.Article.Title)))
					if err := os.WriteFile(name, []byte(report.Page), 0o644); err != nil {
						fmt.Fprintf(os.Stderr, "write %s: %v\n", name, err)
					}
				}
				if err := application.Notify(ctx, reports); err != nil {
					fmt.Fprintf(os.Stderr, "notify: %v\n", err)
				}
			}

			if cfg.Feed.Interval <= 0 {
				reports, err := batch.Process(ctx, args[0])
				if err != nil {
					return err
				}
				handle(reports)
				return nil
			}

			poller := application.Poller(batch, args[0], handle)
			if err := poller.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			return poller.Stop(context.Background())
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum feed items (default: feed.limit)")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory to write augmented pages to")
	cmd.Flags().BoolVar(&summary, "summary", false, "Request a summary for every item")
	cmd.Flags().BoolVar(&skipKnown, "skip-known", false, "Skip items that already have stored augmentations")
	cmd.Flags().DurationVar(&every, "every", 0, "Poll the feed at this interval, e.g. 30m (default: feed.interval)")
	cmd.Flags().StringVar(&commands, "commands", "", "Write injection commands as JSON lines to this path (- for stdout)")
	return cmd
}

func slug(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteByte('-')
		}
		if b.Len() >= 48 {
			break
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		return "article"
	}
	return s
}

// ---------------------------------------------------------------------------
// test-connection
// ---------------------------------------------------------------------------

func newTestConnectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test-connection",
		Short: "Send a minimal request to the configured AI endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			application, err := newApp(ctx, loadConfig())
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.TestConnection(ctx); err != nil {
				return err
			}
			fmt.Println("connection ok")
			return nil
		},
	}
	return cmd
}
