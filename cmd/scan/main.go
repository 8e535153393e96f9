// Command scan runs a single release scan and exits. With -dry-run it lists
// the releases that would be sent without sending or recording them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"release-radar/internal/app"
	"release-radar/internal/config"
	"release-radar/internal/domain/entity"
	"release-radar/internal/handler/http/respond"
	"release-radar/internal/observability/logging"
	"release-radar/internal/usecase/release"
)

type options struct {
	months  int
	chat    string
	dryRun  bool
	timeout time.Duration
	envFile string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.IntVar(&opts.months, "months", 0, "recency window in months (1-24); default from the recipient or RECENCY_MONTHS")
	fs.StringVar(&opts.chat, "chat", "", "Telegram chat ID; default TELEGRAM_CHAT_ID")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "print new releases instead of sending them")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Minute, "maximum scan duration")
	fs.StringVar(&opts.envFile, "env", ".env", "optional .env file")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.months != 0 {
		if err := entity.RecencyWindow(opts.months).Validate(); err != nil {
			return opts, fmt.Errorf("-months: %w", err)
		}
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(opts, os.Stdout); err != nil {
		slog.Error("scan failed", slog.String("error", respond.SanitizeError(err)))
		os.Exit(1)
	}
}

func run(opts options, out io.Writer) error {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return err
	}
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAppConfig(logger, nil)
	if err != nil {
		return err
	}
	recipients, err := config.LoadRecipients(cfg.RecipientsFile, cfg.DefaultRecipient())
	if err != nil {
		return err
	}
	recipient := pickRecipient(recipients, cfg.DefaultRecipient(), opts.chat)

	pipeline, err := app.Build(ctx, cfg, 5, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pipeline.Close(closeCtx); err != nil {
			logger.Warn("close failed", slog.String("error", respond.SanitizeError(err)))
		}
	}()

	runner := release.NewRunner(pipeline.Service, opts.timeout)
	stats, err := runner.RunOnce(ctx, release.ScanRequest{
		Recipient: recipient,
		Window:    entity.RecencyWindow(opts.months),
		DryRun:    opts.dryRun,
		Trigger:   "cli",
	})
	if stats != nil {
		printStats(out, stats, opts.dryRun)
	}
	return err
}

// pickRecipient resolves -chat against the recipients list so a listed
// chat keeps its own window.
func pickRecipient(recipients []entity.Recipient, def entity.Recipient, chat string) entity.Recipient {
	if chat == "" {
		return def
	}
	for _, r := range recipients {
		if r.ChatID == chat {
			return r
		}
	}
	return entity.Recipient{ChatID: chat, Window: def.Window}
}

func printStats(w io.Writer, stats *release.ScanStats, dryRun bool) {
	if dryRun {
		fmt.Fprintf(w, "Releases from the last %d months not yet sent:\n", int(stats.Window))
		for i := range stats.Releases {
			r := &stats.Releases[i]
			fmt.Fprintf(w, "  %-18s %s – %s (%s)", r.Released.String(), r.Artists(), r.Title, r.Kind())
			if r.URL != "" {
				fmt.Fprintf(w, " %s", r.URL)
			}
			fmt.Fprintln(w)
		}
		if len(stats.Releases) == 0 {
			fmt.Fprintln(w, "  (none)")
		}
	}

	fmt.Fprintf(w, "artists=%d artist_errors=%d found=%d delivered=%d duplicates=%d delivery_errors=%d cache_hits=%d cancelled=%t duration=%s\n",
		stats.Artists, stats.ArtistErrors, stats.Found, stats.Delivered, stats.Duplicates,
		stats.DeliveryErrors, stats.CacheHits, stats.Cancelled, stats.Duration.Round(time.Millisecond))
}
