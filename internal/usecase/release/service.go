package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"release-radar/internal/domain/entity"
	"release-radar/internal/observability/logging"
	"release-radar/internal/observability/metrics"
	"release-radar/internal/observability/tracing"
	"release-radar/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers = 3
	MaxWorkers     = 5
)

// TokenSource yields a catalog access token for one run.
type TokenSource interface {
	Refresh(ctx context.Context) (*entity.Token, error)
}

// Catalog lists followed artists and their releases.
type Catalog interface {
	FollowedArtists(ctx context.Context, token *entity.Token) ([]entity.Artist, error)
	ArtistReleases(ctx context.Context, token *entity.Token, artistID string) ([]entity.Release, error)
}

// Notifier delivers releases and progress messages to a recipient.
// notify.Service satisfies it.
type Notifier interface {
	Deliver(ctx context.Context, recipient entity.Recipient, release *entity.Release) error
	SendStatus(ctx context.Context, recipient entity.Recipient, text string) error
}

// Config tunes a Service.
type Config struct {
	// Workers bounds concurrent artist fetches, clamped to 1..MaxWorkers.
	Workers int
	// DefaultWindow applies when neither the request nor the recipient sets one.
	DefaultWindow entity.RecencyWindow
}

// Service runs scans. Callers serialize runs per recipient; see Runner.
type Service struct {
	Tokens     TokenSource
	Catalog    Catalog
	Cache      *Cache
	Deliveries repository.DeliveryRepository
	Notifier   Notifier
	// Logger is the base logger for run logs; nil means slog.Default.
	Logger *slog.Logger

	cfg Config
	now func() time.Time
}

// NewService creates a scan service. A nil cache disables caching.
func NewService(
	tokens TokenSource,
	catalog Catalog,
	cache *Cache,
	deliveries repository.DeliveryRepository,
	notifier Notifier,
	cfg Config,
) *Service {
	if cfg.Workers < 1 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Workers > MaxWorkers {
		cfg.Workers = MaxWorkers
	}
	if cfg.DefaultWindow == 0 {
		cfg.DefaultWindow = 6
	}
	if cache == nil {
		cache = NewCache(0, 0)
	}
	return &Service{
		Tokens:     tokens,
		Catalog:    catalog,
		Cache:      cache,
		Deliveries: deliveries,
		Notifier:   notifier,
		cfg:        cfg,
		now:        time.Now,
	}
}

// ScanRequest describes one run.
type ScanRequest struct {
	Recipient entity.Recipient
	// Window overrides Recipient.Window when non-zero.
	Window entity.RecencyWindow
	// DryRun collects new releases without claiming, sending or status messages.
	DryRun bool
	// Trigger labels the run in metrics: cron, webhook, cli.
	Trigger string
	// Progress, if set, is called on every state change.
	Progress func(RunState)
}

// ScanStats summarizes a run. Counters are updated atomically while the run
// is in flight.
type ScanStats struct {
	RunID          string
	Window         entity.RecencyWindow
	Artists        int
	ArtistErrors   int64
	CacheHits      int64
	Found          int64
	Delivered      int64
	Duplicates     int64
	DeliveryErrors int64
	Cancelled      bool
	Duration       time.Duration
	// Releases holds the delivered releases, or in a dry run the releases
	// that would have been delivered.
	Releases []entity.Release
}

// Scan performs one run for req.Recipient.
//
// Token and artist listing failures abort the run. A failing artist is
// logged and skipped. Releases are claimed in the dedup store before they
// are sent and released again only if every channel failed, so a release
// is delivered at most once. Cancellation is honoured between artists and
// between releases; an in-flight send is allowed to finish.
func (s *Service) Scan(ctx context.Context, req ScanRequest) (stats *ScanStats, err error) {
	window := req.Window
	if window == 0 {
		window = req.Recipient.Window
	}
	if window == 0 {
		window = s.cfg.DefaultWindow
	}
	if verr := window.Validate(); verr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWindow, verr)
	}
	if req.Trigger == "" {
		req.Trigger = "manual"
	}

	stats = &ScanStats{RunID: uuid.New().String(), Window: window}
	if s.Logger != nil {
		ctx = logging.WithLogger(ctx, s.Logger)
	}
	ctx = logging.WithRunID(ctx, stats.RunID)
	ctx, span := tracing.StartSpan(ctx, "release.scan",
		attribute.String("chat_id", req.Recipient.ChatID),
		attribute.Int("window_months", int(window)),
		attribute.String("trigger", req.Trigger),
		attribute.Bool("dry_run", req.DryRun))
	logger := logging.FromContext(ctx).With(slog.String("chat_id", req.Recipient.ChatID))

	start := s.now()
	metrics.ScansInFlight.Inc()
	defer func() {
		metrics.ScansInFlight.Dec()
		stats.Duration = s.now().Sub(start)
		metrics.RecordScan(req.Trigger, scanStatus(stats, err), stats.Duration)
		span.SetAttributes(
			attribute.Int64("delivered", stats.Delivered),
			attribute.Int64("found", stats.Found))
		tracing.EndSpan(span, err)
		progress(req, StateDone)
	}()

	logger.Info("scan started",
		slog.Int("window_months", int(window)),
		slog.String("trigger", req.Trigger),
		slog.Bool("dry_run", req.DryRun))
	s.status(ctx, req, startMessage(window))

	progress(req, StateRefreshingToken)
	token, err := s.Tokens.Refresh(ctx)
	if err == nil && !token.Valid(s.now()) {
		err = fmt.Errorf("%w: refreshed token is already expired", entity.ErrAuthFailure)
	}
	if err != nil {
		logger.Error("token refresh failed", slog.Any("error", err))
		s.status(ctx, req, failedMessage("authenticating with Spotify"))
		return stats, fmt.Errorf("refresh token: %w", err)
	}

	progress(req, StateEnumeratingArtists)
	artists, err := s.Catalog.FollowedArtists(ctx, token)
	if err != nil {
		if ctx.Err() != nil {
			return s.cancelled(ctx, req, stats, logger)
		}
		logger.Error("listing followed artists failed", slog.Any("error", err))
		s.status(ctx, req, failedMessage("listing followed artists"))
		return stats, fmt.Errorf("list followed artists: %w", err)
	}
	stats.Artists = len(artists)

	progress(req, StateFetchingReleases)
	perArtist := s.fetchReleases(ctx, token, artists, window, stats)
	if ctx.Err() != nil {
		return s.cancelled(ctx, req, stats, logger)
	}

	progress(req, StateNotifying)
	s.deliver(ctx, req, perArtist, stats)
	if ctx.Err() != nil {
		return s.cancelled(ctx, req, stats, logger)
	}

	logger.Info("scan completed",
		slog.Int("artists", stats.Artists),
		slog.Int64("artist_errors", stats.ArtistErrors),
		slog.Int64("cache_hits", stats.CacheHits),
		slog.Int64("found", stats.Found),
		slog.Int64("delivered", stats.Delivered),
		slog.Int64("duplicates", stats.Duplicates),
		slog.Int64("delivery_errors", stats.DeliveryErrors),
		slog.Duration("duration", s.now().Sub(start)))
	s.status(ctx, req, summaryMessage(stats))

	return stats, nil
}

// fetchReleases collects the recent releases of every artist, indexed like
// artists. Failed artists leave a nil slot.
func (s *Service) fetchReleases(
	ctx context.Context,
	token *entity.Token,
	artists []entity.Artist,
	window entity.RecencyWindow,
	stats *ScanStats,
) [][]entity.Release {
	results := make([][]entity.Release, len(artists))

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)

	for i, artist := range artists {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			releases, hit, err := s.Cache.GetOrFetch(ctx, artist.ID, window, func(ctx context.Context) ([]entity.Release, error) {
				raw, err := s.Catalog.ArtistReleases(ctx, token, artist.ID)
				if err != nil {
					return nil, err
				}
				return FilterRecent(raw, window, s.now()), nil
			})
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				atomic.AddInt64(&stats.ArtistErrors, 1)
				metrics.RecordArtist(false)
				logging.FromContext(ctx).Warn("artist fetch failed, skipping",
					slog.String("artist_id", artist.ID),
					slog.String("artist", artist.Name),
					slog.Any("error", err))
				return nil
			}
			if hit {
				atomic.AddInt64(&stats.CacheHits, 1)
			}
			metrics.RecordArtist(true)
			results[i] = releases
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// deliver walks releases in artist order. Sends run on a context detached
// from cancellation so a started delivery completes; ctx is checked before
// each release.
func (s *Service) deliver(ctx context.Context, req ScanRequest, perArtist [][]entity.Release, stats *ScanStats) {
	logger := logging.FromContext(ctx)
	sendCtx := context.WithoutCancel(ctx)
	chatID := req.Recipient.ChatID
	seen := make(map[string]struct{})

	for _, releases := range perArtist {
		for i := range releases {
			if ctx.Err() != nil {
				return
			}
			rel := releases[i]
			// Collaborations show up under every credited artist.
			if _, dup := seen[rel.ID]; dup {
				continue
			}
			seen[rel.ID] = struct{}{}

			atomic.AddInt64(&stats.Found, 1)
			metrics.RecordRelease("found")

			if req.DryRun {
				sent, err := s.Deliveries.IsSent(ctx, chatID, rel.ID)
				if err != nil {
					logger.Warn("dedup lookup failed", slog.String("release_id", rel.ID), slog.Any("error", err))
				}
				if sent {
					atomic.AddInt64(&stats.Duplicates, 1)
					continue
				}
				stats.Releases = append(stats.Releases, rel)
				continue
			}

			opStart := time.Now()
			claimed, err := s.Deliveries.Claim(sendCtx, chatID, rel.ID)
			metrics.RecordDeliveryStoreOp("claim", time.Since(opStart))
			if err != nil {
				atomic.AddInt64(&stats.DeliveryErrors, 1)
				metrics.RecordRelease("failed")
				logger.Error("claiming release failed",
					slog.String("release_id", rel.ID),
					slog.Any("error", err))
				continue
			}
			if !claimed {
				atomic.AddInt64(&stats.Duplicates, 1)
				metrics.RecordRelease("duplicate")
				continue
			}

			if err := s.Notifier.Deliver(sendCtx, req.Recipient, &rel); err != nil {
				atomic.AddInt64(&stats.DeliveryErrors, 1)
				metrics.RecordRelease("failed")
				logger.Warn("release delivery failed",
					slog.String("release_id", rel.ID),
					slog.String("title", rel.Title),
					slog.Any("error", err))
				if uerr := s.Deliveries.Unmark(sendCtx, chatID, rel.ID); uerr != nil {
					logger.Error("rolling back claim failed",
						slog.String("release_id", rel.ID),
						slog.Any("error", uerr))
				}
				continue
			}

			atomic.AddInt64(&stats.Delivered, 1)
			metrics.RecordRelease("delivered")
			stats.Releases = append(stats.Releases, rel)
		}
	}
}

func (s *Service) cancelled(ctx context.Context, req ScanRequest, stats *ScanStats, logger *slog.Logger) (*ScanStats, error) {
	stats.Cancelled = true
	logger.Info("scan cancelled",
		slog.Int64("delivered", stats.Delivered),
		slog.Int64("found", stats.Found))
	s.status(context.WithoutCancel(ctx), req, summaryMessage(stats))
	return stats, ctx.Err()
}

// status sends a progress message. Failures are logged only.
func (s *Service) status(ctx context.Context, req ScanRequest, text string) {
	if req.DryRun || s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendStatus(ctx, req.Recipient, text); err != nil {
		logging.FromContext(ctx).Warn("status message failed", slog.Any("error", err))
	}
}

func progress(req ScanRequest, state RunState) {
	if req.Progress != nil {
		req.Progress(state)
	}
}

func scanStatus(stats *ScanStats, err error) string {
	switch {
	case stats.Cancelled || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case err != nil:
		return "failed"
	default:
		return "completed"
	}
}
