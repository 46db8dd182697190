package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nikalaichik/moderator-bot/internal/activity"
	"github.com/nikalaichik/moderator-bot/internal/admin"
	"github.com/nikalaichik/moderator-bot/internal/config"
	"github.com/nikalaichik/moderator-bot/internal/dispatcher"
	"github.com/nikalaichik/moderator-bot/internal/handler"
	"github.com/nikalaichik/moderator-bot/internal/metrics"
	"github.com/nikalaichik/moderator-bot/internal/nightmode"
	"github.com/nikalaichik/moderator-bot/internal/pipeline"
	"github.com/nikalaichik/moderator-bot/internal/pipeline/filters"
	"github.com/nikalaichik/moderator-bot/internal/platform"
	maxplatform "github.com/nikalaichik/moderator-bot/internal/platform/max"
	"github.com/nikalaichik/moderator-bot/internal/platform/telegram"
	"github.com/nikalaichik/moderator-bot/internal/registry"
	"github.com/nikalaichik/moderator-bot/internal/repository"
	"github.com/nikalaichik/moderator-bot/internal/service"
	"github.com/nikalaichik/moderator-bot/internal/wordlist"
)

// platformAdapter is what each messaging platform provides to the app.
type platformAdapter interface {
	platform.Client
	platform.Source
}

type App struct {
	cfg    *config.Config
	logger *slog.Logger
	client platformAdapter
}

func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	var (
		client platformAdapter
		err    error
	)
	switch cfg.Platform {
	case config.PlatformMax:
		client, err = maxplatform.New(logger, cfg.BotToken, maxplatform.WebhookConfig{
			Host:   cfg.WebhookHost,
			Port:   cfg.Port,
			Secret: cfg.WebhookSecret,
		})
	default:
		client, err = telegram.New(logger, cfg.BotToken, telegram.WebhookConfig{
			PublicURL: cfg.WebhookHost,
			Listen:    ":" + cfg.Port,
			Secret:    cfg.WebhookSecret,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create bot client: %w", err)
	}

	return &App{
		cfg:    cfg,
		logger: logger,
		client: client,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.logger.Info("Starting moderation bot", "platform", a.cfg.Platform)

	db, err := repository.Open(a.logger, repository.Options{
		Driver:  a.cfg.DBDriver,
		DSN:     a.cfg.DSN(),
		Tracing: a.cfg.EnableTelemetry,
	})
	if err != nil {
		return fmt.Errorf("failed to init db: %w", err)
	}
	muteRepo := repository.NewMuteRepository(db)
	tempMessageRepo := repository.NewTemporaryMessageRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	words, err := wordlist.Load(a.cfg.ForbiddenWordsFile)
	if err != nil {
		a.logger.Warn("Starting with an empty forbidden word list", "error", err)
	}
	reg := registry.New(registry.ModerationConfig{
		ForbiddenWords:        words.Words,
		SpamMessageLimit:      a.cfg.SpamMessageLimit,
		SpamWindowSeconds:     a.cfg.SpamTimeWindowSeconds,
		SpamMuteDurationHours: a.cfg.SpamMuteDurationHours,
	})
	a.logger.Info("Forbidden words loaded", "count", len(reg.Config().ForbiddenWords), "skipped", words.Skipped)

	windows := activity.NewStore()
	pl := pipeline.New(reg, windows, filters.Default())

	cache, err := a.adminCache(ctx)
	if err != nil {
		return err
	}
	oracle := admin.NewOracle(a.logger.With("system", "admin"), a.client, cache)

	schedule, err := a.cfg.Schedule()
	if err != nil {
		return fmt.Errorf("invalid night schedule: %w", err)
	}

	// the scheduler reports transitions to the service, which drives the scheduler
	var svc *service.ModerationService
	scheduler := nightmode.New(a.logger.With("system", "nightmode"), reg, a.client, schedule,
		nightmode.WithTransitionHook(func(ctx context.Context, chatID int64, phase registry.Phase, err error) {
			svc.OnNightTransition(ctx, chatID, phase, err)
		}),
	)
	svc = service.NewModerationService(a.logger, service.Deps{
		Client:      a.client,
		Registry:    reg,
		Windows:     windows,
		Pipeline:    pl,
		Night:       scheduler,
		MuteRepo:    muteRepo,
		TempRepo:    tempMessageRepo,
		StatsRepo:   statsRepo,
		WordsSource: a.cfg.ForbiddenWordsFile,
	}, service.Options{
		NoticeTTL:  a.cfg.NoticeTTL,
		RetryDelay: a.cfg.RetryDelay,
	})

	scheduler.Start()
	svc.StartMetricsUpdater(ctx)
	svc.StartCleanupTask(ctx)

	h := handler.NewHandler(a.logger, svc, oracle, a.cfg.DefaultMute())
	disp := dispatcher.New(ctx, a.logger, a.cfg.Workers, h.Handle)

	metricsSrv := metrics.NewServer(a.logger, a.cfg.MetricsAddr)
	go func() {
		if err := metricsSrv.Listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Metrics server failed", "error", err)
		}
	}()

	updates, cleanup, err := a.client.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start receiving updates: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-updates:
				if !ok {
					return
				}
				if err := disp.Add(ctx, msg); err != nil {
					if !errors.Is(err, dispatcher.ErrClosed) && !errors.Is(err, context.Canceled) {
						a.logger.Error("Failed to dispatch message", "chat_id", msg.ChatID, "error", err)
					}
					return
				}
			}
		}
	}()

	<-ctx.Done()
	a.logger.Info("Shutting down...")
	return a.shutdown(cleanup, scheduler, disp, metricsSrv)
}

// shutdown stops intake first, then the night-mode triggers, then drains
// queued messages, all within SHUTDOWN_TIMEOUT.
func (a *App) shutdown(cleanup func() error, scheduler *nightmode.Scheduler, disp *dispatcher.Dispatcher, metricsSrv *metrics.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := cleanup(); err != nil {
		errs = append(errs, err)
	}
	if err := scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := disp.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := metricsSrv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		a.logger.Error("Shutdown finished with errors", "error", err)
		return err
	}
	a.logger.Info("Shutdown complete")
	return nil
}

// adminCache picks Redis when configured, a process-local cache when a TTL
// is set and no cache otherwise.
func (a *App) adminCache(ctx context.Context) (admin.Cache, error) {
	switch {
	case a.cfg.RedisURL != "":
		cache, err := admin.NewRedisCacheFromURL(ctx, a.cfg.RedisURL, a.cfg.AdminCacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.logger.Info("Using redis admin cache", "ttl", a.cfg.AdminCacheTTL)
		return cache, nil
	case a.cfg.AdminCacheTTL > 0:
		return admin.NewMemCache(10_000, a.cfg.AdminCacheTTL), nil
	default:
		return nil, nil
	}
}
