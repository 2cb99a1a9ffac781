package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/juju/clock"

	"paperscribe/internal/config"
	"paperscribe/internal/domain"
	"paperscribe/internal/filter"
	"paperscribe/internal/infrastructure/arxiv"
	"paperscribe/internal/infrastructure/llm"
	"paperscribe/internal/infrastructure/mail"
	"paperscribe/internal/infrastructure/scheduler"
	"paperscribe/internal/infrastructure/storage"
	"paperscribe/internal/infrastructure/telegram"
	"paperscribe/internal/infrastructure/web"
	"paperscribe/internal/ports"
	"paperscribe/internal/usecase"
)

// App owns the wiring and lifecycle of every component.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	repo      *storage.Repository
	pipeline  *usecase.Pipeline
	votes     *usecase.VoteService
	digests   *usecase.DigestService
	scheduler *scheduler.Interval
	server    *web.Server
}

// New wires the application from config. The caller owns Run and Close.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	repo, err := storage.Open(cfg.Database.Path, clock.WallClock)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	source := arxiv.NewClient(nil, clock.WallClock, logger)

	provider, err := llm.NewProvider(ctx, llm.Options{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("create llm provider: %w", err)
	}
	summarizer := llm.NewSummarizer(provider, logger)

	var deliverer ports.Deliverer
	if cfg.Telegram.Enabled {
		deliverer = telegram.NewNotifier(cfg.Telegram.Token, nil, logger)
	} else {
		deliverer = &logDeliverer{logger: logger.With("component", "deliverer")}
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:         source,
		Subs:           repo,
		Papers:         repo,
		Summarizer:     summarizer,
		Deliverer:      deliverer,
		Clock:          clock.WallClock,
		Logger:         logger,
		Categories:     cfg.ArXiv.Categories,
		MaxPerCategory: cfg.ArXiv.MaxPerCategory,
		MatchMode:      filter.Fuzzy,
	})

	votes := usecase.NewVoteService(repo, repo, logger)

	var digests *usecase.DigestService
	if cfg.Digest.Enabled {
		mailer := mail.NewMailer(mail.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, logger)
		digests = usecase.NewDigestService(usecase.DigestDeps{
			Source:     source,
			Configs:    repo,
			Summarizer: summarizer,
			Mailer:     mailer,
			Clock:      clock.WallClock,
			Logger:     logger,
		})
	}

	server := web.NewServer(cfg.Web.Addr, web.Deps{
		Subs:      repo,
		Papers:    repo,
		Votes:     repo,
		Bookmarks: repo,
		Digests:   repo,
		Stats:     repo,
		Source:    source,
		Runner:    pipeline,
		Events:    votes,
		Logger:    logger,
	})

	return &App{
		cfg:       cfg,
		logger:    logger,
		repo:      repo,
		pipeline:  pipeline,
		votes:     votes,
		digests:   digests,
		scheduler: scheduler.NewInterval(cfg.ArXiv.Interval(), clock.WallClock, logger),
		server:    server,
	}, nil
}

// Run starts the scheduler, digest checker and dashboard, then blocks until
// the context ends or the HTTP listener fails.
func (a *App) Run(ctx context.Context) error {
	err := a.scheduler.Start(ctx, func(time.Time) {
		if _, err := a.pipeline.RunAll(ctx); err != nil {
			a.logger.Error("scheduled cycle failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	if a.digests != nil {
		go a.digests.Run(ctx)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.server.Run() }()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("dashboard shutdown failed", "error", err)
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Error("scheduler stop failed", "error", err)
	}
	return nil
}

// Close releases resources held by the app.
func (a *App) Close() error {
	return a.repo.Close()
}

// logDeliverer stands in when no delivery platform is configured, so the
// pipeline still runs end to end against the local dashboard.
type logDeliverer struct {
	logger  *slog.Logger
	counter int64
}

func (d *logDeliverer) Deliver(_ context.Context, dest domain.Destination, paper domain.Paper, matched []string) (string, error) {
	d.counter++
	d.logger.Info("paper matched",
		"tenant", dest.Tenant, "channel", dest.Channel,
		"paper_id", paper.ID, "title", paper.Title, "keywords", matched)
	return "local-" + strconv.FormatInt(d.counter, 10), nil
}
