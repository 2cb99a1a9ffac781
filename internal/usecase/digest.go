package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/juju/clock"

	"paperscribe/internal/domain"
	"paperscribe/internal/filter"
	"paperscribe/internal/ports"
)

const (
	// digestCheckInterval is how often due configs are re-evaluated.
	digestCheckInterval = 5 * time.Minute

	digestLookbackDaily  = 24 * time.Hour
	digestLookbackWeekly = 7 * 24 * time.Hour

	digestMaxPerCategory = 50
)

// DigestDeps carries the collaborators of a DigestService.
type DigestDeps struct {
	Source     ports.PaperSource
	Configs    ports.DigestStore
	Summarizer ports.Summarizer
	Mailer     ports.DigestMailer
	Clock      clock.Clock
	Logger     *slog.Logger
}

// DigestService sends periodic email digests of matching papers.
type DigestService struct {
	deps DigestDeps
}

func NewDigestService(deps DigestDeps) *DigestService {
	if deps.Clock == nil {
		deps.Clock = clock.WallClock
	}
	deps.Logger = deps.Logger.With("component", "digest")
	return &DigestService{deps: deps}
}

// Run checks for due digests every few minutes until the context ends.
func (s *DigestService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.deps.Clock.After(digestCheckInterval):
			s.CheckDue(ctx)
		}
	}
}

// CheckDue sends every digest whose schedule has come around. Failures are
// per-config: one broken mailbox does not block the others.
func (s *DigestService) CheckDue(ctx context.Context) {
	configs, err := s.deps.Configs.DigestConfigs(ctx)
	if err != nil {
		s.deps.Logger.Error("load digest configs", "error", err)
		return
	}

	now := s.deps.Clock.Now().UTC()
	for _, cfg := range configs {
		if !due(cfg, now) {
			continue
		}
		if err := s.send(ctx, cfg, now); err != nil {
			s.deps.Logger.Error("digest failed", "target", cfg.Target, "error", err)
		}
	}
}

// due applies the cadence gate. The hour check accepts a one-hour window so
// a checker that wakes a few minutes late still fires.
func due(cfg domain.DigestConfig, now time.Time) bool {
	if !cfg.Enabled {
		return false
	}

	switch cfg.Cadence {
	case domain.DigestDaily:
		if !cfg.LastSent.IsZero() && now.Sub(cfg.LastSent) < 20*time.Hour {
			return false
		}
	case domain.DigestWeekly:
		if !cfg.LastSent.IsZero() && now.Sub(cfg.LastSent) < 6*24*time.Hour {
			return false
		}
	default:
		return false
	}

	diff := now.Hour() - cfg.SendHour
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}

func (s *DigestService) send(ctx context.Context, cfg domain.DigestConfig, now time.Time) error {
	lookback := digestLookbackDaily
	if cfg.Cadence == domain.DigestWeekly {
		lookback = digestLookbackWeekly
	}

	papers, err := s.deps.Source.FetchCategories(ctx, cfg.Categories, now.Add(-lookback), digestMaxPerCategory)
	if err != nil {
		return fmt.Errorf("fetch papers: %w", err)
	}

	if len(cfg.Keywords) > 0 {
		matches := filter.FilterPapers(papers, cfg.Keywords, filter.Fuzzy)
		papers = papers[:0]
		for _, m := range matches {
			papers = append(papers, m.Paper)
		}
	}

	if len(papers) > 0 {
		for i := range papers {
			summary, err := s.deps.Summarizer.Summarize(ctx, papers[i])
			if err != nil {
				return fmt.Errorf("summarize: %w", err)
			}
			papers[i].Summary = summary
		}
		if err := s.deps.Mailer.SendDigest(ctx, cfg.Target, papers); err != nil {
			return fmt.Errorf("send digest: %w", err)
		}
		s.deps.Logger.Info("digest sent", "target", cfg.Target, "papers", len(papers))
	} else {
		s.deps.Logger.Info("digest window empty", "target", cfg.Target)
	}

	// An empty window still consumes the slot, otherwise the checker would
	// re-evaluate the same config every few minutes for a whole hour.
	if err := s.deps.Configs.UpdateDigestLastSent(ctx, cfg.ID, now); err != nil {
		return fmt.Errorf("update last sent: %w", err)
	}
	return nil
}
