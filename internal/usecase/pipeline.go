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

// defaultLookback bounds the first fetch when no watermark exists yet.
const defaultLookback = 24 * time.Hour

// PipelineDeps carries the collaborators of a Pipeline.
type PipelineDeps struct {
	Source     ports.PaperSource
	Subs       ports.SubscriptionStore
	Papers     ports.PaperStore
	Summarizer ports.Summarizer
	Deliverer  ports.Deliverer
	Clock      clock.Clock
	Logger     *slog.Logger

	Categories     []string
	MaxPerCategory int
	MatchMode      filter.Mode
}

// Pipeline runs the fetch, dedup, filter and deliver cycle.
type Pipeline struct {
	deps PipelineDeps
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Clock == nil {
		deps.Clock = clock.WallClock
	}
	deps.Logger = deps.Logger.With("component", "pipeline")
	return &Pipeline{deps: deps}
}

// RunAll runs one cycle for every destination holding subscriptions.
// A destination that fails is logged and skipped; the rest still run.
func (p *Pipeline) RunAll(ctx context.Context) (int, error) {
	dests, err := p.deps.Subs.SubscribedDestinations(ctx)
	if err != nil {
		return 0, fmt.Errorf("list destinations: %w", err)
	}

	total := 0
	for _, dest := range dests {
		n, err := p.RunCycle(ctx, dest)
		if err != nil {
			p.deps.Logger.Error("cycle failed",
				"tenant", dest.Tenant, "channel", dest.Channel, "error", err)
			continue
		}
		total += n
	}
	return total, nil
}

// RunCycle fetches new papers for one destination, filters them against its
// subscribed keywords and delivers each match at most once. The watermark
// advances only after the delivery loop finishes, so a crash mid-cycle
// re-fetches rather than skips.
func (p *Pipeline) RunCycle(ctx context.Context, dest domain.Destination) (int, error) {
	log := p.deps.Logger.With("tenant", dest.Tenant, "channel", dest.Channel)

	keywords, err := p.deps.Subs.Keywords(ctx, dest)
	if err != nil {
		return 0, fmt.Errorf("load keywords: %w", err)
	}
	if len(keywords) == 0 {
		return 0, nil
	}

	since, err := p.deps.Papers.Watermark(ctx)
	if err != nil {
		return 0, fmt.Errorf("load watermark: %w", err)
	}
	cycleStart := p.deps.Clock.Now().UTC()
	if since.IsZero() {
		since = cycleStart.Add(-defaultLookback)
	}

	papers, err := p.deps.Source.FetchCategories(ctx, p.deps.Categories, since, p.deps.MaxPerCategory)
	if err != nil {
		return 0, fmt.Errorf("fetch papers: %w", err)
	}
	if len(papers) == 0 {
		log.Info("no papers fetched", "since", since)
		return 0, nil
	}

	papers = dropStale(papers, since)
	matches := filter.FilterPapers(papers, keywords, p.deps.MatchMode)
	log.Info("cycle filtered", "fetched", len(papers), "matched", len(matches))
	if len(matches) == 0 {
		return 0, nil
	}

	delivered := 0
	for _, match := range matches {
		ok, err := p.deliverOne(ctx, dest, match)
		if err != nil {
			log.Error("delivery failed", "paper_id", match.Paper.ID, "error", err)
			continue
		}
		if ok {
			delivered++
		}
	}

	if err := p.deps.Papers.SetWatermark(ctx, cycleStart); err != nil {
		return delivered, fmt.Errorf("advance watermark: %w", err)
	}
	log.Info("cycle complete", "delivered", delivered)
	return delivered, nil
}

func (p *Pipeline) deliverOne(ctx context.Context, dest domain.Destination, match filter.Match) (bool, error) {
	paper := match.Paper

	posted, err := p.deps.Papers.IsPosted(ctx, paper.ID, dest)
	if err != nil {
		return false, fmt.Errorf("check posting: %w", err)
	}
	if posted {
		return false, nil
	}

	summary, err := p.deps.Summarizer.Summarize(ctx, paper)
	if err != nil {
		return false, fmt.Errorf("summarize: %w", err)
	}
	paper.Summary = summary

	handle, err := p.deps.Deliverer.Deliver(ctx, dest, paper, match.Keywords)
	if err != nil {
		return false, fmt.Errorf("deliver: %w", err)
	}

	recorded, err := p.deps.Papers.RecordPosting(ctx, paper, match.Keywords, dest, handle)
	if err != nil {
		return false, fmt.Errorf("record posting: %w", err)
	}
	return recorded, nil
}

// dropStale removes papers published before the cut-off. Papers whose
// timestamp fails to parse stay in, since the upstream date filter is
// best-effort and losing a paper is worse than a duplicate check.
func dropStale(papers []domain.Paper, since time.Time) []domain.Paper {
	kept := papers[:0]
	for _, p := range papers {
		if t, ok := p.PublishedTime(); ok && t.Before(since) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}
