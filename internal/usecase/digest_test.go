package usecase

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/juju/clock/testclock"

	"paperscribe/internal/domain"
)

type fakeDigestStore struct {
	configs  []domain.DigestConfig
	lastSent map[int64]time.Time
}

func (f *fakeDigestStore) SaveDigestConfig(_ context.Context, _ domain.DigestConfig) (int64, error) {
	return 0, nil
}

func (f *fakeDigestStore) DigestConfigs(_ context.Context) ([]domain.DigestConfig, error) {
	return f.configs, nil
}

func (f *fakeDigestStore) UpdateDigestLastSent(_ context.Context, id int64, t time.Time) error {
	if f.lastSent == nil {
		f.lastSent = map[int64]time.Time{}
	}
	f.lastSent[id] = t
	return nil
}

type sentDigest struct {
	target string
	papers []domain.Paper
}

type fakeMailer struct {
	sent []sentDigest
}

func (f *fakeMailer) SendDigest(_ context.Context, target string, papers []domain.Paper) error {
	f.sent = append(f.sent, sentDigest{target, papers})
	return nil
}

func testDigestService(source *fakeSource, store *fakeDigestStore, mailer *fakeMailer, clk *testclock.Clock) *DigestService {
	return NewDigestService(DigestDeps{
		Source:     source,
		Configs:    store,
		Summarizer: fakeSummarizer{},
		Mailer:     mailer,
		Clock:      clk,
		Logger:     slog.New(slog.DiscardHandler),
	})
}

func TestDueDailyCadence(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 2, 9, 10, 0, 0, time.UTC)
	cfg := domain.DigestConfig{Enabled: true, Cadence: domain.DigestDaily, SendHour: 9}

	if !due(cfg, now) {
		t.Fatal("never-sent daily digest at send hour should be due")
	}

	cfg.LastSent = now.Add(-2 * time.Hour)
	if due(cfg, now) {
		t.Fatal("recently sent digest should not be due")
	}

	cfg.LastSent = now.Add(-23 * time.Hour)
	if !due(cfg, now) {
		t.Fatal("day-old digest at send hour should be due")
	}

	cfg.SendHour = 15
	if due(cfg, now) {
		t.Fatal("digest outside its send hour should not be due")
	}
}

func TestDueWeeklyCadence(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 8, 9, 0, 0, 0, time.UTC)
	cfg := domain.DigestConfig{Enabled: true, Cadence: domain.DigestWeekly, SendHour: 9}

	cfg.LastSent = now.Add(-3 * 24 * time.Hour)
	if due(cfg, now) {
		t.Fatal("three-day-old weekly digest should not be due")
	}

	cfg.LastSent = now.Add(-7 * 24 * time.Hour)
	if !due(cfg, now) {
		t.Fatal("week-old weekly digest should be due")
	}
}

func TestDueDisabledAndUnknownCadence(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)

	cfg := domain.DigestConfig{Enabled: false, Cadence: domain.DigestDaily, SendHour: 9}
	if due(cfg, now) {
		t.Fatal("disabled digest should never be due")
	}

	cfg = domain.DigestConfig{Enabled: true, Cadence: "hourly", SendHour: 9}
	if due(cfg, now) {
		t.Fatal("unknown cadence should never be due")
	}
}

func TestCheckDueSendsMatchingPapers(t *testing.T) {
	t.Parallel()

	clk := testclock.NewClock(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))
	source := &fakeSource{papers: []domain.Paper{
		paperAbout("p1", "Scaling Transformers"),
		paperAbout("p2", "Bird Migration Patterns"),
	}}
	store := &fakeDigestStore{configs: []domain.DigestConfig{{
		ID:       1,
		Target:   "reader@example.com",
		Keywords: []string{"transformers"},
		Cadence:  domain.DigestDaily,
		SendHour: 9,
		Enabled:  true,
	}}}
	mailer := &fakeMailer{}

	testDigestService(source, store, mailer, clk).CheckDue(context.Background())

	if len(mailer.sent) != 1 {
		t.Fatalf("sent = %v, want one digest", mailer.sent)
	}
	got := mailer.sent[0]
	if got.target != "reader@example.com" {
		t.Fatalf("target = %q", got.target)
	}
	if len(got.papers) != 1 || got.papers[0].ID != "p1" {
		t.Fatalf("papers = %v, want only the keyword match", got.papers)
	}
	if got.papers[0].Summary == "" {
		t.Fatal("digest papers should carry summaries")
	}
	if _, ok := store.lastSent[1]; !ok {
		t.Fatal("last sent not updated after successful send")
	}
}

func TestCheckDueEmptyWindowStillConsumesSlot(t *testing.T) {
	t.Parallel()

	clk := testclock.NewClock(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))
	source := &fakeSource{}
	store := &fakeDigestStore{configs: []domain.DigestConfig{{
		ID:       1,
		Target:   "reader@example.com",
		Cadence:  domain.DigestDaily,
		SendHour: 9,
		Enabled:  true,
	}}}
	mailer := &fakeMailer{}

	testDigestService(source, store, mailer, clk).CheckDue(context.Background())

	if len(mailer.sent) != 0 {
		t.Fatalf("sent = %v, want none for empty window", mailer.sent)
	}
	if _, ok := store.lastSent[1]; !ok {
		t.Fatal("empty window should still update last sent")
	}
}
