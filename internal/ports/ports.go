package ports

import (
	"context"
	"time"

	"paperscribe/internal/domain"
)

// PaperSource pulls candidate papers from the upstream API.
type PaperSource interface {
	// FetchCategories fetches every category, deduplicates by paper ID across
	// them (first occurrence wins) and isolates per-category failures: a
	// category that errors is logged and skipped, the rest are returned.
	FetchCategories(ctx context.Context, categories []string, since time.Time, maxPerCategory int) ([]domain.Paper, error)
	FetchByQuery(ctx context.Context, query string, maxResults int) ([]domain.Paper, error)
	FetchByID(ctx context.Context, id string) (*domain.Paper, error)
}

// SubscriptionStore persists keyword subscriptions per destination.
type SubscriptionStore interface {
	// AddSubscription reports false when the (destination, keyword) pair
	// already exists. Keywords are normalized before storage.
	AddSubscription(ctx context.Context, dest domain.Destination, keyword string) (bool, error)
	RemoveSubscription(ctx context.Context, dest domain.Destination, keyword string) (bool, error)
	Keywords(ctx context.Context, dest domain.Destination) ([]string, error)
	AllKeywords(ctx context.Context) ([]string, error)
	SubscribedDestinations(ctx context.Context) ([]domain.Destination, error)
}

// PaperStore persists papers, posting records and the fetch watermark.
type PaperStore interface {
	// SavePaper inserts the paper if absent; an existing row keeps its
	// attributes.
	SavePaper(ctx context.Context, paper domain.Paper, matched []string) error
	IsPosted(ctx context.Context, paperID string, dest domain.Destination) (bool, error)
	// RecordPosting upserts the paper and inserts the posting record in one
	// transaction; a duplicate posting reports false with no error.
	RecordPosting(ctx context.Context, paper domain.Paper, matched []string, dest domain.Destination, handle string) (bool, error)
	PaperByPosting(ctx context.Context, dest domain.Destination, handle string) (string, error)
	Paper(ctx context.Context, id string) (*domain.Paper, error)
	RecentPapers(ctx context.Context, limit, offset int, keyword, sort string) ([]domain.Paper, error)
	CountPapers(ctx context.Context, keyword string) (int, error)
	TopPapers(ctx context.Context, window time.Duration, limit int) ([]domain.Paper, error)
	Watermark(ctx context.Context) (time.Time, error)
	SetWatermark(ctx context.Context, t time.Time) error
}

// VoteStore records reaction votes with replace semantics.
type VoteStore interface {
	RecordVote(ctx context.Context, vote domain.Vote) error
	RetractVote(ctx context.Context, paperID string, voter int64, kind domain.VoteKind) error
	Score(ctx context.Context, paperID string) (int, error)
}

// BookmarkStore persists user-curated collections.
type BookmarkStore interface {
	AddBookmark(ctx context.Context, b domain.Bookmark) (bool, error)
	RemoveBookmark(ctx context.Context, paperID, collection string) (bool, error)
	Bookmarks(ctx context.Context, collection string) ([]domain.Bookmark, error)
	Collections(ctx context.Context) ([]string, error)
}

// DigestStore persists email digest configurations.
type DigestStore interface {
	SaveDigestConfig(ctx context.Context, cfg domain.DigestConfig) (int64, error)
	DigestConfigs(ctx context.Context) ([]domain.DigestConfig, error)
	UpdateDigestLastSent(ctx context.Context, id int64, t time.Time) error
}

// StatsReader exposes read-only aggregate projections.
type StatsReader interface {
	GlobalStats(ctx context.Context) (domain.Stats, error)
}

// Summarizer generates a short summary for one paper.
type Summarizer interface {
	Summarize(ctx context.Context, paper domain.Paper) (string, error)
}

// Deliverer posts one paper to a destination and returns the platform
// message handle needed to correlate later vote events.
type Deliverer interface {
	Deliver(ctx context.Context, dest domain.Destination, paper domain.Paper, matched []string) (string, error)
}

// DigestMailer sends a batch of papers as one digest message.
type DigestMailer interface {
	SendDigest(ctx context.Context, target string, papers []domain.Paper) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
