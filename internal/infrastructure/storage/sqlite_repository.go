package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/juju/clock"
	_ "github.com/mattn/go-sqlite3"

	"paperscribe/internal/domain"
	"paperscribe/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    tenant_id  INTEGER NOT NULL DEFAULT 0,
    channel_id INTEGER NOT NULL DEFAULT 0,
    keyword    TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT '',
    UNIQUE(tenant_id, channel_id, keyword)
);

CREATE TABLE IF NOT EXISTS papers (
    id               TEXT PRIMARY KEY,
    title            TEXT NOT NULL,
    abstract         TEXT NOT NULL DEFAULT '',
    authors          TEXT NOT NULL DEFAULT '',
    published        TEXT NOT NULL DEFAULT '',
    updated          TEXT NOT NULL DEFAULT '',
    categories       TEXT NOT NULL DEFAULT '',
    primary_category TEXT NOT NULL DEFAULT '',
    url              TEXT NOT NULL DEFAULT '',
    pdf_url          TEXT NOT NULL DEFAULT '',
    summary          TEXT NOT NULL DEFAULT '',
    matched_keywords TEXT NOT NULL DEFAULT '',
    score            INTEGER NOT NULL DEFAULT 0,
    fetched_at       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS postings (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    paper_id   TEXT NOT NULL REFERENCES papers(id),
    tenant_id  INTEGER NOT NULL DEFAULT 0,
    channel_id INTEGER NOT NULL DEFAULT 0,
    handle     TEXT NOT NULL DEFAULT '',
    posted_at  TEXT NOT NULL DEFAULT '',
    UNIQUE(paper_id, tenant_id, channel_id)
);

CREATE TABLE IF NOT EXISTS votes (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    paper_id   TEXT NOT NULL,
    voter_id   INTEGER NOT NULL,
    tenant_id  INTEGER NOT NULL DEFAULT 0,
    channel_id INTEGER NOT NULL DEFAULT 0,
    kind       TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT '',
    UNIQUE(paper_id, voter_id, kind)
);

CREATE TABLE IF NOT EXISTS bookmarks (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    paper_id   TEXT NOT NULL,
    collection TEXT NOT NULL,
    note       TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT '',
    UNIQUE(paper_id, collection)
);

CREATE TABLE IF NOT EXISTS digest_configs (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    target     TEXT NOT NULL,
    keywords   TEXT NOT NULL DEFAULT '',
    categories TEXT NOT NULL DEFAULT '',
    cadence    TEXT NOT NULL DEFAULT 'daily',
    send_hour  INTEGER NOT NULL DEFAULT 9,
    enabled    INTEGER NOT NULL DEFAULT 1,
    last_sent  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS metadata (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_papers_fetched ON papers(fetched_at DESC);
CREATE INDEX IF NOT EXISTS idx_papers_score ON papers(score DESC);
CREATE INDEX IF NOT EXISTS idx_subscriptions_kw ON subscriptions(keyword);
CREATE INDEX IF NOT EXISTS idx_postings_handle ON postings(tenant_id, channel_id, handle);
`

const watermarkKey = "last_fetch_time"

// Repository is the SQLite store behind every persistence port. Uniqueness
// constraints, not application pre-checks, enforce the dedup invariants;
// duplicate outcomes surface as boolean results instead of errors.
type Repository struct {
	db    *sql.DB
	sq    sq.StatementBuilderType
	clock clock.Clock
}

var (
	_ ports.SubscriptionStore = (*Repository)(nil)
	_ ports.PaperStore        = (*Repository)(nil)
	_ ports.VoteStore         = (*Repository)(nil)
	_ ports.BookmarkStore     = (*Repository)(nil)
	_ ports.DigestStore       = (*Repository)(nil)
	_ ports.StatsReader       = (*Repository)(nil)
)

// Open opens (or creates) the database file and applies the schema.
// The store runs single-writer: one connection serializes all access.
func Open(path string, clk clock.Clock) (*Repository, error) {
	if clk == nil {
		clk = clock.WallClock
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Repository{
		db:    db,
		sq:    sq.StatementBuilder.PlaceholderFormat(sq.Question),
		clock: clk,
	}, nil
}

// Close releases the underlying connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) now() string {
	return r.clock.Now().UTC().Format(time.RFC3339)
}

func normalizeKeyword(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

// --- Subscriptions ---

// AddSubscription inserts the pair, reporting false when it already exists.
func (r *Repository) AddSubscription(ctx context.Context, dest domain.Destination, keyword string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscriptions (tenant_id, channel_id, keyword, created_at) VALUES (?, ?, ?, ?)`,
		dest.Tenant, dest.Channel, normalizeKeyword(keyword), r.now())
	if err != nil {
		return false, fmt.Errorf("add subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// RemoveSubscription deletes the pair, reporting false when it was absent.
func (r *Repository) RemoveSubscription(ctx context.Context, dest domain.Destination, keyword string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE tenant_id = ? AND channel_id = ? AND keyword = ?`,
		dest.Tenant, dest.Channel, normalizeKeyword(keyword))
	if err != nil {
		return false, fmt.Errorf("remove subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Keywords lists the destination's subscribed keywords.
func (r *Repository) Keywords(ctx context.Context, dest domain.Destination) ([]string, error) {
	return r.stringList(ctx,
		`SELECT keyword FROM subscriptions WHERE tenant_id = ? AND channel_id = ? ORDER BY keyword`,
		dest.Tenant, dest.Channel)
}

// AllKeywords lists every distinct subscribed keyword.
func (r *Repository) AllKeywords(ctx context.Context) ([]string, error) {
	return r.stringList(ctx, `SELECT DISTINCT keyword FROM subscriptions ORDER BY keyword`)
}

// SubscribedDestinations lists destinations holding at least one subscription.
func (r *Repository) SubscribedDestinations(ctx context.Context) ([]domain.Destination, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT tenant_id, channel_id FROM subscriptions`)
	if err != nil {
		return nil, fmt.Errorf("query destinations: %w", err)
	}
	defer rows.Close()

	var dests []domain.Destination
	for rows.Next() {
		var d domain.Destination
		if err := rows.Scan(&d.Tenant, &d.Channel); err != nil {
			return nil, fmt.Errorf("scan destination: %w", err)
		}
		dests = append(dests, d)
	}
	return dests, rows.Err()
}

func (r *Repository) stringList(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// --- Papers and postings ---

// SavePaper inserts the paper if absent. A re-fetch of a known id never
// overwrites the stored attributes.
func (r *Repository) SavePaper(ctx context.Context, paper domain.Paper, matched []string) error {
	if err := r.insertPaper(ctx, r.db.ExecContext, paper, matched); err != nil {
		return fmt.Errorf("save paper: %w", err)
	}
	return nil
}

type execFunc func(ctx context.Context, query string, args ...any) (sql.Result, error)

func (r *Repository) insertPaper(ctx context.Context, exec execFunc, paper domain.Paper, matched []string) error {
	_, err := exec(ctx, `
        INSERT OR IGNORE INTO papers
        (id, title, abstract, authors, published, updated, categories, primary_category, url, pdf_url, summary, matched_keywords, fetched_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		paper.ID, paper.Title, paper.Abstract,
		strings.Join(paper.Authors, ","), paper.Published, paper.Updated,
		strings.Join(paper.Categories, ","), paper.PrimaryCategory,
		paper.URL, paper.PDFURL, paper.Summary,
		strings.Join(matched, ","), r.now())
	return err
}

// IsPosted reports whether the paper was already delivered to the destination.
func (r *Repository) IsPosted(ctx context.Context, paperID string, dest domain.Destination) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM postings WHERE paper_id = ? AND tenant_id = ? AND channel_id = ?`,
		paperID, dest.Tenant, dest.Channel).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query posting: %w", err)
	}
	return true, nil
}

// RecordPosting upserts the paper and inserts the posting record inside one
// transaction, so a failure in either half leaves no partial state. A
// posting that already exists reports false without error.
func (r *Repository) RecordPosting(ctx context.Context, paper domain.Paper, matched []string, dest domain.Destination, handle string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := r.insertPaper(ctx, tx.ExecContext, paper, matched); err != nil {
		return false, fmt.Errorf("upsert paper: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO postings (paper_id, tenant_id, channel_id, handle, posted_at) VALUES (?, ?, ?, ?, ?)`,
		paper.ID, dest.Tenant, dest.Channel, handle, r.now())
	if err != nil {
		return false, fmt.Errorf("insert posting: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return n > 0, nil
}

// PaperByPosting resolves a delivery handle back to its paper id; an unknown
// handle yields an empty id without error.
func (r *Repository) PaperByPosting(ctx context.Context, dest domain.Destination, handle string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT paper_id FROM postings WHERE tenant_id = ? AND channel_id = ? AND handle = ?`,
		dest.Tenant, dest.Channel, handle).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query posting handle: %w", err)
	}
	return id, nil
}

const paperColumns = "id, title, abstract, authors, published, updated, categories, primary_category, url, pdf_url, summary, score, fetched_at"

func scanPaper(row interface{ Scan(...any) error }) (domain.Paper, error) {
	var (
		p                            domain.Paper
		authors, categories, fetched string
	)
	err := row.Scan(&p.ID, &p.Title, &p.Abstract, &authors, &p.Published, &p.Updated,
		&categories, &p.PrimaryCategory, &p.URL, &p.PDFURL, &p.Summary, &p.Score, &fetched)
	if err != nil {
		return domain.Paper{}, err
	}
	if authors != "" {
		p.Authors = strings.Split(authors, ",")
	}
	if categories != "" {
		p.Categories = strings.Split(categories, ",")
	}
	if t, err := time.Parse(time.RFC3339, fetched); err == nil {
		p.FetchedAt = t
	}
	return p, nil
}

// Paper fetches one stored paper; a missing id yields (nil, nil).
func (r *Repository) Paper(ctx context.Context, id string) (*domain.Paper, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paperColumns+` FROM papers WHERE id = ?`, id)
	p, err := scanPaper(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query paper: %w", err)
	}
	return &p, nil
}

var sortColumns = map[string]string{
	"date":  "fetched_at DESC",
	"votes": "score DESC",
	"title": "title ASC",
}

// RecentPapers lists stored papers with optional keyword filter and sort.
func (r *Repository) RecentPapers(ctx context.Context, limit, offset int, keyword, sort string) ([]domain.Paper, error) {
	builder := r.sq.Select(paperColumns).From("papers")
	if keyword != "" {
		like := "%" + keyword + "%"
		builder = builder.Where(sq.Or{
			sq.Like{"title": like},
			sq.Like{"abstract": like},
			sq.Like{"matched_keywords": like},
		})
	}
	order, ok := sortColumns[sort]
	if !ok {
		order = sortColumns["date"]
	}
	builder = builder.OrderBy(order).Limit(uint64(limit)).Offset(uint64(offset))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.queryPapers(ctx, query, args...)
}

// CountPapers counts stored papers, optionally filtered by keyword.
func (r *Repository) CountPapers(ctx context.Context, keyword string) (int, error) {
	builder := r.sq.Select("COUNT(*)").From("papers")
	if keyword != "" {
		like := "%" + keyword + "%"
		builder = builder.Where(sq.Or{
			sq.Like{"title": like},
			sq.Like{"abstract": like},
			sq.Like{"matched_keywords": like},
		})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count papers: %w", err)
	}
	return count, nil
}

// TopPapers lists the highest-scored papers fetched within the window.
func (r *Repository) TopPapers(ctx context.Context, window time.Duration, limit int) ([]domain.Paper, error) {
	cutoff := r.clock.Now().UTC().Add(-window).Format(time.RFC3339)

	query, args, err := r.sq.Select(paperColumns).From("papers").
		Where(sq.GtOrEq{"fetched_at": cutoff}).
		Where(sq.Gt{"score": 0}).
		OrderBy("score DESC", "fetched_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.queryPapers(ctx, query, args...)
}

func (r *Repository) queryPapers(ctx context.Context, query string, args ...any) ([]domain.Paper, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query papers: %w", err)
	}
	defer rows.Close()

	var papers []domain.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// --- Watermark ---

// Watermark returns the last completed fetch cut-off, or the zero time when
// no cycle has completed yet.
func (r *Repository) Watermark(ctx context.Context) (time.Time, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, watermarkKey).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query watermark: %w", err)
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

// SetWatermark records the fetch cut-off after a completed cycle.
func (r *Repository) SetWatermark(ctx context.Context, t time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO metadata (key, value, updated_at) VALUES (?, ?, ?)`,
		watermarkKey, t.UTC().Format(time.RFC3339), r.now())
	if err != nil {
		return fmt.Errorf("set watermark: %w", err)
	}
	return nil
}

// --- Votes ---

// RecordVote records a reaction, replacing any live vote of the same
// (paper, voter, kind), and refreshes the paper's denormalized score in the
// same transaction.
func (r *Repository) RecordVote(ctx context.Context, vote domain.Vote) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO votes (paper_id, voter_id, tenant_id, channel_id, kind, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(paper_id, voter_id, kind) DO UPDATE SET
            tenant_id = excluded.tenant_id,
            channel_id = excluded.channel_id,
            created_at = excluded.created_at`,
		vote.PaperID, vote.Voter, vote.Destination.Tenant, vote.Destination.Channel, string(vote.Kind), r.now())
	if err != nil {
		return fmt.Errorf("record vote: %w", err)
	}

	if err := refreshScore(ctx, tx, vote.PaperID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RetractVote removes a live vote and refreshes the paper's score.
func (r *Repository) RetractVote(ctx context.Context, paperID string, voter int64, kind domain.VoteKind) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM votes WHERE paper_id = ? AND voter_id = ? AND kind = ?`,
		paperID, voter, string(kind))
	if err != nil {
		return fmt.Errorf("retract vote: %w", err)
	}

	if err := refreshScore(ctx, tx, paperID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// refreshScore recomputes the aggregate upvotes minus downvotes projection.
func refreshScore(ctx context.Context, tx *sql.Tx, paperID string) error {
	_, err := tx.ExecContext(ctx, `
        UPDATE papers SET score = (
            SELECT COALESCE(SUM(CASE kind WHEN 'upvote' THEN 1 WHEN 'downvote' THEN -1 ELSE 0 END), 0)
            FROM votes WHERE paper_id = ?
        ) WHERE id = ?`, paperID, paperID)
	if err != nil {
		return fmt.Errorf("refresh score: %w", err)
	}
	return nil
}

// Score returns the paper's aggregate vote score (0 for unknown papers).
func (r *Repository) Score(ctx context.Context, paperID string) (int, error) {
	var score int
	err := r.db.QueryRowContext(ctx, `SELECT score FROM papers WHERE id = ?`, paperID).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query score: %w", err)
	}
	return score, nil
}

// --- Bookmarks ---

// AddBookmark files the paper under a collection; false when already filed.
func (r *Repository) AddBookmark(ctx context.Context, b domain.Bookmark) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO bookmarks (paper_id, collection, note, created_at) VALUES (?, ?, ?, ?)`,
		b.PaperID, b.Collection, b.Note, r.now())
	if err != nil {
		return false, fmt.Errorf("add bookmark: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// RemoveBookmark deletes the bookmark; false when it did not exist.
func (r *Repository) RemoveBookmark(ctx context.Context, paperID, collection string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE paper_id = ? AND collection = ?`, paperID, collection)
	if err != nil {
		return false, fmt.Errorf("remove bookmark: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Bookmarks lists bookmarks, optionally restricted to one collection.
func (r *Repository) Bookmarks(ctx context.Context, collection string) ([]domain.Bookmark, error) {
	builder := r.sq.Select("paper_id", "collection", "note", "created_at").
		From("bookmarks").OrderBy("created_at DESC")
	if collection != "" {
		builder = builder.Where(sq.Eq{"collection": collection})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []domain.Bookmark
	for rows.Next() {
		var (
			b       domain.Bookmark
			created string
		)
		if err := rows.Scan(&b.PaperID, &b.Collection, &b.Note, &created); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			b.CreatedAt = t
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

// Collections lists the distinct collection names.
func (r *Repository) Collections(ctx context.Context) ([]string, error) {
	return r.stringList(ctx, `SELECT DISTINCT collection FROM bookmarks ORDER BY collection`)
}

// --- Digest configs ---

// SaveDigestConfig inserts a digest configuration and returns its id.
func (r *Repository) SaveDigestConfig(ctx context.Context, cfg domain.DigestConfig) (int64, error) {
	lastSent := ""
	if !cfg.LastSent.IsZero() {
		lastSent = cfg.LastSent.UTC().Format(time.RFC3339)
	}

	res, err := r.db.ExecContext(ctx, `
        INSERT INTO digest_configs (target, keywords, categories, cadence, send_hour, enabled, last_sent)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cfg.Target, strings.Join(cfg.Keywords, ","), strings.Join(cfg.Categories, ","),
		string(cfg.Cadence), cfg.SendHour, boolToInt(cfg.Enabled), lastSent)
	if err != nil {
		return 0, fmt.Errorf("save digest config: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// DigestConfigs lists every digest configuration.
func (r *Repository) DigestConfigs(ctx context.Context) ([]domain.DigestConfig, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, target, keywords, categories, cadence, send_hour, enabled, last_sent FROM digest_configs`)
	if err != nil {
		return nil, fmt.Errorf("query digest configs: %w", err)
	}
	defer rows.Close()

	var configs []domain.DigestConfig
	for rows.Next() {
		var (
			cfg                           domain.DigestConfig
			keywords, categories, cadence string
			enabled                       int
			lastSent                      string
		)
		if err := rows.Scan(&cfg.ID, &cfg.Target, &keywords, &categories, &cadence, &cfg.SendHour, &enabled, &lastSent); err != nil {
			return nil, fmt.Errorf("scan digest config: %w", err)
		}
		if keywords != "" {
			cfg.Keywords = strings.Split(keywords, ",")
		}
		if categories != "" {
			cfg.Categories = strings.Split(categories, ",")
		}
		cfg.Cadence = domain.DigestCadence(cadence)
		cfg.Enabled = enabled != 0
		if t, err := time.Parse(time.RFC3339, lastSent); err == nil {
			cfg.LastSent = t
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// UpdateDigestLastSent records a successful digest send.
func (r *Repository) UpdateDigestLastSent(ctx context.Context, id int64, t time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE digest_configs SET last_sent = ? WHERE id = ?`,
		t.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("update digest last sent: %w", err)
	}
	return nil
}

// --- Stats ---

// GlobalStats builds the dashboard's aggregate projection.
func (r *Repository) GlobalStats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&stats.TotalPapers); err != nil {
		return stats, fmt.Errorf("count papers: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT keyword) FROM subscriptions`).Scan(&stats.TotalSubscriptions); err != nil {
		return stats, fmt.Errorf("count subscriptions: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes`).Scan(&stats.TotalVotes); err != nil {
		return stats, fmt.Errorf("count votes: %w", err)
	}

	last, err := r.Watermark(ctx)
	if err != nil {
		return stats, err
	}
	stats.LastFetch = last
	return stats, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
