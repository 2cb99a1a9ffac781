package domain

import "time"

// Paper is a core entity describing one candidate record fetched from arXiv.
// ID is the stable arXiv identifier (e.g. "2301.00001v1") and acts as the
// natural key for dedup, postings, votes and bookmarks.
type Paper struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Abstract        string    `json:"abstract,omitempty"`
	Authors         []string  `json:"authors,omitempty"`
	Published       string    `json:"published,omitempty"`
	Updated         string    `json:"updated,omitempty"`
	Categories      []string  `json:"categories,omitempty"`
	PrimaryCategory string    `json:"primary_category,omitempty"`
	URL             string    `json:"url,omitempty"`
	PDFURL          string    `json:"pdf_url,omitempty"`
	Summary         string    `json:"summary,omitempty"`
	Score           int       `json:"score"`
	FetchedAt       time.Time `json:"fetched_at,omitempty"`
}

// PublishedTime parses the raw published timestamp. The upstream timestamps
// are RFC3339; a value that fails to parse returns ok == false and callers
// must treat the paper as in-window rather than dropping it.
func (p Paper) PublishedTime() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, p.Published)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Destination is an opaque composite delivery target. Tenant and Channel map
// onto platform-specific identifiers (guild/channel, a mail address with an
// empty tenant, the local dashboard with both zero).
type Destination struct {
	Tenant  int64
	Channel int64
}

// Subscription binds a normalized keyword to a destination.
type Subscription struct {
	Destination Destination
	Keyword     string
	CreatedAt   time.Time
}

// Posting is durable proof that a paper was delivered to a destination.
// Handle is the platform message identifier used to correlate vote events.
type Posting struct {
	PaperID     string
	Destination Destination
	Handle      string
	PostedAt    time.Time
}

// VoteKind enumerates the reaction-based vote kinds.
type VoteKind string

const (
	VoteUp    VoteKind = "upvote"
	VoteMaybe VoteKind = "maybe"
	VoteDown  VoteKind = "downvote"
)

// ParseVoteKind maps a raw string onto a known vote kind.
func ParseVoteKind(s string) (VoteKind, bool) {
	switch VoteKind(s) {
	case VoteUp, VoteMaybe, VoteDown:
		return VoteKind(s), true
	}
	return "", false
}

// Vote is one voter's live reaction of a given kind on a paper.
type Vote struct {
	PaperID     string
	Voter       int64
	Destination Destination
	Kind        VoteKind
}

// VoteEvent is an inbound reaction event from a delivery adapter.
// Removed == true retracts the vote instead of recording it.
type VoteEvent struct {
	Destination Destination
	Handle      string
	Voter       int64
	Kind        VoteKind
	Removed     bool
}

// Bookmark groups a paper into a user-curated collection.
type Bookmark struct {
	PaperID    string    `json:"paper_id"`
	Collection string    `json:"collection"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// DigestCadence is how often a digest config fires.
type DigestCadence string

const (
	DigestDaily  DigestCadence = "daily"
	DigestWeekly DigestCadence = "weekly"
)

// DigestConfig drives one periodic email digest.
type DigestConfig struct {
	ID         int64         `json:"id"`
	Target     string        `json:"target"`
	Keywords   []string      `json:"keywords,omitempty"`
	Categories []string      `json:"categories,omitempty"`
	Cadence    DigestCadence `json:"cadence"`
	SendHour   int           `json:"send_hour"`
	Enabled    bool          `json:"enabled"`
	LastSent   time.Time     `json:"last_sent,omitempty"`
}

// Stats is a read-only global projection for the dashboard.
type Stats struct {
	TotalPapers        int
	TotalSubscriptions int
	TotalVotes         int
	LastFetch          time.Time
}
