package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"paperscribe/internal/domain"
	"paperscribe/internal/export"
	"paperscribe/internal/similarity"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// similarCorpusSize bounds how many recent papers feed the ranking.
	similarCorpusSize = 200
	similarTopK       = 5
)

func intQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func (s *Server) listPapers(c *gin.Context) {
	limit := intQuery(c, "limit", defaultPageSize)
	if limit == 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := intQuery(c, "offset", 0)
	keyword := c.Query("keyword")
	sort := c.DefaultQuery("sort", "date")

	papers, err := s.deps.Papers.RecentPapers(c.Request.Context(), limit, offset, keyword, sort)
	if err != nil {
		s.fail(c, err)
		return
	}
	total, err := s.deps.Papers.CountPapers(c.Request.Context(), keyword)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"papers": papers, "total": total})
}

func (s *Server) getPaper(c *gin.Context) {
	paper, err := s.deps.Papers.Paper(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if paper == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
		return
	}
	score, err := s.deps.Votes.Score(c.Request.Context(), paper.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	paper.Score = score
	c.JSON(http.StatusOK, paper)
}

func (s *Server) topPapers(c *gin.Context) {
	days := intQuery(c, "days", 7)
	if days == 0 {
		days = 7
	}
	limit := intQuery(c, "limit", 10)
	if limit == 0 || limit > maxPageSize {
		limit = 10
	}

	papers, err := s.deps.Papers.TopPapers(c.Request.Context(), time.Duration(days)*24*time.Hour, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"papers": papers})
}

func (s *Server) similarPapers(c *gin.Context) {
	target, err := s.deps.Papers.Paper(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
		return
	}

	corpus, err := s.deps.Papers.RecentPapers(c.Request.Context(), similarCorpusSize, 0, "", "date")
	if err != nil {
		s.fail(c, err)
		return
	}

	ranked := similarity.Rank(*target, corpus, similarTopK)
	results := make([]gin.H, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, gin.H{"paper": r.Paper, "similarity": r.Score})
	}
	c.JSON(http.StatusOK, gin.H{"similar": results})
}

func (s *Server) triggerFetch(c *gin.Context) {
	delivered, err := s.deps.Runner.RunAll(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivered": delivered})
}

func (s *Server) exportPapers(c *gin.Context) {
	format, ok := export.ParseFormat(c.DefaultQuery("format", "json"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown export format"})
		return
	}

	limit := intQuery(c, "limit", maxPageSize)
	if limit == 0 || limit > 1000 {
		limit = maxPageSize
	}
	papers, err := s.deps.Papers.RecentPapers(c.Request.Context(), limit, 0, c.Query("keyword"), "date")
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Type", format.ContentType())
	if err := export.Write(c.Writer, papers, format); err != nil {
		s.fail(c, err)
	}
}

func (s *Server) searchUpstream(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	limit := intQuery(c, "limit", defaultPageSize)
	if limit == 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	papers, err := s.deps.Source.FetchByQuery(c.Request.Context(), query, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"papers": papers})
}

func (s *Server) lookupUpstream(c *gin.Context) {
	paper, err := s.deps.Source.FetchByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if paper == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
		return
	}
	c.JSON(http.StatusOK, paper)
}

type subscriptionRequest struct {
	Tenant  int64  `json:"tenant"`
	Channel int64  `json:"channel"`
	Keyword string `json:"keyword" binding:"required"`
}

func int64Query(c *gin.Context, key string) int64 {
	v, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func (s *Server) listSubscriptions(c *gin.Context) {
	// Chat ids can be negative, so these are parsed separately.
	dest := domain.Destination{
		Tenant:  int64Query(c, "tenant"),
		Channel: int64Query(c, "channel"),
	}
	keywords, err := s.deps.Subs.Keywords(c.Request.Context(), dest)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}

func (s *Server) addSubscription(c *gin.Context) {
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dest := domain.Destination{Tenant: req.Tenant, Channel: req.Channel}
	added, err := s.deps.Subs.AddSubscription(c.Request.Context(), dest, req.Keyword)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

func (s *Server) removeSubscription(c *gin.Context) {
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dest := domain.Destination{Tenant: req.Tenant, Channel: req.Channel}
	removed, err := s.deps.Subs.RemoveSubscription(c.Request.Context(), dest, req.Keyword)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

type voteRequest struct {
	PaperID string `json:"paper_id" binding:"required"`
	Voter   int64  `json:"voter" binding:"required"`
	Kind    string `json:"kind" binding:"required"`
}

func (s *Server) castVote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, ok := domain.ParseVoteKind(req.Kind)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown vote kind"})
		return
	}

	vote := domain.Vote{PaperID: req.PaperID, Voter: req.Voter, Kind: kind}
	if err := s.deps.Votes.RecordVote(c.Request.Context(), vote); err != nil {
		s.fail(c, err)
		return
	}
	score, err := s.deps.Votes.Score(c.Request.Context(), req.PaperID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"score": score})
}

func (s *Server) retractVote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, ok := domain.ParseVoteKind(req.Kind)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown vote kind"})
		return
	}

	if err := s.deps.Votes.RetractVote(c.Request.Context(), req.PaperID, req.Voter, kind); err != nil {
		s.fail(c, err)
		return
	}
	score, err := s.deps.Votes.Score(c.Request.Context(), req.PaperID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"score": score})
}

type voteEventRequest struct {
	Tenant  int64  `json:"tenant"`
	Channel int64  `json:"channel"`
	Handle  string `json:"handle" binding:"required"`
	Voter   int64  `json:"voter" binding:"required"`
	Kind    string `json:"kind" binding:"required"`
	Removed bool   `json:"removed"`
}

func (s *Server) voteEvent(c *gin.Context) {
	var req voteEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, ok := domain.ParseVoteKind(req.Kind)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown vote kind"})
		return
	}

	ev := domain.VoteEvent{
		Destination: domain.Destination{Tenant: req.Tenant, Channel: req.Channel},
		Handle:      req.Handle,
		Voter:       req.Voter,
		Kind:        kind,
		Removed:     req.Removed,
	}
	if err := s.deps.Events.HandleEvent(c.Request.Context(), ev); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

type bookmarkRequest struct {
	PaperID    string `json:"paper_id" binding:"required"`
	Collection string `json:"collection" binding:"required"`
	Note       string `json:"note"`
}

func (s *Server) listBookmarks(c *gin.Context) {
	bookmarks, err := s.deps.Bookmarks.Bookmarks(c.Request.Context(), c.Query("collection"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": bookmarks})
}

func (s *Server) addBookmark(c *gin.Context) {
	var req bookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	added, err := s.deps.Bookmarks.AddBookmark(c.Request.Context(), domain.Bookmark{
		PaperID:    req.PaperID,
		Collection: req.Collection,
		Note:       req.Note,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

func (s *Server) removeBookmark(c *gin.Context) {
	var req bookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	removed, err := s.deps.Bookmarks.RemoveBookmark(c.Request.Context(), req.PaperID, req.Collection)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) listCollections(c *gin.Context) {
	collections, err := s.deps.Bookmarks.Collections(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": collections})
}

type digestRequest struct {
	Target     string   `json:"target" binding:"required"`
	Keywords   []string `json:"keywords"`
	Categories []string `json:"categories"`
	Cadence    string   `json:"cadence" binding:"required"`
	SendHour   int      `json:"send_hour"`
}

func (s *Server) createDigest(c *gin.Context) {
	var req digestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cadence := domain.DigestCadence(req.Cadence)
	if cadence != domain.DigestDaily && cadence != domain.DigestWeekly {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown cadence"})
		return
	}
	if req.SendHour < 0 || req.SendHour > 23 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "send_hour out of range"})
		return
	}

	id, err := s.deps.Digests.SaveDigestConfig(c.Request.Context(), domain.DigestConfig{
		Target:     req.Target,
		Keywords:   req.Keywords,
		Categories: req.Categories,
		Cadence:    cadence,
		SendHour:   req.SendHour,
		Enabled:    true,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) listDigests(c *gin.Context) {
	configs, err := s.deps.Digests.DigestConfigs(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"digests": configs})
}

func (s *Server) stats(c *gin.Context) {
	stats, err := s.deps.Stats.GlobalStats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_papers":        stats.TotalPapers,
		"total_subscriptions": stats.TotalSubscriptions,
		"total_votes":         stats.TotalVotes,
		"last_fetch":          stats.LastFetch,
	})
}

func (s *Server) fail(c *gin.Context, err error) {
	s.deps.Logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
