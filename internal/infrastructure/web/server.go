package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"paperscribe/internal/domain"
	"paperscribe/internal/ports"
)

// CycleRunner triggers one on-demand fetch cycle across all destinations.
type CycleRunner interface {
	RunAll(ctx context.Context) (int, error)
}

// VoteEventHandler processes reaction events arriving from delivery
// platforms.
type VoteEventHandler interface {
	HandleEvent(ctx context.Context, ev domain.VoteEvent) error
}

// Deps carries the collaborators of the dashboard server.
type Deps struct {
	Subs      ports.SubscriptionStore
	Papers    ports.PaperStore
	Votes     ports.VoteStore
	Bookmarks ports.BookmarkStore
	Digests   ports.DigestStore
	Stats     ports.StatsReader
	Source    ports.PaperSource
	Runner    CycleRunner
	Events    VoteEventHandler
	Logger    *slog.Logger
}

// Server exposes the JSON dashboard API.
type Server struct {
	deps Deps
	http *http.Server
}

func NewServer(addr string, deps Deps) *Server {
	deps.Logger = deps.Logger.With("component", "web")
	s := &Server{deps: deps}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	api := r.Group("/api")
	{
		api.GET("/papers", s.listPapers)
		api.GET("/papers/top", s.topPapers)
		api.GET("/papers/:id", s.getPaper)
		api.GET("/papers/:id/similar", s.similarPapers)
		api.POST("/fetch", s.triggerFetch)
		api.GET("/export", s.exportPapers)
		api.GET("/search", s.searchUpstream)
		api.GET("/arxiv/:id", s.lookupUpstream)

		api.GET("/subscriptions", s.listSubscriptions)
		api.POST("/subscriptions", s.addSubscription)
		api.DELETE("/subscriptions", s.removeSubscription)

		api.POST("/votes", s.castVote)
		api.DELETE("/votes", s.retractVote)
		api.POST("/events/votes", s.voteEvent)

		api.GET("/bookmarks", s.listBookmarks)
		api.POST("/bookmarks", s.addBookmark)
		api.DELETE("/bookmarks", s.removeBookmark)
		api.GET("/collections", s.listCollections)

		api.POST("/digests", s.createDigest)
		api.GET("/digests", s.listDigests)

		api.GET("/stats", s.stats)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.deps.Logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.deps.Logger.Info("dashboard listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve dashboard: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
