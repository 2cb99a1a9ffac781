package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/semaphore"

	"paperscribe/internal/domain"
	"paperscribe/internal/ports"
)

const (
	// maxConcurrent caps in-flight provider calls across all goroutines.
	maxConcurrent = 5

	// maxSummaryLen truncates runaway completions before delivery.
	maxSummaryLen = 500

	// Placeholder is delivered when summary generation fails, so one bad
	// completion never blocks a paper from being posted.
	Placeholder = "Summary generation failed."

	systemPrompt = "You are a research assistant that writes two to three sentence " +
		"plain-language summaries of academic paper abstracts. Focus on what " +
		"problem the paper solves and why it matters. Do not use markdown."
)

// Provider is one upstream completion backend.
type Provider interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// Summarizer generates short paper summaries through a pluggable provider.
type Summarizer struct {
	provider Provider
	sem      *semaphore.Weighted
	logger   *slog.Logger
}

var _ ports.Summarizer = (*Summarizer)(nil)

func NewSummarizer(provider Provider, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		provider: provider,
		sem:      semaphore.NewWeighted(maxConcurrent),
		logger:   logger.With("component", "summarizer"),
	}
}

// Summarize produces a cleaned summary for the paper. Provider failures are
// logged and mapped to the placeholder text; the only hard error is context
// cancellation while waiting for a slot.
func (s *Summarizer) Summarize(ctx context.Context, paper domain.Paper) (string, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire summarize slot: %w", err)
	}
	defer s.sem.Release(1)

	raw, err := s.provider.Complete(ctx, systemPrompt, buildPrompt(paper))
	if err != nil {
		s.logger.Warn("summary generation failed",
			"provider", s.provider.Name(), "paper_id", paper.ID, "error", err)
		return Placeholder, nil
	}

	summary := cleanSummary(raw)
	if summary == "" {
		s.logger.Warn("provider returned empty summary",
			"provider", s.provider.Name(), "paper_id", paper.ID)
		return Placeholder, nil
	}
	return summary, nil
}

func buildPrompt(paper domain.Paper) string {
	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(paper.Title)
	b.WriteString("\n\nAbstract: ")
	b.WriteString(textFromHTML(paper.Abstract))
	b.WriteString("\n\nSummarize this paper in 2-3 sentences for a general technical audience.")
	return b.String()
}

var summaryPrefixes = []string{"tl;dr:", "tldr:", "summary:"}

// cleanSummary normalizes provider output: whitespace collapsed, boilerplate
// lead-ins stripped, length capped.
func cleanSummary(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")

	lower := strings.ToLower(s)
	for _, prefix := range summaryPrefixes {
		if strings.HasPrefix(lower, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}

	if len(s) > maxSummaryLen {
		s = strings.TrimSpace(s[:maxSummaryLen-3]) + "..."
	}
	return s
}
