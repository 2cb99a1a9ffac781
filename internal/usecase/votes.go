package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"paperscribe/internal/domain"
	"paperscribe/internal/ports"
)

// VoteService translates delivery-adapter reaction events into stored votes.
type VoteService struct {
	papers ports.PaperStore
	votes  ports.VoteStore
	logger *slog.Logger
}

func NewVoteService(papers ports.PaperStore, votes ports.VoteStore, logger *slog.Logger) *VoteService {
	return &VoteService{
		papers: papers,
		votes:  votes,
		logger: logger.With("component", "votes"),
	}
}

// HandleEvent resolves the event's message handle to a paper and records or
// retracts the vote. Events for unknown handles (a reaction on an unrelated
// message) are ignored.
func (s *VoteService) HandleEvent(ctx context.Context, ev domain.VoteEvent) error {
	paperID, err := s.papers.PaperByPosting(ctx, ev.Destination, ev.Handle)
	if err != nil {
		return fmt.Errorf("resolve posting: %w", err)
	}
	if paperID == "" {
		s.logger.Debug("vote event for unknown handle", "handle", ev.Handle)
		return nil
	}

	if ev.Removed {
		if err := s.votes.RetractVote(ctx, paperID, ev.Voter, ev.Kind); err != nil {
			return fmt.Errorf("retract vote: %w", err)
		}
		s.logger.Info("vote retracted", "paper_id", paperID, "kind", ev.Kind)
		return nil
	}

	vote := domain.Vote{
		PaperID:     paperID,
		Voter:       ev.Voter,
		Destination: ev.Destination,
		Kind:        ev.Kind,
	}
	if err := s.votes.RecordVote(ctx, vote); err != nil {
		return fmt.Errorf("record vote: %w", err)
	}
	s.logger.Info("vote recorded", "paper_id", paperID, "kind", ev.Kind)
	return nil
}

// Consume drains vote events from the channel until it closes or the context
// ends. Handler errors are logged, never fatal.
func (s *VoteService) Consume(ctx context.Context, events <-chan domain.VoteEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := s.HandleEvent(ctx, ev); err != nil {
				s.logger.Error("vote event failed", "handle", ev.Handle, "error", err)
			}
		}
	}
}
