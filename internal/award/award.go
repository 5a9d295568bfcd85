// Package award implements the winner-selection workflow for a job:
// accept one bid, reject the rest, close the job, notify the winner.
package award

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/store"
)

var (
	ErrNotOwner   = errors.New("caller does not own this job")
	ErrJobClosed  = errors.New("job is already closed")
	ErrBidNotOpen = errors.New("bid is not pending")
	ErrWrongJob   = errors.New("bid does not belong to this job")
)

// Notifier delivers the best-effort winner notification. Its error
// never unwinds the award.
type Notifier interface {
	JobWon(ctx context.Context, winnerID uuid.UUID, job *models.Job, bid *models.Bid) error
}

type Service struct {
	store    *store.Store
	notifier Notifier
}

func New(s *store.Store, n Notifier) *Service {
	return &Service{store: s, notifier: n}
}

// Result reports what SelectWinner did. NotifyFailed is set when the
// award committed but the winner notification did not go out.
type Result struct {
	Job          *models.Job
	WinningBid   *models.Bid
	Rejected     int
	NotifyFailed bool
}

// SelectWinner runs the award steps in order. The job is re-fetched
// first so ownership and status are checked against current state, not
// whatever the caller had on screen. Committed steps are not rolled
// back when a later step fails; the store's guarded close keeps the
// active->closed transition one-shot under concurrent calls.
func (s *Service) SelectWinner(ctx context.Context, jobID, bidID, callerID uuid.UUID) (*Result, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ContractorID != callerID {
		return nil, ErrNotOwner
	}
	if job.Status != models.JobStatusActive {
		return nil, ErrJobClosed
	}

	bids, err := s.store.GetBidsByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	var chosen *models.Bid
	var losers []uuid.UUID
	for i := range bids {
		b := &bids[i]
		if b.ID == bidID {
			chosen = b
			continue
		}
		if b.Status == models.BidStatusPending {
			losers = append(losers, b.ID)
		}
	}
	if chosen == nil {
		return nil, ErrWrongJob
	}
	if chosen.Status != models.BidStatusPending {
		return nil, ErrBidNotOpen
	}

	if err := s.store.UpdateBidStatus(ctx, chosen.ID, models.BidStatusAccepted); err != nil {
		return nil, err
	}
	chosen.Status = models.BidStatusAccepted

	// Reject the remaining pending bids concurrently. The expected
	// completion count is fixed here, before the fan-out starts.
	if err := s.rejectAll(ctx, losers); err != nil {
		return nil, err
	}

	winnerID := chosen.WinnerID()
	if err := s.store.CloseJob(ctx, jobID, winnerID, chosen.ID); err != nil {
		return nil, err
	}
	job.Status = models.JobStatusClosed
	job.WinnerUserID = &winnerID
	job.WinningBidID = &chosen.ID

	res := &Result{Job: job, WinningBid: chosen, Rejected: len(losers)}
	if err := s.notifier.JobWon(ctx, winnerID, job, chosen); err != nil {
		log.Println("award: winner notification failed:", err)
		res.NotifyFailed = true
	}
	return res, nil
}

func (s *Service) rejectAll(ctx context.Context, bidIDs []uuid.UUID) error {
	if len(bidIDs) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(bidIDs))
	for _, id := range bidIDs {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			if err := s.store.UpdateBidStatus(ctx, id, models.BidStatusRejected); err != nil {
				errCh <- err
			}
		}(id)
	}
	wg.Wait()
	close(errCh)

	// Surface the first failure; rejections that already landed stay.
	return <-errCh
}
