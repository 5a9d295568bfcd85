package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
)

// CreateBid persists a bid after the full precondition chain passes:
// job exists -> job active -> bidder is the caller -> amount positive ->
// bidder profile exists -> bidder role may bid. The chain short-circuits
// on the first failure and nothing is written.
func (s *Store) CreateBid(ctx context.Context, callerID uuid.UUID, b *models.Bid) error {
	job, err := s.GetJob(ctx, b.JobID)
	if err != nil {
		return err
	}
	if job.Status != models.JobStatusActive {
		return ErrJobClosed
	}
	if b.BidderID != callerID {
		return ErrNotBidder
	}
	if b.Amount <= 0 {
		return ErrBadAmount
	}
	bidder, err := s.GetUser(ctx, b.BidderID)
	if err != nil {
		return err
	}
	if !bidder.Role.CanBid() {
		return ErrRoleNotAllowed
	}

	b.Status = models.BidStatusPending
	return s.db.WithContext(ctx).Create(b).Error
}

func (s *Store) GetBid(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	var b models.Bid
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *Store) GetBidsByJob(ctx context.Context, jobID uuid.UUID) ([]models.Bid, error) {
	var bids []models.Bid
	err := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at DESC").
		Find(&bids).Error
	return bids, err
}

func (s *Store) GetBidsByBidder(ctx context.Context, bidderID uuid.UUID) ([]models.Bid, error) {
	var bids []models.Bid
	err := s.db.WithContext(ctx).
		Where("bidder_id = ?", bidderID).
		Order("created_at DESC").
		Find(&bids).Error
	return bids, err
}

func (s *Store) UpdateBidStatus(ctx context.Context, id uuid.UUID, status models.BidStatus) error {
	res := s.db.WithContext(ctx).Model(&models.Bid{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
