package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
)

func (s *Store) CreateJob(ctx context.Context, j *models.Job) error {
	if j.Status == "" {
		j.Status = models.JobStatusActive
	}
	return s.db.WithContext(ctx).Create(j).Error
}

func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var j models.Job
	if err := s.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &j, nil
}

func (s *Store) GetActiveJobs(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	err := s.db.WithContext(ctx).
		Where("status = ?", models.JobStatusActive).
		Order("created_at DESC").
		Find(&jobs).Error
	return jobs, err
}

func (s *Store) GetJobsByContractor(ctx context.Context, contractorID uuid.UUID) ([]models.Job, error) {
	var jobs []models.Job
	err := s.db.WithContext(ctx).
		Where("contractor_id = ?", contractorID).
		Order("created_at DESC").
		Find(&jobs).Error
	return jobs, err
}

// CloseJob moves an active job to closed and records the winner. The
// status guard in the WHERE clause makes the transition one-shot: a
// concurrent closer hits zero rows and gets ErrConflict.
func (s *Store) CloseJob(ctx context.Context, jobID, winnerID, winningBidID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusActive).
		Updates(map[string]interface{}{
			"status":         models.JobStatusClosed,
			"winner_user_id": winnerID,
			"winning_bid_id": winningBidID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
