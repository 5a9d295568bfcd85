package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
)

// userInBatchLimit caps the size of a single IN clause; lookups page
// through the input instead of truncating it.
const userInBatchLimit = 10

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "phone = ?", phone).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// SetUserRole assigns a role to a user that does not have one yet.
// The role is written exactly once; a second call is a conflict.
func (s *Store) SetUserRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	if !models.ValidRole(role) {
		return errors.New("invalid role: " + string(role))
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND (role IS NULL OR role = '')", id).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// GetUsersByIDs fetches profiles for a set of user ids, paging through
// the input in batches of userInBatchLimit. Ids that do not resolve are
// simply absent from the result.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	out := make(map[uuid.UUID]models.User, len(ids))
	for start := 0; start < len(ids); start += userInBatchLimit {
		end := start + userInBatchLimit
		if end > len(ids) {
			end = len(ids)
		}
		var batch []models.User
		if err := s.db.WithContext(ctx).
			Where("id IN ?", ids[start:end]).
			Find(&batch).Error; err != nil {
			return nil, err
		}
		for _, u := range batch {
			out[u.ID] = u
		}
	}
	return out, nil
}

func (s *Store) SaveNotification(ctx context.Context, n *models.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *Store) GetNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	var out []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
