package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
)

// CreateChat returns the chat for the pair (a, b), creating it if this
// is their first contact. The deterministic id makes the call
// idempotent: a second create for the same pair returns the same row.
func (s *Store) CreateChat(ctx context.Context, a, b uuid.UUID) (*models.Chat, error) {
	if a == b {
		return nil, errors.New("chat requires two distinct participants")
	}

	id := models.ChatIDFor(a, b)

	var chat models.Chat
	err := s.db.WithContext(ctx).First(&chat, "id = ?", id).Error
	if err == nil {
		return &chat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Store participants sorted, matching the id derivation.
	pa, pb := a, b
	if pb.String() < pa.String() {
		pa, pb = pb, pa
	}
	chat = models.Chat{
		ID:            id,
		ParticipantA:  pa,
		ParticipantB:  pb,
		LastMessageAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&chat).Error; err != nil {
		// Lost a create race for the same pair: the existing row wins.
		var existing models.Chat
		if err2 := s.db.WithContext(ctx).First(&existing, "id = ?", id).Error; err2 == nil {
			return &existing, nil
		}
		return nil, err
	}

	s.watch.publishChat(ChatEvent{Kind: ChangeAdded, Chat: chat})
	return &chat, nil
}

func (s *Store) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	var chat models.Chat
	if err := s.db.WithContext(ctx).First(&chat, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &chat, nil
}

func (s *Store) GetChatsForUser(ctx context.Context, userID uuid.UUID) ([]models.Chat, error) {
	var chats []models.Chat
	err := s.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("last_message_at DESC").
		Find(&chats).Error
	return chats, err
}

// SendMessage appends a message and bumps the chat's last-message
// fields in one transaction, so the thread preview can never disagree
// with the message log.
func (s *Store) SendMessage(ctx context.Context, m *models.Message) error {
	chat, err := s.GetChat(ctx, m.ChatID)
	if err != nil {
		return err
	}
	if !chat.Has(m.SenderID) {
		return ErrNotParticipant
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&models.Chat{}).
			Where("id = ?", m.ChatID).
			Updates(map[string]interface{}{
				"last_message":    m.Text,
				"last_message_at": m.CreatedAt,
			}).Error
	})
	if err != nil {
		return err
	}

	chat.LastMessage = m.Text
	chat.LastMessageAt = m.CreatedAt
	s.watch.publishMessage(MessageEvent{Kind: ChangeAdded, Message: *m})
	s.watch.publishChat(ChatEvent{Kind: ChangeModified, Chat: *chat})
	return nil
}

func (s *Store) GetMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}
