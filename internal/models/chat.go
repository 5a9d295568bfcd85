package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatIDFor derives the chat id for a pair of users. The id is the
// sorted join of both ids, so ChatIDFor(a, b) == ChatIDFor(b, a) and
// a pair can never own more than one chat row.
func ChatIDFor(a, b uuid.UUID) string {
	ids := []string{a.String(), b.String()}
	sort.Strings(ids)
	return ids[0] + ":" + ids[1]
}

// Chat is a two-party thread. Created lazily on first contact, never
// deleted. ParticipantA/ParticipantB are stored in sorted order to
// match the id derivation.
type Chat struct {
	ID string `gorm:"type:varchar(80);primaryKey" json:"id"`

	ParticipantA uuid.UUID `gorm:"type:uuid;index;not null" json:"participant_a"`
	ParticipantB uuid.UUID `gorm:"type:uuid;index;not null" json:"participant_b"`

	LastMessage   string    `gorm:"type:text" json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []Message `gorm:"foreignKey:ChatID" json:"messages,omitempty"`
}

// Other returns the participant that is not userID.
func (c *Chat) Other(userID uuid.UUID) uuid.UUID {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// Has reports whether userID is one of the two participants.
func (c *Chat) Has(userID uuid.UUID) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// Message is immutable once created.
type Message struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChatID     string    `gorm:"type:varchar(80);index;not null" json:"chat_id"`
	SenderID   uuid.UUID `gorm:"type:uuid;index;not null" json:"sender_id"`
	ReceiverID uuid.UUID `gorm:"type:uuid;index;not null" json:"receiver_id"`

	Text string `gorm:"type:text;not null" json:"text"`

	CreatedAt time.Time `json:"created_at"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
