package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationKind string

const (
	NotificationJobWon  NotificationKind = "job_won"
	NotificationNewBid  NotificationKind = "new_bid"
	NotificationMessage NotificationKind = "chat_message"
)

type Notification struct {
	ID     uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID        `gorm:"type:uuid;index;not null" json:"user_id"`
	Kind   NotificationKind `gorm:"type:varchar(30);not null" json:"kind"`

	Title string `gorm:"not null" json:"title"`
	Body  string `gorm:"type:text" json:"body"`

	// ReferenceID points at the job, bid or chat the notification is about.
	ReferenceID string `gorm:"type:varchar(80);index" json:"reference_id"`

	IsRead    bool      `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}
