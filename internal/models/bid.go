package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
)

// A Bid is immutable once created except for its status, which moves
// pending -> accepted or pending -> rejected during the award.
type Bid struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JobID    uuid.UUID `gorm:"type:uuid;index;not null" json:"job_id"`
	BidderID uuid.UUID `gorm:"type:uuid;index;not null" json:"bidder_id"`

	Amount int64 `gorm:"not null" json:"amount"`

	// LabourerID is set when an agent bids on behalf of a labourer;
	// the award resolves the winner to this id when present.
	LabourerID *uuid.UUID `gorm:"type:uuid" json:"labourer_id,omitempty"`

	Status BidStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Job    *Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Bidder *User `gorm:"foreignKey:BidderID" json:"bidder,omitempty"`
}

// WinnerID resolves who actually takes the job if this bid wins.
func (b *Bid) WinnerID() uuid.UUID {
	if b.LabourerID != nil && *b.LabourerID != uuid.Nil {
		return *b.LabourerID
	}
	return b.BidderID
}

func (b *Bid) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}
