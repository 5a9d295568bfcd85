package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobStatusActive JobStatus = "active"
	JobStatusClosed JobStatus = "closed" // terminal, set once by the award workflow
)

type Job struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ContractorID uuid.UUID `gorm:"type:uuid;index;not null" json:"contractor_id"`

	Title       string `gorm:"not null" json:"title"`
	Category    string `gorm:"type:varchar(60);index" json:"category"` // Mason, Plumber, Electrician, ...
	Description string `gorm:"type:text" json:"description"`

	StartDate time.Time `json:"start_date"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`

	ImageURL string `gorm:"type:text" json:"image_url"`
	// Attachments holds extra uploaded references ({"images": [...]}).
	Attachments datatypes.JSON `json:"attachments,omitempty"`

	Status JobStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`

	// Set together with Status=closed. WinnerUserID is the resolved
	// labourer when the winning bid came from an agent.
	WinnerUserID *uuid.UUID `gorm:"type:uuid" json:"winner_user_id,omitempty"`
	WinningBidID *uuid.UUID `gorm:"type:uuid" json:"winning_bid_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Contractor *User `gorm:"foreignKey:ContractorID" json:"contractor,omitempty"`
	Bids       []Bid `gorm:"foreignKey:JobID" json:"bids,omitempty"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) (err error) {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return
}
