package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleLabour     Role = "labour"
	RoleAgent      Role = "agent"
	RoleContractor Role = "contractor"
)

// ValidRole reports whether r is one of the marketplace roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleLabour, RoleAgent, RoleContractor:
		return true
	}
	return false
}

// CanBid reports whether a user with this role may place bids.
// Contractors post jobs; labourers and agents bid on them.
func (r Role) CanBid() bool {
	return r == RoleLabour || r == RoleAgent
}

type User struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"not null" json:"name"`

	// Email and Phone are nullable: phone signups have no email, Google
	// signups have no phone. NULLs never collide on the unique indexes.
	Email *string `gorm:"uniqueIndex" json:"email"`
	Phone *string `gorm:"type:varchar(30);uniqueIndex" json:"phone"`

	Password string `json:"-"` // empty for OTP / Google accounts

	// Role is empty right after a phone signup and is set exactly once
	// through the set-role endpoint.
	Role     Role `gorm:"type:varchar(20);index" json:"role"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
