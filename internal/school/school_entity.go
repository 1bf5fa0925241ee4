package school

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type School struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string     `gorm:"type:varchar(150);not null"`
	Code         string     `gorm:"type:varchar(30);not null;uniqueIndex:uq_school_code"`
	Address      string     `gorm:"type:text"`
	ContactEmail string     `gorm:"type:varchar(255)"`
	Status       string     `gorm:"type:varchar(20);not null;index"`
	CreatedBy    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time  `gorm:"not null;default:now()"`
	UpdatedAt    time.Time  `gorm:"not null;default:now()"`

	// CurrentTrainers is the roster: employees holding a current posting here.
	CurrentTrainers []SchoolTrainer `gorm:"foreignKey:SchoolID"`
}

func (School) TableName() string {
	return "schools"
}

type SchoolTrainer struct {
	SchoolID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	AddedAt    time.Time `gorm:"not null"`
}

func (SchoolTrainer) TableName() string {
	return "school_trainers"
}

func (s School) TrainerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.CurrentTrainers))
	for _, t := range s.CurrentTrainers {
		ids = append(ids, t.EmployeeID)
	}
	return ids
}
