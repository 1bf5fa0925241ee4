package leave

import (
	"time"

	"github.com/google/uuid"
)

// MaxDaysPerMonth caps paid + unpaid on a single monthly record.
const MaxDaysPerMonth = 31

// Leave holds the monthly leave counts of an employee at one school.
type Leave struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leaves_employee_school_period,priority:1;index"`
	SchoolID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leaves_employee_school_period,priority:2;index:idx_leaves_school_period,priority:1"`
	Month      int       `gorm:"not null;uniqueIndex:uq_leaves_employee_school_period,priority:3;index:idx_leaves_school_period,priority:3"`
	Year       int       `gorm:"not null;uniqueIndex:uq_leaves_employee_school_period,priority:4;index:idx_leaves_school_period,priority:2"`
	Paid       int       `gorm:"not null"`
	Unpaid     int       `gorm:"not null"`

	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Leave) TableName() string {
	return "leaves"
}
