package employee

import (
	"time"

	"github.com/google/uuid"
)

type Employee struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EmployeeCode string     `gorm:"type:varchar(20);not null;uniqueIndex:uq_employee_code"`
	FullName     string     `gorm:"type:varchar(150);not null"`
	Email        string     `gorm:"type:varchar(150);not null;uniqueIndex:uq_employee_email"`
	Phone        string     `gorm:"type:varchar(30)"`
	Designation  string     `gorm:"type:varchar(100)"`
	JoinedAt     time.Time  `gorm:"type:date;not null"`
	CreatedBy    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
