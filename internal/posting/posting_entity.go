package posting

import (
	"time"

	"go-schoolops/internal/employee"
	"go-schoolops/internal/school"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	StatusContinue     = "continue"
	StatusChangeSchool = "change_school"
	StatusResign       = "resign"
	StatusTerminate    = "terminate"
)

// CurrentStatuses are the statuses that place an employee on a school roster.
var CurrentStatuses = []string{StatusContinue, StatusChangeSchool}

func IsCurrentStatus(status string) bool {
	return status == StatusContinue || status == StatusChangeSchool
}

func IsTerminalStatus(status string) bool {
	return status == StatusResign || status == StatusTerminate
}

// SalaryChange records a billing salary that was in force between From and To.
type SalaryChange struct {
	Amount decimal.Decimal `json:"amount"`
	From   time.Time       `json:"from"`
	To     time.Time       `json:"to"`
}

// Posting is an employee's assignment to one school over time. The partial
// unique index uq_postings_employee_current is created by the migration.
type Posting struct {
	ID                   uuid.UUID                         `gorm:"type:uuid;primaryKey"`
	EmployeeID           uuid.UUID                         `gorm:"type:uuid;not null;index:idx_postings_employee_active,priority:1"`
	Employee             *employee.Employee                `gorm:"foreignKey:EmployeeID"`
	SchoolID             uuid.UUID                         `gorm:"type:uuid;not null;index:idx_postings_school_window,priority:1"`
	School               *school.School                    `gorm:"foreignKey:SchoolID"`
	StartDate            time.Time                         `gorm:"not null;index:idx_postings_school_window,priority:2"`
	EndDate              *time.Time                        `gorm:"index:idx_postings_school_window,priority:3"`
	Status               string                            `gorm:"type:varchar(20);not null"`
	IsActive             bool                              `gorm:"not null;index:idx_postings_employee_active,priority:2"`
	MonthlyBillingSalary decimal.Decimal                   `gorm:"type:numeric(14,2);not null"`
	TDSPercent           decimal.Decimal                   `gorm:"type:numeric(5,2);not null"`
	GSTPercent           decimal.Decimal                   `gorm:"type:numeric(5,2);not null"`
	SalaryHistory        datatypes.JSONSlice[SalaryChange] `gorm:"type:jsonb"`
	Remark               string                            `gorm:"type:text"`
	CreatedBy            *uuid.UUID                        `gorm:"type:uuid"`
	UpdatedBy            *uuid.UUID                        `gorm:"type:uuid"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (Posting) TableName() string {
	return "postings"
}

// salaryEffectiveSince is when the current salary started applying.
func (p Posting) salaryEffectiveSince() time.Time {
	if n := len(p.SalaryHistory); n > 0 {
		return p.SalaryHistory[n-1].To
	}
	return p.StartDate
}
