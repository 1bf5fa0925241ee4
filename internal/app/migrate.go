package app

import (
	"fmt"

	"go-schoolops/internal/employee"
	"go-schoolops/internal/invoice"
	"go-schoolops/internal/leave"
	"go-schoolops/internal/messaging/kafka"
	"go-schoolops/internal/posting"
	"go-schoolops/internal/school"
	"go-schoolops/internal/shared/counter"

	"gorm.io/gorm"
)

// currentPostingIndexSQL backs the one-current-school rule; gorm tags cannot
// express a partial index.
const currentPostingIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS uq_postings_employee_current
ON postings (employee_id)
WHERE is_active AND status IN ('continue', 'change_school')`

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&employee.Employee{},
		&school.School{},
		&school.SchoolTrainer{},
		&posting.Posting{},
		&leave.Leave{},
		&invoice.Invoice{},
		&invoice.InvoiceLine{},
		&invoice.InvoicePayment{},
		&counter.DocumentCounter{},
		&kafka.OutboxEvent{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := db.Exec(currentPostingIndexSQL).Error; err != nil {
		return fmt.Errorf("create current posting index: %w", err)
	}
	return nil
}
