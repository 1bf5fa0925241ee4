package leave

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Upsert writes the counts for (employee, school, month, year), last write wins.
	Upsert(ctx context.Context, l *Leave) error
	FindByPeriod(ctx context.Context, employeeID, schoolID uuid.UUID, month, year int) (*Leave, error)
	FindAllByEmployee(ctx context.Context, employeeID uuid.UUID) ([]Leave, error)
	FindAllBySchoolPeriod(ctx context.Context, schoolID uuid.UUID, month, year int) ([]Leave, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Upsert(ctx context.Context, l *Leave) error {
	l.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "employee_id"}, {Name: "school_id"}, {Name: "month"}, {Name: "year"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"paid", "unpaid", "updated_by", "updated_at"}),
		}).
		Create(l).Error
}

func (r *repository) FindByPeriod(ctx context.Context, employeeID, schoolID uuid.UUID, month, year int) (*Leave, error) {
	var l Leave
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND school_id = ? AND month = ? AND year = ?", employeeID, schoolID, month, year).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindAllByEmployee(ctx context.Context, employeeID uuid.UUID) ([]Leave, error) {
	var leaves []Leave
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("year DESC").
		Order("month DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindAllBySchoolPeriod(ctx context.Context, schoolID uuid.UUID, month, year int) ([]Leave, error) {
	var leaves []Leave
	err := r.db.WithContext(ctx).
		Where("school_id = ? AND month = ? AND year = ?", schoolID, month, year).
		Find(&leaves).Error
	return leaves, err
}
