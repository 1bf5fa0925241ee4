package posting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, p *Posting) error
	Update(ctx context.Context, p *Posting) error
	FindByID(ctx context.Context, id string) (*Posting, error)
	FindAll(ctx context.Context, filter ListPostingsFilter) ([]Posting, error)
	// FindActiveByEmployee returns every posting of the employee with is_active = true.
	FindActiveByEmployee(ctx context.Context, employeeID uuid.UUID) ([]Posting, error)
	// FindCurrent returns active continue/change_school postings of all employees.
	FindCurrent(ctx context.Context) ([]Posting, error)
	// FindBillable returns current-status postings of a school overlapping [from, to).
	FindBillable(ctx context.Context, schoolID uuid.UUID, from, to time.Time) ([]Posting, error)
	Deactivate(ctx context.Context, id uuid.UUID, endDate time.Time, actorID *uuid.UUID) error
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

func (r *repository) Create(ctx context.Context, p *Posting) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *repository) Update(ctx context.Context, p *Posting) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Posting, error) {
	var p Posting
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("School").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindAll(ctx context.Context, filter ListPostingsFilter) ([]Posting, error) {
	query := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("School")

	if filter.EmployeeID != "" {
		query = query.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.SchoolID != "" {
		query = query.Where("school_id = ?", filter.SchoolID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var postings []Posting
	err := query.Order("start_date DESC").Order("created_at DESC").Find(&postings).Error
	return postings, err
}

func (r *repository) FindActiveByEmployee(ctx context.Context, employeeID uuid.UUID) ([]Posting, error) {
	var postings []Posting
	err := r.db.WithContext(ctx).
		Preload("School").
		Where("employee_id = ? AND is_active = ?", employeeID, true).
		Order("start_date DESC").
		Find(&postings).Error
	return postings, err
}

func (r *repository) FindCurrent(ctx context.Context) ([]Posting, error) {
	var postings []Posting
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND status IN ?", true, CurrentStatuses).
		Order("employee_id").
		Order("start_date DESC").
		Order("created_at DESC").
		Find(&postings).Error
	return postings, err
}

func (r *repository) FindBillable(ctx context.Context, schoolID uuid.UUID, from, to time.Time) ([]Posting, error) {
	var postings []Posting
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("school_id = ? AND status IN ?", schoolID, CurrentStatuses).
		Where("start_date < ?", to).
		Where("end_date IS NULL OR end_date >= ?", from).
		Order("start_date ASC").
		Find(&postings).Error
	return postings, err
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID, endDate time.Time, actorID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&Posting{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  false,
			"end_date":   endDate,
			"updated_by": actorID,
			"updated_at": time.Now(),
		}).Error
}
