package school

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, school *School) error
	FindByID(ctx context.Context, id string) (*School, error)
	FindAll(ctx context.Context, status string) ([]School, error)
	UpdateStatus(ctx context.Context, id string, status string) error

	AddTrainer(ctx context.Context, schoolID, employeeID uuid.UUID) error
	RemoveTrainer(ctx context.Context, schoolID, employeeID uuid.UUID) error
	// ReplaceTrainers makes the roster equal to employeeIDs and reports the diff size.
	ReplaceTrainers(ctx context.Context, schoolID uuid.UUID, employeeIDs []uuid.UUID) (added int, removed int, err error)
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

func (r *repository) Create(ctx context.Context, school *School) error {
	return r.db.WithContext(ctx).Omit("CurrentTrainers").Create(school).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*School, error) {
	var school School
	err := r.db.WithContext(ctx).
		Preload("CurrentTrainers", func(db *gorm.DB) *gorm.DB {
			return db.Order("added_at ASC")
		}).
		First(&school, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &school, nil
}

func (r *repository) FindAll(ctx context.Context, status string) ([]School, error) {
	var schools []School
	query := r.db.WithContext(ctx).Preload("CurrentTrainers").Order("name ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&schools).Error
	return schools, err
}

func (r *repository) UpdateStatus(ctx context.Context, id string, status string) error {
	res := r.db.WithContext(ctx).
		Model(&School{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) AddTrainer(ctx context.Context, schoolID, employeeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&SchoolTrainer{SchoolID: schoolID, EmployeeID: employeeID, AddedAt: time.Now()}).Error
}

func (r *repository) RemoveTrainer(ctx context.Context, schoolID, employeeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("school_id = ? AND employee_id = ?", schoolID, employeeID).
		Delete(&SchoolTrainer{}).Error
}

func (r *repository) ReplaceTrainers(ctx context.Context, schoolID uuid.UUID, employeeIDs []uuid.UUID) (int, int, error) {
	var current []SchoolTrainer
	if err := r.db.WithContext(ctx).Where("school_id = ?", schoolID).Find(&current).Error; err != nil {
		return 0, 0, err
	}

	want := make(map[uuid.UUID]struct{}, len(employeeIDs))
	for _, id := range employeeIDs {
		want[id] = struct{}{}
	}

	removed := 0
	for _, t := range current {
		if _, ok := want[t.EmployeeID]; ok {
			delete(want, t.EmployeeID)
			continue
		}
		if err := r.RemoveTrainer(ctx, schoolID, t.EmployeeID); err != nil {
			return 0, removed, err
		}
		removed++
	}

	added := 0
	for id := range want {
		if err := r.AddTrainer(ctx, schoolID, id); err != nil {
			return added, removed, err
		}
		added++
	}

	return added, removed, nil
}
