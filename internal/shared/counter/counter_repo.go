package counter

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DocumentCounter holds the last issued sequence per scope, e.g. invoice numbers per month.
type DocumentCounter struct {
	Scope       string `gorm:"type:varchar(60);primaryKey"`
	CounterType string `gorm:"type:varchar(40);primaryKey"`
	LastValue   int64  `gorm:"not null;default:0"`
	UpdatedAt   time.Time
}

func (DocumentCounter) TableName() string {
	return "document_counters"
}

//go:generate mockgen -source=counter_repo.go -destination=mock/counter_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetNextValue(ctx context.Context, scope string, counterType string) (int64, error)
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

func (r *repository) GetNextValue(ctx context.Context, scope string, counterType string) (int64, error) {
	var nextValue int64

	// single statement upsert keeps concurrent callers from sharing a value
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO document_counters (scope, counter_type, last_value, updated_at)
		VALUES (?, ?, 1, now())
		ON CONFLICT (scope, counter_type) DO UPDATE
		SET last_value = document_counters.last_value + 1, updated_at = now()
		RETURNING last_value
	`, scope, counterType).Scan(&nextValue).Error

	if err != nil {
		return 0, err
	}

	return nextValue, nil
}
