package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Create inserts the invoice with its lines.
	Create(ctx context.Context, inv *Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	LockByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	ExistsForPeriod(ctx context.Context, schoolID uuid.UUID, month, year int) (bool, error)
	// FindLatestOpen returns the most recently created invoice of the school
	// with a pending balance, or gorm.ErrRecordNotFound.
	FindLatestOpen(ctx context.Context, schoolID uuid.UUID) (*Invoice, error)
	FindAll(ctx context.Context, filter ListInvoicesFilter) ([]Invoice, error)
	FindOutstanding(ctx context.Context, schoolID uuid.UUID) ([]Invoice, error)
	AddPayment(ctx context.Context, p *InvoicePayment) error
	UpdateBalance(ctx context.Context, id uuid.UUID, paid, pending decimal.Decimal, status string) error
	SetDocumentURL(ctx context.Context, id uuid.UUID, url string) error
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

func (r *repository) Create(ctx context.Context, inv *Invoice) error {
	return r.db.WithContext(ctx).Omit("Payments").Create(inv).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	var inv Invoice
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC") }).
		First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	var inv Invoice
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) ExistsForPeriod(ctx context.Context, schoolID uuid.UUID, month, year int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Invoice{}).
		Where("school_id = ? AND month = ? AND year = ?", schoolID, month, year).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindLatestOpen(ctx context.Context, schoolID uuid.UUID) (*Invoice, error) {
	var inv Invoice
	err := r.db.WithContext(ctx).
		Where("school_id = ? AND pending_amount > 0", schoolID).
		Order("created_at DESC").
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) FindAll(ctx context.Context, filter ListInvoicesFilter) ([]Invoice, error) {
	db := r.db.WithContext(ctx).Model(&Invoice{})
	if filter.SchoolID != "" {
		db = db.Where("school_id = ?", filter.SchoolID)
	}
	if filter.Month != 0 {
		db = db.Where("month = ?", filter.Month)
	}
	if filter.Year != 0 {
		db = db.Where("year = ?", filter.Year)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	var invoices []Invoice
	err := db.Order("year DESC").Order("month DESC").Order("created_at DESC").Find(&invoices).Error
	return invoices, err
}

func (r *repository) FindOutstanding(ctx context.Context, schoolID uuid.UUID) ([]Invoice, error) {
	var invoices []Invoice
	err := r.db.WithContext(ctx).
		Where("school_id = ? AND pending_amount > 0", schoolID).
		Order("created_at ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *repository) AddPayment(ctx context.Context, p *InvoicePayment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) UpdateBalance(ctx context.Context, id uuid.UUID, paid, pending decimal.Decimal, status string) error {
	res := r.db.WithContext(ctx).
		Model(&Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"paid_amount":    paid,
			"pending_amount": pending,
			"status":         status,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) SetDocumentURL(ctx context.Context, id uuid.UUID, url string) error {
	res := r.db.WithContext(ctx).
		Model(&Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{"document_url": url, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
