// Package mock holds an in-memory invoice.Repository that honours the
// uq_invoices_school_period constraint.
package mock

import (
	"context"
	"sort"
	"sync"

	"go-schoolops/internal/invoice"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errDuplicatePeriod = &pgconn.PgError{Code: "23505", ConstraintName: "uq_invoices_school_period"}

type FakeRepository struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*invoice.Invoice

	// HideExisting makes ExistsForPeriod report false, simulating a
	// concurrent writer that committed after the check.
	HideExisting bool
}

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{invoices: map[uuid.UUID]*invoice.Invoice{}}
}

func (f *FakeRepository) WithTx(*gorm.DB) invoice.Repository { return f }

func (f *FakeRepository) Create(_ context.Context, inv *invoice.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.invoices {
		if other.SchoolID == inv.SchoolID && other.Month == inv.Month && other.Year == inv.Year {
			return errDuplicatePeriod
		}
	}
	cp := *inv
	cp.Lines = append([]invoice.InvoiceLine(nil), inv.Lines...)
	cp.Payments = nil
	f.invoices[inv.ID] = &cp
	return nil
}

func (f *FakeRepository) FindByID(_ context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *inv
	cp.Lines = append([]invoice.InvoiceLine(nil), inv.Lines...)
	cp.Payments = append([]invoice.InvoicePayment(nil), inv.Payments...)
	return &cp, nil
}

func (f *FakeRepository) LockByID(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	return f.FindByID(ctx, id)
}

func (f *FakeRepository) ExistsForPeriod(_ context.Context, schoolID uuid.UUID, month, year int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.HideExisting {
		return false, nil
	}
	for _, inv := range f.invoices {
		if inv.SchoolID == schoolID && inv.Month == month && inv.Year == year {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeRepository) FindLatestOpen(ctx context.Context, schoolID uuid.UUID) (*invoice.Invoice, error) {
	open, _ := f.FindOutstanding(ctx, schoolID)
	if len(open) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	latest := open[len(open)-1]
	return &latest, nil
}

func (f *FakeRepository) FindAll(_ context.Context, filter invoice.ListInvoicesFilter) ([]invoice.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]invoice.Invoice, 0, len(f.invoices))
	for _, inv := range f.invoices {
		if filter.SchoolID != "" && inv.SchoolID.String() != filter.SchoolID {
			continue
		}
		if filter.Month != 0 && inv.Month != filter.Month {
			continue
		}
		if filter.Year != 0 && inv.Year != filter.Year {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, *inv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out, nil
}

func (f *FakeRepository) FindOutstanding(_ context.Context, schoolID uuid.UUID) ([]invoice.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]invoice.Invoice, 0)
	for _, inv := range f.invoices {
		if inv.SchoolID == schoolID && inv.PendingAmount.IsPositive() {
			out = append(out, *inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *FakeRepository) AddPayment(_ context.Context, p *invoice.InvoicePayment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[p.InvoiceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	inv.Payments = append(inv.Payments, *p)
	return nil
}

func (f *FakeRepository) UpdateBalance(_ context.Context, id uuid.UUID, paid, pending decimal.Decimal, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	inv.PaidAmount, inv.PendingAmount, inv.Status = paid, pending, status
	return nil
}

func (f *FakeRepository) SetDocumentURL(_ context.Context, id uuid.UUID, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	inv.DocumentURL = &url
	return nil
}

// Count reports how many invoices are stored.
func (f *FakeRepository) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.invoices)
}
