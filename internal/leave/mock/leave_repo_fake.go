// Package mock holds an in-memory leave.Repository keyed like the
// uq_leaves_employee_school_period index.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-schoolops/internal/leave"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type key struct {
	employee, school uuid.UUID
	month, year      int
}

type FakeRepository struct {
	mu     sync.Mutex
	leaves map[key]leave.Leave
}

func NewFakeRepository(leaves ...leave.Leave) *FakeRepository {
	f := &FakeRepository{leaves: map[key]leave.Leave{}}
	for _, l := range leaves {
		f.leaves[keyOf(l)] = l
	}
	return f
}

func keyOf(l leave.Leave) key {
	return key{employee: l.EmployeeID, school: l.SchoolID, month: l.Month, year: l.Year}
}

func (f *FakeRepository) WithTx(*gorm.DB) leave.Repository { return f }

func (f *FakeRepository) Upsert(_ context.Context, l *leave.Leave) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := keyOf(*l)
	if existing, ok := f.leaves[k]; ok {
		existing.Paid = l.Paid
		existing.Unpaid = l.Unpaid
		existing.UpdatedBy = l.UpdatedBy
		existing.UpdatedAt = time.Now()
		f.leaves[k] = existing
		return nil
	}
	cp := *l
	cp.UpdatedAt = time.Now()
	f.leaves[k] = cp
	return nil
}

func (f *FakeRepository) FindByPeriod(_ context.Context, employeeID, schoolID uuid.UUID, month, year int) (*leave.Leave, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.leaves[key{employee: employeeID, school: schoolID, month: month, year: year}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (f *FakeRepository) FindAllByEmployee(_ context.Context, employeeID uuid.UUID) ([]leave.Leave, error) {
	return f.filter(func(l leave.Leave) bool { return l.EmployeeID == employeeID }), nil
}

func (f *FakeRepository) FindAllBySchoolPeriod(_ context.Context, schoolID uuid.UUID, month, year int) ([]leave.Leave, error) {
	return f.filter(func(l leave.Leave) bool {
		return l.SchoolID == schoolID && l.Month == month && l.Year == year
	}), nil
}

// Len reports how many distinct records are stored.
func (f *FakeRepository) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.leaves)
}

func (f *FakeRepository) filter(keep func(leave.Leave) bool) []leave.Leave {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]leave.Leave, 0)
	for _, l := range f.leaves {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out
}
