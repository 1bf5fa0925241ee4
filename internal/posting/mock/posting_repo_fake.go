// Package mock holds an in-memory posting.Repository for service tests.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-schoolops/internal/posting"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FakeRepository struct {
	mu       sync.Mutex
	postings map[uuid.UUID]posting.Posting
	seq      int
}

func NewFakeRepository(postings ...posting.Posting) *FakeRepository {
	f := &FakeRepository{postings: map[uuid.UUID]posting.Posting{}}
	for _, p := range postings {
		f.put(p)
	}
	return f
}

func (f *FakeRepository) WithTx(*gorm.DB) posting.Repository { return f }

// put stamps CreatedAt with a strictly increasing clock so ordering is stable.
func (f *FakeRepository) put(p posting.Posting) {
	f.seq++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Second)
	}
	p.UpdatedAt = p.CreatedAt
	f.postings[p.ID] = p
}

func (f *FakeRepository) Create(_ context.Context, p *posting.Posting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if posting.IsCurrentStatus(p.Status) && p.IsActive {
		for _, other := range f.postings {
			if other.EmployeeID == p.EmployeeID && other.IsActive && posting.IsCurrentStatus(other.Status) {
				return errDuplicateCurrent
			}
		}
	}
	cp := *p
	cp.Employee, cp.School = nil, nil
	f.put(cp)
	return nil
}

func (f *FakeRepository) Update(_ context.Context, p *posting.Posting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.postings[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	cp.Employee, cp.School = nil, nil
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	f.postings[p.ID] = cp
	return nil
}

func (f *FakeRepository) FindByID(_ context.Context, id string) (*posting.Posting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	p, ok := f.postings[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	p.SalaryHistory = append(p.SalaryHistory[:0:0], p.SalaryHistory...)
	return &p, nil
}

func (f *FakeRepository) FindAll(_ context.Context, filter posting.ListPostingsFilter) ([]posting.Posting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []posting.Posting
	for _, p := range f.postings {
		if filter.EmployeeID != "" && p.EmployeeID.String() != filter.EmployeeID {
			continue
		}
		if filter.SchoolID != "" && p.SchoolID.String() != filter.SchoolID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.IsActive != nil && p.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, p)
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *FakeRepository) FindActiveByEmployee(_ context.Context, employeeID uuid.UUID) ([]posting.Posting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []posting.Posting
	for _, p := range f.postings {
		if p.EmployeeID == employeeID && p.IsActive {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *FakeRepository) FindCurrent(_ context.Context) ([]posting.Posting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []posting.Posting
	for _, p := range f.postings {
		if p.IsActive && posting.IsCurrentStatus(p.Status) {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *FakeRepository) FindBillable(_ context.Context, schoolID uuid.UUID, from, to time.Time) ([]posting.Posting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []posting.Posting
	for _, p := range f.postings {
		if p.SchoolID != schoolID || !posting.IsCurrentStatus(p.Status) {
			continue
		}
		if !p.StartDate.Before(to) {
			continue
		}
		if p.EndDate != nil && p.EndDate.Before(from) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (f *FakeRepository) Deactivate(_ context.Context, id uuid.UUID, endDate time.Time, actorID *uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.postings[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.IsActive = false
	p.EndDate = &endDate
	p.UpdatedBy = actorID
	f.postings[id] = p
	return nil
}

// All returns every stored posting, newest first.
func (f *FakeRepository) All() []posting.Posting {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]posting.Posting, 0, len(f.postings))
	for _, p := range f.postings {
		out = append(out, p)
	}
	sortNewestFirst(out)
	return out
}

// Insert stores a posting as is, bypassing the current-posting check.
func (f *FakeRepository) Insert(p posting.Posting) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put(p)
}

func sortNewestFirst(ps []posting.Posting) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].StartDate.Equal(ps[j].StartDate) {
			return ps[i].StartDate.After(ps[j].StartDate)
		}
		return ps[i].CreatedAt.After(ps[j].CreatedAt)
	})
}
