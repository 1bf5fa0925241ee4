// Package mock holds an in-memory school.Repository used by service tests
// that need to observe roster state across several calls.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-schoolops/internal/school"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FakeRepository struct {
	mu      sync.Mutex
	schools map[uuid.UUID]*school.School
	roster  map[uuid.UUID]map[uuid.UUID]time.Time

	// FailAddTrainer makes AddTrainer return the error once set.
	FailAddTrainer error
}

func NewFakeRepository(schools ...school.School) *FakeRepository {
	f := &FakeRepository{
		schools: map[uuid.UUID]*school.School{},
		roster:  map[uuid.UUID]map[uuid.UUID]time.Time{},
	}
	for i := range schools {
		sc := schools[i]
		f.schools[sc.ID] = &sc
		f.roster[sc.ID] = map[uuid.UUID]time.Time{}
	}
	return f
}

func (f *FakeRepository) WithTx(*gorm.DB) school.Repository { return f }

func (f *FakeRepository) Create(_ context.Context, sc *school.School) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *sc
	f.schools[sc.ID] = &cp
	f.roster[sc.ID] = map[uuid.UUID]time.Time{}
	return nil
}

func (f *FakeRepository) FindByID(_ context.Context, id string) (*school.School, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	sc, ok := f.schools[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := f.snapshot(sc)
	return &out, nil
}

func (f *FakeRepository) FindAll(_ context.Context, status string) ([]school.School, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]school.School, 0, len(f.schools))
	for _, sc := range f.schools {
		if status != "" && sc.Status != status {
			continue
		}
		out = append(out, f.snapshot(sc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *FakeRepository) UpdateStatus(_ context.Context, id string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, _ := uuid.Parse(id)
	sc, ok := f.schools[uid]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	sc.Status = status
	return nil
}

func (f *FakeRepository) AddTrainer(_ context.Context, schoolID, employeeID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAddTrainer != nil {
		return f.FailAddTrainer
	}
	if _, ok := f.roster[schoolID]; !ok {
		f.roster[schoolID] = map[uuid.UUID]time.Time{}
	}
	if _, ok := f.roster[schoolID][employeeID]; !ok {
		f.roster[schoolID][employeeID] = time.Now()
	}
	return nil
}

func (f *FakeRepository) RemoveTrainer(_ context.Context, schoolID, employeeID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.roster[schoolID], employeeID)
	return nil
}

func (f *FakeRepository) ReplaceTrainers(_ context.Context, schoolID uuid.UUID, employeeIDs []uuid.UUID) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[uuid.UUID]struct{}{}
	for _, id := range employeeIDs {
		want[id] = struct{}{}
	}
	current := f.roster[schoolID]
	if current == nil {
		current = map[uuid.UUID]time.Time{}
		f.roster[schoolID] = current
	}

	added, removed := 0, 0
	for id := range current {
		if _, ok := want[id]; !ok {
			delete(current, id)
			removed++
		}
	}
	for id := range want {
		if _, ok := current[id]; !ok {
			current[id] = time.Now()
			added++
		}
	}
	return added, removed, nil
}

// Roster returns a copy of the trainer set of one school.
func (f *FakeRepository) Roster(schoolID uuid.UUID) map[uuid.UUID]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uuid.UUID]bool{}
	for id := range f.roster[schoolID] {
		out[id] = true
	}
	return out
}

// SetRoster overwrites the trainer set, used to simulate drift.
func (f *FakeRepository) SetRoster(schoolID uuid.UUID, employeeIDs ...uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roster[schoolID] = map[uuid.UUID]time.Time{}
	for _, id := range employeeIDs {
		f.roster[schoolID][id] = time.Now()
	}
}

func (f *FakeRepository) snapshot(sc *school.School) school.School {
	out := *sc
	out.CurrentTrainers = nil
	for id, at := range f.roster[sc.ID] {
		out.CurrentTrainers = append(out.CurrentTrainers, school.SchoolTrainer{SchoolID: sc.ID, EmployeeID: id, AddedAt: at})
	}
	sort.Slice(out.CurrentTrainers, func(i, j int) bool {
		return out.CurrentTrainers[i].EmployeeID.String() < out.CurrentTrainers[j].EmployeeID.String()
	})
	return out
}
