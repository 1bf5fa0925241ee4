package posting_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"go-schoolops/internal/employee"
	"go-schoolops/internal/messaging/kafka"
	kafkaMock "go-schoolops/internal/messaging/kafka/mock"
	"go-schoolops/internal/posting"
	postingerrors "go-schoolops/internal/posting/errors"
	postingMock "go-schoolops/internal/posting/mock"
	"go-schoolops/internal/school"
	schoolMock "go-schoolops/internal/school/mock"
	"go-schoolops/internal/shared/dbtest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type fakeEmployees struct {
	known map[string]bool
}

func (f *fakeEmployees) WithTx(*gorm.DB) employee.Repository                  { return f }
func (f *fakeEmployees) Create(context.Context, *employee.Employee) error     { return nil }
func (f *fakeEmployees) FindAll(context.Context) ([]employee.Employee, error) { return nil, nil }
func (f *fakeEmployees) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	return f.LockByID(ctx, id)
}
func (f *fakeEmployees) LockByID(_ context.Context, id string) (*employee.Employee, error) {
	if !f.known[id] {
		return nil, gorm.ErrRecordNotFound
	}
	return &employee.Employee{ID: uuid.MustParse(id)}, nil
}

type fixture struct {
	t         *testing.T
	postings  *postingMock.FakeRepository
	schools   *schoolMock.FakeRepository
	employees *fakeEmployees
	outbox    kafka.OutboxRepository
	sqlMock   sqlmock.Sqlmock
	service   posting.Service

	schoolA, schoolB, schoolC uuid.UUID
	closedSchool              uuid.UUID
	emp                       uuid.UUID
	actor                     string
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	outbox := kafkaMock.NewMockOutboxRepository(ctrl)
	outbox.EXPECT().WithTx(gomock.Any()).Return(outbox).AnyTimes()
	outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	f := &fixture{
		t:            t,
		schoolA:      uuid.New(),
		schoolB:      uuid.New(),
		schoolC:      uuid.New(),
		closedSchool: uuid.New(),
		emp:          uuid.New(),
		actor:        uuid.New().String(),
		outbox:       outbox,
	}
	f.schools = schoolMock.NewFakeRepository(
		school.School{ID: f.schoolA, Name: "A", Status: school.StatusActive},
		school.School{ID: f.schoolB, Name: "B", Status: school.StatusActive},
		school.School{ID: f.schoolC, Name: "C", Status: school.StatusActive},
		school.School{ID: f.closedSchool, Name: "Closed", Status: school.StatusInactive},
	)
	f.postings = postingMock.NewFakeRepository()
	f.employees = &fakeEmployees{known: map[string]bool{f.emp.String(): true}}
	f.renew()
	return f
}

// renew swaps in a fresh sqlmock expecting one committed transaction. A
// rollback against it fails silently inside gorm, so failing calls are fine.
func (f *fixture) renew() {
	db, mock := dbtest.NewGormMock(f.t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	f.sqlMock = mock
	f.service = posting.NewService(db, f.postings, f.employees, f.schools, f.outbox)
}

func (f *fixture) create(emp, schoolID uuid.UUID, status string, salary int64) (posting.PostingResponse, error) {
	f.renew()
	amount := decimal.NewFromInt(salary)
	return f.service.Create(context.Background(), f.actor, posting.CreatePostingRequest{
		EmployeeID:           emp.String(),
		SchoolID:             schoolID.String(),
		Status:               status,
		MonthlyBillingSalary: &amount,
	})
}

func (f *fixture) update(id string, req posting.UpdatePostingRequest) (posting.PostingResponse, error) {
	f.renew()
	return f.service.Update(context.Background(), f.actor, id, req)
}

// assertRosterInvariant checks every school roster against the current postings.
func (f *fixture) assertRosterInvariant() {
	f.t.Helper()
	want := map[uuid.UUID]map[uuid.UUID]bool{}
	currentPerEmployee := map[uuid.UUID]int{}
	for _, p := range f.postings.All() {
		if p.IsActive && posting.IsCurrentStatus(p.Status) {
			if want[p.SchoolID] == nil {
				want[p.SchoolID] = map[uuid.UUID]bool{}
			}
			want[p.SchoolID][p.EmployeeID] = true
			currentPerEmployee[p.EmployeeID]++
		}
		if p.EndDate != nil {
			assert.False(f.t, p.EndDate.Before(p.StartDate), "end date before start date")
		}
	}
	for emp, n := range currentPerEmployee {
		assert.LessOrEqual(f.t, n, 1, "employee %s has %d current postings", emp, n)
	}
	for _, id := range []uuid.UUID{f.schoolA, f.schoolB, f.schoolC, f.closedSchool} {
		expected := want[id]
		if expected == nil {
			expected = map[uuid.UUID]bool{}
		}
		assert.Equal(f.t, expected, f.schools.Roster(id), "roster of school %s", id)
	}
}

func salary(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func strPtr(s string) *string { return &s }

func TestPostingService_Create_Scenarios(t *testing.T) {
	f := newFixture(t)

	// first posting puts E on the roster of A
	first, err := f.create(f.emp, f.schoolA, posting.StatusContinue, 30000)
	require.NoError(t, err)
	assert.True(t, first.IsActive)
	assert.Equal(t, posting.StatusContinue, first.Status)
	assert.True(t, f.schools.Roster(f.schoolA)[f.emp])
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	f.assertRosterInvariant()

	// posting again to the same school is rejected
	_, err = f.create(f.emp, f.schoolA, posting.StatusContinue, 30000)
	assert.ErrorIs(t, err, postingerrors.ErrActivePostingExists)
	assert.Equal(t, "Employee already has active posting in this school", err.Error())
	f.assertRosterInvariant()

	// continue elsewhere becomes an auto transfer
	second, err := f.create(f.emp, f.schoolB, posting.StatusContinue, 32000)
	require.NoError(t, err)
	assert.Equal(t, posting.StatusChangeSchool, second.Status)
	assert.NotEmpty(t, second.Remark)
	assert.False(t, f.schools.Roster(f.schoolA)[f.emp])
	assert.True(t, f.schools.Roster(f.schoolB)[f.emp])

	old, err := f.service.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.False(t, old.IsActive)
	assert.NotNil(t, old.EndDate)
	f.assertRosterInvariant()
}

func TestPostingService_Create_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("salary missing is rejected before any lookup", func(t *testing.T) {
		f := newFixture(t)
		db, mock := dbtest.NewGormMock(t)
		svc := posting.NewService(db, f.postings, f.employees, f.schools, nil)

		_, err := svc.Create(ctx, f.actor, posting.CreatePostingRequest{
			EmployeeID: uuid.New().String(), SchoolID: f.schoolA.String(), Status: posting.StatusContinue,
		})

		assert.ErrorIs(t, err, postingerrors.ErrSalaryRequired)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed ids are rejected before any lookup", func(t *testing.T) {
		f := newFixture(t)
		db, mock := dbtest.NewGormMock(t)
		svc := posting.NewService(db, f.postings, f.employees, f.schools, nil)

		_, err := svc.Create(ctx, f.actor, posting.CreatePostingRequest{
			EmployeeID: "nope", SchoolID: f.schoolA.String(),
			Status: posting.StatusContinue, MonthlyBillingSalary: salary(1000),
		})
		assert.ErrorIs(t, err, postingerrors.ErrEmployeeNotFound)

		_, err = svc.Create(ctx, f.actor, posting.CreatePostingRequest{
			EmployeeID: f.emp.String(), SchoolID: "nope",
			Status: posting.StatusContinue, MonthlyBillingSalary: salary(1000),
		})
		assert.ErrorIs(t, err, postingerrors.ErrSchoolNotFound)

		assert.Empty(t, f.postings.All())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero salary", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.create(f.emp, f.schoolA, posting.StatusContinue, 0)
		assert.ErrorIs(t, err, postingerrors.ErrSalaryRequired)
	})

	t.Run("unknown employee rolls back", func(t *testing.T) {
		f := newFixture(t)
		db, mock := dbtest.NewGormMock(t)
		dbtest.ExpectTx(mock, false)
		svc := posting.NewService(db, f.postings, f.employees, f.schools, nil)

		_, err := svc.Create(ctx, f.actor, posting.CreatePostingRequest{
			EmployeeID: uuid.New().String(), SchoolID: f.schoolA.String(),
			Status: posting.StatusContinue, MonthlyBillingSalary: salary(1000),
		})

		assert.ErrorIs(t, err, postingerrors.ErrEmployeeNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown school", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.create(f.emp, uuid.New(), posting.StatusContinue, 1000)
		assert.ErrorIs(t, err, postingerrors.ErrSchoolNotFound)
	})

	t.Run("inactive school", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.create(f.emp, f.closedSchool, posting.StatusContinue, 1000)
		assert.ErrorIs(t, err, postingerrors.ErrSchoolInactive)
		assert.Empty(t, f.postings.All())
	})

	t.Run("transfer without current posting", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.create(f.emp, f.schoolA, posting.StatusChangeSchool, 1000)
		assert.ErrorIs(t, err, postingerrors.ErrNotCurrentlyPosted)
	})

	t.Run("transfer to the current school", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.create(f.emp, f.schoolA, posting.StatusContinue, 1000)
		require.NoError(t, err)

		_, err = f.create(f.emp, f.schoolA, posting.StatusChangeSchool, 1000)
		assert.ErrorIs(t, err, postingerrors.ErrAlreadyPostedHere)
	})

	t.Run("percent out of range", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Create(ctx, f.actor, posting.CreatePostingRequest{
			EmployeeID: f.emp.String(), SchoolID: f.schoolA.String(), Status: posting.StatusContinue,
			MonthlyBillingSalary: salary(1000), TDSPercent: salary(101),
		})
		assert.ErrorIs(t, err, postingerrors.ErrInvalidTDSPercent)
	})

	t.Run("end before start", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Create(ctx, f.actor, posting.CreatePostingRequest{
			EmployeeID: f.emp.String(), SchoolID: f.schoolA.String(), Status: posting.StatusContinue,
			MonthlyBillingSalary: salary(1000), StartDate: "2024-06-10", EndDate: "2024-06-01",
		})
		assert.ErrorIs(t, err, postingerrors.ErrInvalidDateRange)
	})
}

func TestPostingService_Create_ExplicitTransfer(t *testing.T) {
	f := newFixture(t)
	_, err := f.create(f.emp, f.schoolA, posting.StatusContinue, 30000)
	require.NoError(t, err)

	moved, err := f.create(f.emp, f.schoolB, posting.StatusChangeSchool, 31000)
	require.NoError(t, err)

	assert.Equal(t, posting.StatusChangeSchool, moved.Status)
	assert.Empty(t, moved.Remark)
	f.assertRosterInvariant()

	// transferring again from a change_school posting works the same way
	_, err = f.create(f.emp, f.schoolC, posting.StatusContinue, 31000)
	require.NoError(t, err)
	assert.True(t, f.schools.Roster(f.schoolC)[f.emp])
	f.assertRosterInvariant()
}

func TestPostingService_Create_Resign(t *testing.T) {
	f := newFixture(t)
	current, err := f.create(f.emp, f.schoolA, posting.StatusContinue, 30000)
	require.NoError(t, err)

	exit, err := f.create(f.emp, f.schoolA, posting.StatusResign, 30000)
	require.NoError(t, err)

	assert.Equal(t, posting.StatusResign, exit.Status)
	assert.False(t, exit.IsActive)
	assert.NotNil(t, exit.EndDate)
	assert.False(t, f.schools.Roster(f.schoolA)[f.emp])

	prev, err := f.service.GetByID(context.Background(), current.ID)
	require.NoError(t, err)
	assert.False(t, prev.IsActive)
	f.assertRosterInvariant()

	// after resigning the employee can be posted afresh
	_, err = f.create(f.emp, f.schoolB, posting.StatusContinue, 30000)
	require.NoError(t, err)
	f.assertRosterInvariant()
}

func TestPostingService_Create_ResignElsewhereKeepsCurrentSchool(t *testing.T) {
	f := newFixture(t)
	_, err := f.create(f.emp, f.schoolA, posting.StatusContinue, 30000)
	require.NoError(t, err)

	_, err = f.create(f.emp, f.schoolB, posting.StatusTerminate, 30000)
	require.NoError(t, err)

	assert.True(t, f.schools.Roster(f.schoolA)[f.emp])
	f.assertRosterInvariant()
}

func TestPostingService_Create_FailedRosterWriteRollsBack(t *testing.T) {
	f := newFixture(t)
	f.schools.FailAddTrainer = errors.New("roster table locked")

	db, mock := dbtest.NewGormMock(t)
	dbtest.ExpectTx(mock, false)
	svc := posting.NewService(db, f.postings, f.employees, f.schools, nil)

	_, err := svc.Create(context.Background(), f.actor, posting.CreatePostingRequest{
		EmployeeID: f.emp.String(), SchoolID: f.schoolA.String(),
		Status: posting.StatusContinue, MonthlyBillingSalary: salary(1000),
	})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostingService_Create_WritesOutboxEvent(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	outbox := kafkaMock.NewMockOutboxRepository(ctrl)
	db, mock := dbtest.NewGormMock(t)
	dbtest.ExpectTx(mock, true)

	outbox.EXPECT().WithTx(gomock.Any()).Return(outbox)
	outbox.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e kafka.OutboxEvent) error {
			assert.Equal(t, "posting", e.AggregateType)
			assert.Equal(t, "posting.created", e.EventType)
			assert.Contains(t, string(e.Payload), f.emp.String())
			return nil
		})

	svc := posting.NewService(db, f.postings, f.employees, f.schools, outbox)
	_, err := svc.Create(context.Background(), f.actor, posting.CreatePostingRequest{
		EmployeeID: f.emp.String(), SchoolID: f.schoolA.String(),
		Status: posting.StatusContinue, MonthlyBillingSalary: salary(1000),
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostingService_Update(t *testing.T) {
	t.Run("salary change appends history", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.create(f.emp, f.schoolA, posting.StatusContinue, 30000)
		require.NoError(t, err)

		updated, err := f.update(created.ID, posting.UpdatePostingRequest{MonthlyBillingSalary: salary(35000)})
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(35000).Equal(updated.MonthlyBillingSalary))
		require.Len(t, updated.SalaryHistory, 1)
		assert.True(t, decimal.NewFromInt(30000).Equal(updated.SalaryHistory[0].Amount))

		again, err := f.update(created.ID, posting.UpdatePostingRequest{MonthlyBillingSalary: salary(36000)})
		require.NoError(t, err)
		require.Len(t, again.SalaryHistory, 2)
		assert.Equal(t, again.SalaryHistory[0].To, again.SalaryHistory[1].From)
	})

	t.Run("same salary leaves history alone", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.create(f.emp, f.schoolA, posting.StatusContinue, 30000)
		require.NoError(t, err)

		updated, err := f.update(created.ID, posting.UpdatePostingRequest{
			MonthlyBillingSalary: salary(30000), Remark: strPtr("revised"),
		})
		require.NoError(t, err)
		assert.Empty(t, updated.SalaryHistory)
		assert.Equal(t, "revised", updated.Remark)
	})

	t.Run("terminate removes from roster", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.create(f.emp, f.schoolA, posting.StatusContinue, 30000)
		require.NoError(t, err)

		updated, err := f.update(created.ID, posting.UpdatePostingRequest{Status: strPtr(posting.StatusTerminate)})
		require.NoError(t, err)
		assert.False(t, updated.IsActive)
		assert.NotNil(t, updated.EndDate)
		assert.False(t, f.schools.Roster(f.schoolA)[f.emp])
		f.assertRosterInvariant()
	})

	t.Run("resign keeps the end date sent with it", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.create(f.emp, f.schoolA, posting.StatusContinue, 30000)
		require.NoError(t, err)

		lastDay := time.Now().UTC().AddDate(0, 0, 14).Format("2006-01-02")
		updated, err := f.update(created.ID, posting.UpdatePostingRequest{
			Status:  strPtr(posting.StatusResign),
			EndDate: strPtr(lastDay),
		})
		require.NoError(t, err)
		assert.False(t, updated.IsActive)
		require.NotNil(t, updated.EndDate)
		assert.Equal(t, lastDay, *updated.EndDate)
		assert.False(t, f.schools.Roster(f.schoolA)[f.emp])
		f.assertRosterInvariant()
	})

	t.Run("reactivating a superseded posting moves the employee back", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.create(f.emp, f.schoolA, posting.StatusContinue, 30000)
		require.NoError(t, err)
		second, err := f.create(f.emp, f.schoolB, posting.StatusContinue, 30000)
		require.NoError(t, err)

		back, err := f.update(first.ID, posting.UpdatePostingRequest{Status: strPtr(posting.StatusContinue)})
		require.NoError(t, err)

		assert.True(t, back.IsActive)
		assert.Equal(t, posting.StatusChangeSchool, back.Status)
		assert.Nil(t, back.EndDate)
		assert.True(t, f.schools.Roster(f.schoolA)[f.emp])
		assert.False(t, f.schools.Roster(f.schoolB)[f.emp])

		closed, err := f.service.GetByID(context.Background(), second.ID)
		require.NoError(t, err)
		assert.False(t, closed.IsActive)
		f.assertRosterInvariant()
	})

	t.Run("reactivation into an inactive school", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.create(f.emp, f.schoolA, posting.StatusContinue, 30000)
		require.NoError(t, err)
		_, err = f.update(created.ID, posting.UpdatePostingRequest{Status: strPtr(posting.StatusResign)})
		require.NoError(t, err)
		require.NoError(t, f.schools.UpdateStatus(context.Background(), f.schoolA.String(), school.StatusInactive))

		_, err = f.update(created.ID, posting.UpdatePostingRequest{Status: strPtr(posting.StatusContinue)})
		assert.ErrorIs(t, err, postingerrors.ErrSchoolInactive)
	})

	t.Run("unknown posting", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.update(uuid.New().String(), posting.UpdatePostingRequest{Remark: strPtr("x")})
		assert.ErrorIs(t, err, postingerrors.ErrPostingNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Update(context.Background(), f.actor, "42", posting.UpdatePostingRequest{})
		assert.ErrorIs(t, err, postingerrors.ErrInvalidPostingID)
	})
}

func TestPostingService_GetAll_SortedByStartDateDesc(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, sc := range []uuid.UUID{f.schoolA, f.schoolB, f.schoolC} {
		f.postings.Insert(posting.Posting{
			ID: uuid.New(), EmployeeID: uuid.New(), SchoolID: sc,
			StartDate: base.AddDate(0, i, 0), Status: posting.StatusContinue, IsActive: true,
		})
	}

	list, err := f.service.GetAll(context.Background(), posting.ListPostingsFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2024-03-01", list[0].StartDate)
	assert.Equal(t, "2024-01-01", list[2].StartDate)

	active := true
	filtered, err := f.service.GetAll(context.Background(), posting.ListPostingsFilter{SchoolID: f.schoolB.String(), IsActive: &active})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
}

func TestPostingService_ReconcileRosters(t *testing.T) {
	f := newFixture(t)
	other := uuid.New()
	f.employees.known[other.String()] = true

	_, err := f.create(f.emp, f.schoolA, posting.StatusContinue, 30000)
	require.NoError(t, err)
	_, err = f.create(other, f.schoolB, posting.StatusContinue, 30000)
	require.NoError(t, err)

	// drift: wrong rosters plus a duplicate current posting that bypassed the index
	stale := uuid.New()
	f.schools.SetRoster(f.schoolA, stale)
	f.schools.SetRoster(f.schoolC, f.emp)
	f.postings.Insert(posting.Posting{
		ID: uuid.New(), EmployeeID: other, SchoolID: f.schoolC,
		StartDate: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:    posting.StatusContinue, IsActive: true,
	})

	f.renew()
	report, err := f.service.ReconcileRosters(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.SchoolsChecked)
	assert.Equal(t, 1, report.PostingsDeactivated)
	assert.Equal(t, 2, report.TrainersRemoved)
	assert.Equal(t, 1, report.TrainersAdded)
	assert.True(t, f.schools.Roster(f.schoolB)[other])
	assert.False(t, f.schools.Roster(f.schoolC)[other])
	f.assertRosterInvariant()
}

func TestPostingService_RosterConsistencyUnderRandomOperations(t *testing.T) {
	f := newFixture(t)
	employees := []uuid.UUID{f.emp, uuid.New(), uuid.New()}
	for _, e := range employees {
		f.employees.known[e.String()] = true
	}
	schools := []uuid.UUID{f.schoolA, f.schoolB, f.schoolC, f.closedSchool}
	statuses := []string{posting.StatusContinue, posting.StatusChangeSchool, posting.StatusResign, posting.StatusTerminate}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		if rng.Intn(4) == 0 {
			all := f.postings.All()
			if len(all) > 0 {
				target := all[rng.Intn(len(all))]
				_, _ = f.update(target.ID.String(), posting.UpdatePostingRequest{
					Status: strPtr(statuses[rng.Intn(len(statuses))]),
				})
			}
		} else {
			_, _ = f.create(
				employees[rng.Intn(len(employees))],
				schools[rng.Intn(len(schools))],
				statuses[rng.Intn(len(statuses))],
				int64(10000+rng.Intn(30000)),
			)
		}
		f.assertRosterInvariant()
	}
}
