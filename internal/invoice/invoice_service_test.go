package invoice_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"go-schoolops/internal/employee"
	"go-schoolops/internal/events"
	"go-schoolops/internal/invoice"
	invoiceerrors "go-schoolops/internal/invoice/errors"
	invoiceMock "go-schoolops/internal/invoice/mock"
	"go-schoolops/internal/leave"
	leaveMock "go-schoolops/internal/leave/mock"
	"go-schoolops/internal/messaging/kafka"
	kafkaMock "go-schoolops/internal/messaging/kafka/mock"
	"go-schoolops/internal/posting"
	postingMock "go-schoolops/internal/posting/mock"
	"go-schoolops/internal/school"
	schoolMock "go-schoolops/internal/school/mock"
	counterMock "go-schoolops/internal/shared/counter/mock"
	"go-schoolops/internal/shared/dbtest"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeStore struct {
	paths []string
	body  []byte
	err   error
}

func (s *fakeStore) Save(_ context.Context, path string, body io.Reader, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.paths = append(s.paths, path)
	s.body, _ = io.ReadAll(body)
	return "https://files.example.test/" + path, nil
}

type invoiceFixture struct {
	t        *testing.T
	invoices *invoiceMock.FakeRepository
	schools  *schoolMock.FakeRepository
	postings *postingMock.FakeRepository
	leaves   *leaveMock.FakeRepository
	counter  *counterMock.MockRepository
	outbox   *kafkaMock.MockOutboxRepository
	rdb      *redis.Client
	store    *fakeStore
	service  invoice.Service

	clock      time.Time
	seq        int64
	counterErr error
	events     []kafka.OutboxEvent

	schoolA, schoolB, closed uuid.UUID
	actor                    string
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	ctrl := gomock.NewController(t)
	f := &invoiceFixture{
		t:        t,
		invoices: invoiceMock.NewFakeRepository(),
		postings: postingMock.NewFakeRepository(),
		leaves:   leaveMock.NewFakeRepository(),
		counter:  counterMock.NewMockRepository(ctrl),
		outbox:   kafkaMock.NewMockOutboxRepository(ctrl),
		store:    &fakeStore{},
		clock:    time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		schoolA:  uuid.New(),
		schoolB:  uuid.New(),
		closed:   uuid.New(),
		actor:    uuid.NewString(),
	}
	f.schools = schoolMock.NewFakeRepository(
		school.School{ID: f.schoolA, Name: "Alpha", Status: school.StatusActive},
		school.School{ID: f.schoolB, Name: "Beta", Status: school.StatusActive},
		school.School{ID: f.closed, Name: "Closed", Status: school.StatusInactive},
	)

	f.counter.EXPECT().WithTx(gomock.Any()).Return(f.counter).AnyTimes()
	f.counter.EXPECT().GetNextValue(gomock.Any(), gomock.Any(), "invoice_number").
		DoAndReturn(func(context.Context, string, string) (int64, error) {
			if f.counterErr != nil {
				err := f.counterErr
				f.counterErr = nil
				return 0, err
			}
			f.seq++
			return f.seq, nil
		}).AnyTimes()

	f.outbox.EXPECT().WithTx(gomock.Any()).Return(f.outbox).AnyTimes()
	f.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e kafka.OutboxEvent) error {
			f.events = append(f.events, e)
			return nil
		}).AnyTimes()

	return f
}

// renew opens a fresh sqlmock expecting n transactions in any order.
func (f *invoiceFixture) renew(n int) {
	db, mock := dbtest.NewGormMock(f.t)
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	f.service = invoice.NewService(invoice.Dependencies{
		DB:        db,
		Invoices:  f.invoices,
		Schools:   f.schools,
		Postings:  f.postings,
		Leaves:    f.leaves,
		Counter:   f.counter,
		Outbox:    f.outbox,
		Cache:     f.rdb,
		Documents: f.store,
		Now: func() time.Time {
			f.clock = f.clock.Add(time.Minute)
			return f.clock
		},
	})
}

func (f *invoiceFixture) post(schoolID uuid.UUID, salary, tds string, start time.Time, end *time.Time) uuid.UUID {
	empID := uuid.New()
	f.postings.Insert(posting.Posting{
		ID:                   uuid.New(),
		EmployeeID:           empID,
		Employee:             &employee.Employee{ID: empID, FullName: "Trainer " + salary},
		SchoolID:             schoolID,
		StartDate:            start,
		EndDate:              end,
		Status:               posting.StatusContinue,
		IsActive:             end == nil,
		MonthlyBillingSalary: dec(salary),
		TDSPercent:           dec(tds),
		GSTPercent:           dec("18"),
	})
	return empID
}

func (f *invoiceFixture) generate(schoolID uuid.UUID, month, year int, adjustment *decimal.Decimal) (invoice.InvoiceResponse, error) {
	f.renew(1)
	return f.service.Generate(context.Background(), f.actor, invoice.GenerateInvoiceRequest{
		SchoolID:   schoolID.String(),
		Month:      month,
		Year:       year,
		Adjustment: adjustment,
	})
}

func (f *invoiceFixture) pay(id, amount string) (invoice.InvoiceResponse, error) {
	f.renew(1)
	return f.service.RecordPayment(context.Background(), f.actor, id, invoice.RecordPaymentRequest{Amount: dec(amount), Note: "bank transfer"})
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestInvoiceService_Generate(t *testing.T) {
	t.Run("single posting without leave", func(t *testing.T) {
		f := newInvoiceFixture(t)
		empID := f.post(f.schoolB, "32000", "10", day(2024, 5, 1), nil)

		resp, err := f.generate(f.schoolB, 6, 2024, nil)
		require.NoError(t, err)

		require.Len(t, resp.Lines, 1)
		line := resp.Lines[0]
		assert.Equal(t, empID.String(), line.EmployeeID)
		assert.Equal(t, 30, line.DaysWorked)
		assertDec(t, "32000", line.GrossAmount)
		assertDec(t, "3200", line.TDSAmount)
		assertDec(t, "28800", line.FinalAmount)

		assertDec(t, "28800", resp.Subtotal)
		assertDec(t, "5184", resp.GSTAmount)
		assertDec(t, "33984", resp.CurrentBillTotal)
		assertDec(t, "0", resp.PreviousDue)
		assertDec(t, "33984", resp.GrandTotal)
		assertDec(t, "33984", resp.PendingAmount)
		assertDec(t, "0", resp.PaidAmount)
		assert.Equal(t, invoice.StatusGenerated, resp.Status)
		assert.Equal(t, "INV-202406-000001", resp.InvoiceNumber)
	})

	t.Run("second generation for the same period is a duplicate", func(t *testing.T) {
		f := newInvoiceFixture(t)
		f.post(f.schoolB, "32000", "10", day(2024, 5, 1), nil)

		_, err := f.generate(f.schoolB, 6, 2024, nil)
		require.NoError(t, err)

		_, err = f.generate(f.schoolB, 6, 2024, nil)
		assert.ErrorIs(t, err, invoiceerrors.ErrInvoiceAlreadyExists)
		assert.Equal(t, 1, f.invoices.Count())
	})

	t.Run("unique index wins when the existence check misses", func(t *testing.T) {
		f := newInvoiceFixture(t)
		f.post(f.schoolB, "32000", "10", day(2024, 5, 1), nil)

		_, err := f.generate(f.schoolB, 6, 2024, nil)
		require.NoError(t, err)

		f.invoices.HideExisting = true
		_, err = f.generate(f.schoolB, 6, 2024, nil)
		assert.ErrorIs(t, err, invoiceerrors.ErrInvoiceAlreadyExists)
		assert.Equal(t, 1, f.invoices.Count())
	})

	t.Run("unpaid leave reduces the line", func(t *testing.T) {
		f := newInvoiceFixture(t)
		empID := f.post(f.schoolA, "30000", "10", day(2024, 1, 1), nil)
		require.NoError(t, f.leaves.Upsert(context.Background(), &leave.Leave{
			ID: uuid.New(), EmployeeID: empID, SchoolID: f.schoolA, Month: 6, Year: 2024, Paid: 2, Unpaid: 3,
		}))

		resp, err := f.generate(f.schoolA, 6, 2024, nil)
		require.NoError(t, err)

		require.Len(t, resp.Lines, 1)
		assert.Equal(t, 27, resp.Lines[0].DaysWorked)
		assert.Equal(t, 3, resp.Lines[0].UnpaidLeave)
		assertDec(t, "3000", resp.Lines[0].LeaveDeduction)
		assertDec(t, "24300", resp.Subtotal)
	})

	t.Run("posting starting during the last day of the month is billed", func(t *testing.T) {
		f := newInvoiceFixture(t)
		f.post(f.schoolA, "30000", "0", time.Date(2024, 6, 30, 10, 0, 0, 0, time.UTC), nil)
		f.post(f.schoolA, "50000", "0", day(2024, 7, 1), nil)

		resp, err := f.generate(f.schoolA, 6, 2024, nil)
		require.NoError(t, err)

		require.Len(t, resp.Lines, 1)
		assertDec(t, "30000", resp.Lines[0].BillingSalary)
		assertDec(t, "30000", resp.Subtotal)
	})

	t.Run("only postings overlapping the month are billed", func(t *testing.T) {
		f := newInvoiceFixture(t)
		endedMidMonth := day(2024, 6, 15)
		endedBefore := day(2024, 5, 31)

		f.post(f.schoolA, "10000", "0", day(2024, 1, 1), nil)
		f.post(f.schoolA, "20000", "0", day(2024, 1, 1), &endedMidMonth)
		f.post(f.schoolA, "40000", "0", day(2024, 1, 1), &endedBefore)
		f.post(f.schoolA, "80000", "0", day(2024, 7, 1), nil)

		resp, err := f.generate(f.schoolA, 6, 2024, nil)
		require.NoError(t, err)

		assert.Len(t, resp.Lines, 2)
		assertDec(t, "30000", resp.Subtotal)
	})

	t.Run("previous open balance and adjustment carry into the grand total", func(t *testing.T) {
		f := newInvoiceFixture(t)
		f.post(f.schoolB, "32000", "10", day(2024, 5, 1), nil)

		june, err := f.generate(f.schoolB, 6, 2024, nil)
		require.NoError(t, err)
		_, err = f.pay(june.ID, "20000")
		require.NoError(t, err)

		adj := dec("-984")
		july, err := f.generate(f.schoolB, 7, 2024, &adj)
		require.NoError(t, err)

		assertDec(t, "13984", july.PreviousDue)
		require.NotNil(t, july.PreviousInvoiceID)
		assert.Equal(t, june.ID, *july.PreviousInvoiceID)
		assertDec(t, "-984", july.Adjustment)
		assertDec(t, "46984", july.GrandTotal)
		assert.Equal(t, "INV-202407-000002", july.InvoiceNumber)
	})

	t.Run("school without postings gets an empty invoice", func(t *testing.T) {
		f := newInvoiceFixture(t)

		resp, err := f.generate(f.schoolA, 6, 2024, nil)
		require.NoError(t, err)
		assert.Empty(t, resp.Lines)
		assertDec(t, "0", resp.GrandTotal)
	})

	t.Run("writes an invoice generated event", func(t *testing.T) {
		f := newInvoiceFixture(t)
		f.post(f.schoolB, "32000", "10", day(2024, 5, 1), nil)

		resp, err := f.generate(f.schoolB, 6, 2024, nil)
		require.NoError(t, err)

		require.Len(t, f.events, 1)
		assert.Equal(t, events.InvoiceGeneratedTopic, f.events[0].Topic)
		var payload events.InvoiceGeneratedEvent
		require.NoError(t, json.Unmarshal(f.events[0].Payload, &payload))
		assert.Equal(t, resp.ID, payload.InvoiceID)
		assert.Equal(t, "33984.00", payload.GrandTotal)
	})

	t.Run("validation", func(t *testing.T) {
		f := newInvoiceFixture(t)

		_, err := f.generate(f.schoolA, 13, 2024, nil)
		assert.ErrorIs(t, err, invoiceerrors.ErrInvalidPeriod)

		_, err = f.generate(uuid.New(), 6, 2024, nil)
		assert.ErrorIs(t, err, invoiceerrors.ErrSchoolNotFound)
	})
}

func TestInvoiceService_RecordPayment(t *testing.T) {
	setup := func(t *testing.T) (*invoiceFixture, invoice.InvoiceResponse) {
		f := newInvoiceFixture(t)
		f.post(f.schoolB, "32000", "10", day(2024, 5, 1), nil)
		inv, err := f.generate(f.schoolB, 6, 2024, nil)
		require.NoError(t, err)
		return f, inv
	}

	t.Run("partial then full payment", func(t *testing.T) {
		f, inv := setup(t)

		resp, err := f.pay(inv.ID, "20000")
		require.NoError(t, err)
		assertDec(t, "20000", resp.PaidAmount)
		assertDec(t, "13984", resp.PendingAmount)
		assert.Equal(t, invoice.StatusPartial, resp.Status)
		require.Len(t, resp.Payments, 1)
		assert.Equal(t, "bank transfer", resp.Payments[0].Note)

		resp, err = f.pay(inv.ID, "13984")
		require.NoError(t, err)
		assertDec(t, "0", resp.PendingAmount)
		assert.Equal(t, invoice.StatusPaid, resp.Status)
		assert.Len(t, resp.Payments, 2)

		assert.Equal(t, events.InvoicePaymentRecordedTopic, f.events[len(f.events)-1].Topic)
	})

	t.Run("non positive amount is rejected", func(t *testing.T) {
		f, inv := setup(t)

		_, err := f.pay(inv.ID, "0")
		assert.ErrorIs(t, err, invoiceerrors.ErrInvalidPaymentAmount)
		_, err = f.pay(inv.ID, "-10")
		assert.ErrorIs(t, err, invoiceerrors.ErrInvalidPaymentAmount)
	})

	t.Run("overpayment is rejected and leaves the invoice untouched", func(t *testing.T) {
		f, inv := setup(t)

		_, err := f.pay(inv.ID, "33984.01")
		assert.ErrorIs(t, err, invoiceerrors.ErrOverpayment)

		got, err := f.service.GetByID(context.Background(), inv.ID)
		require.NoError(t, err)
		assertDec(t, "0", got.PaidAmount)
		assert.Empty(t, got.Payments)
	})

	t.Run("settled invoice rejects further payments", func(t *testing.T) {
		f, inv := setup(t)

		_, err := f.pay(inv.ID, "33984")
		require.NoError(t, err)

		_, err = f.pay(inv.ID, "1")
		assert.ErrorIs(t, err, invoiceerrors.ErrInvoiceSettled)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		f, _ := setup(t)

		_, err := f.pay(uuid.NewString(), "10")
		assert.ErrorIs(t, err, invoiceerrors.ErrInvoiceNotFound)

		_, err = f.pay("nope", "10")
		assert.ErrorIs(t, err, invoiceerrors.ErrInvalidInvoiceID)
	})
}

func TestInvoiceService_GenerateMonthly(t *testing.T) {
	f := newInvoiceFixture(t)
	f.post(f.schoolA, "10000", "0", day(2024, 1, 1), nil)
	f.post(f.schoolB, "32000", "10", day(2024, 1, 1), nil)
	f.post(f.closed, "50000", "0", day(2024, 1, 1), nil)

	_, err := f.generate(f.schoolB, 6, 2024, nil)
	require.NoError(t, err)

	f.renew(2)
	f.counterErr = errors.New("counter unavailable")
	report, err := f.service.GenerateMonthly(context.Background(), f.actor, 6, 2024)
	require.NoError(t, err)

	assert.Equal(t, 6, report.Month)
	assert.Len(t, report.Results, 2)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Generated)

	byID := map[string]invoice.BatchResult{}
	for _, r := range report.Results {
		byID[r.SchoolID] = r
	}
	assert.Contains(t, byID[f.schoolA.String()].Error, "counter unavailable")
	assert.True(t, byID[f.schoolB.String()].Skipped)
	assert.NotContains(t, byID, f.closed.String())

	f.renew(2)
	report, err = f.service.GenerateMonthly(context.Background(), f.actor, 6, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Generated)
	assert.Equal(t, 1, report.Skipped)
}

func TestInvoiceService_GenerateMonthlyDefaultsToCurrentMonth(t *testing.T) {
	f := newInvoiceFixture(t)
	f.renew(2)

	report, err := f.service.GenerateMonthly(context.Background(), "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Month)
	assert.Equal(t, 2024, report.Year)
	assert.Equal(t, 2, report.Generated)
}

func TestInvoiceService_GenerateMonthlyRunGuard(t *testing.T) {
	key := invoice.BatchRunningKey(6, 2024)

	t.Run("rejects a concurrent run", func(t *testing.T) {
		f := newInvoiceFixture(t)
		rdb, redisMock := redismock.NewClientMock()
		f.rdb = rdb
		f.renew(0)
		redisMock.ExpectSetNX(key, f.actor, 15*time.Minute).SetVal(false)

		_, err := f.service.GenerateMonthly(context.Background(), f.actor, 6, 2024)
		assert.ErrorIs(t, err, invoiceerrors.ErrBatchRunning)
		assert.Empty(t, f.events)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("releases the guard when done", func(t *testing.T) {
		f := newInvoiceFixture(t)
		rdb, redisMock := redismock.NewClientMock()
		f.rdb = rdb
		f.schools = schoolMock.NewFakeRepository()
		f.renew(0)
		redisMock.ExpectSetNX(key, f.actor, 15*time.Minute).SetVal(true)
		redisMock.ExpectDel(key).SetVal(1)

		report, err := f.service.GenerateMonthly(context.Background(), f.actor, 6, 2024)
		require.NoError(t, err)
		assert.Empty(t, report.Results)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}

func TestInvoiceService_GetSchoolOutstanding(t *testing.T) {
	ctx := context.Background()

	t.Run("sums open invoices", func(t *testing.T) {
		f := newInvoiceFixture(t)
		f.post(f.schoolB, "32000", "10", day(2024, 5, 1), nil)

		june, err := f.generate(f.schoolB, 6, 2024, nil)
		require.NoError(t, err)
		_, err = f.pay(june.ID, "20000")
		require.NoError(t, err)
		_, err = f.generate(f.schoolB, 7, 2024, nil)
		require.NoError(t, err)

		resp, err := f.service.GetSchoolOutstanding(ctx, f.schoolB.String())
		require.NoError(t, err)
		assert.Len(t, resp.Invoices, 2)
		assertDec(t, "61952", resp.TotalDue)
	})

	t.Run("cache hit skips the repository", func(t *testing.T) {
		f := newInvoiceFixture(t)
		rdb, redisMock := redismock.NewClientMock()
		f.rdb = rdb
		f.renew(0)

		cached, _ := json.Marshal(invoice.OutstandingResponse{SchoolID: f.schoolA.String(), TotalDue: dec("123.45")})
		redisMock.ExpectGet(invoice.OutstandingKey(f.schoolA.String())).SetVal(string(cached))

		resp, err := f.service.GetSchoolOutstanding(ctx, f.schoolA.String())
		require.NoError(t, err)
		assertDec(t, "123.45", resp.TotalDue)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("cache miss loads and stores", func(t *testing.T) {
		f := newInvoiceFixture(t)
		rdb, redisMock := redismock.NewClientMock()
		f.rdb = rdb
		f.renew(0)

		key := invoice.OutstandingKey(f.schoolA.String())
		redisMock.ExpectGet(key).RedisNil()
		redisMock.Regexp().ExpectSet(key, `.+`, 10*time.Minute).SetVal("OK")

		resp, err := f.service.GetSchoolOutstanding(ctx, f.schoolA.String())
		require.NoError(t, err)
		assert.True(t, resp.TotalDue.IsZero())
		assert.Empty(t, resp.Invoices)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("payment invalidates the cached summary", func(t *testing.T) {
		f := newInvoiceFixture(t)
		f.post(f.schoolB, "32000", "10", day(2024, 5, 1), nil)
		inv, err := f.generate(f.schoolB, 6, 2024, nil)
		require.NoError(t, err)

		rdb, redisMock := redismock.NewClientMock()
		f.rdb = rdb
		redisMock.ExpectDel(invoice.OutstandingKey(f.schoolB.String())).SetVal(1)

		_, err = f.pay(inv.ID, "100")
		require.NoError(t, err)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("invalid school id", func(t *testing.T) {
		f := newInvoiceFixture(t)
		f.renew(0)

		_, err := f.service.GetSchoolOutstanding(ctx, "bad")
		assert.ErrorIs(t, err, invoiceerrors.ErrInvalidSchoolID)
	})
}

func TestInvoiceService_GenerateDocument(t *testing.T) {
	f := newInvoiceFixture(t)
	f.post(f.schoolB, "32000", "10", day(2024, 5, 1), nil)
	inv, err := f.generate(f.schoolB, 6, 2024, nil)
	require.NoError(t, err)

	resp, err := f.service.GenerateDocument(context.Background(), inv.ID)
	require.NoError(t, err)

	require.Len(t, f.store.paths, 1)
	assert.Equal(t, "invoices/2024/06/INV-202406-000001.pdf", f.store.paths[0])
	assert.True(t, strings.HasPrefix(string(f.store.body), "%PDF-1.4"))
	assert.Contains(t, string(f.store.body), "Beta")
	require.NotNil(t, resp.DocumentURL)

	got, err := f.service.GetByID(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.DocumentURL, got.DocumentURL)

	f.store.err = errors.New("bucket unavailable")
	_, err = f.service.GenerateDocument(context.Background(), inv.ID)
	assert.Error(t, err)
}

func TestInvoiceService_GetAll(t *testing.T) {
	f := newInvoiceFixture(t)
	f.post(f.schoolB, "32000", "10", day(2024, 5, 1), nil)

	_, err := f.generate(f.schoolB, 5, 2024, nil)
	require.NoError(t, err)
	_, err = f.generate(f.schoolB, 6, 2024, nil)
	require.NoError(t, err)
	_, err = f.generate(f.schoolA, 6, 2024, nil)
	require.NoError(t, err)

	all, err := f.service.GetAll(context.Background(), invoice.ListInvoicesFilter{SchoolID: f.schoolB.String()})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 6, all[0].Month)

	june, err := f.service.GetAll(context.Background(), invoice.ListInvoicesFilter{Month: 6, Year: 2024})
	require.NoError(t, err)
	assert.Len(t, june, 2)
}
