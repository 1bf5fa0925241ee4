package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-schoolops/internal/events"
	invoiceerrors "go-schoolops/internal/invoice/errors"
	"go-schoolops/internal/leave"
	"go-schoolops/internal/messaging/kafka"
	"go-schoolops/internal/posting"
	"go-schoolops/internal/school"
	"go-schoolops/internal/shared/contextutil"
	"go-schoolops/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	counterType     = "invoice_number"
	outstandingTTL  = 10 * time.Minute
	outstandingPref = "invoices:outstanding:"
	batchRunTTL     = 15 * time.Minute
)

// OutstandingKey is the cache key of a school's outstanding summary.
func OutstandingKey(schoolID string) string {
	return outstandingPref + schoolID
}

// BatchRunningKey guards one in-flight batch per period.
func BatchRunningKey(month, year int) string {
	return fmt.Sprintf("invoice:batch:running:%04d-%02d", year, month)
}

type Service interface {
	Generate(ctx context.Context, actorID string, req GenerateInvoiceRequest) (InvoiceResponse, error)
	GenerateMonthly(ctx context.Context, actorID string, month, year int) (BatchReport, error)
	RecordPayment(ctx context.Context, actorID, id string, req RecordPaymentRequest) (InvoiceResponse, error)
	GetByID(ctx context.Context, id string) (InvoiceResponse, error)
	GetAll(ctx context.Context, filter ListInvoicesFilter) ([]InvoiceResponse, error)
	GetSchoolOutstanding(ctx context.Context, schoolID string) (OutstandingResponse, error)
	GenerateDocument(ctx context.Context, id string) (InvoiceResponse, error)
}

// Dependencies groups what the invoice service reads and writes. Cache,
// Outbox and Documents are optional.
type Dependencies struct {
	DB        *gorm.DB
	Invoices  Repository
	Schools   school.Repository
	Postings  posting.Repository
	Leaves    leave.Repository
	Counter   counter.Repository
	Outbox    kafka.OutboxRepository
	Cache     *redis.Client
	Documents DocumentStore
	Logger    *zap.Logger
	Now       func() time.Time
}

type service struct {
	db        *gorm.DB
	invoices  Repository
	schools   school.Repository
	postings  posting.Repository
	leaves    leave.Repository
	counter   counter.Repository
	outbox    kafka.OutboxRepository
	rdb       *redis.Client
	sf        *singleflight.Group
	documents DocumentStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(deps Dependencies) Service {
	l := zap.L().Named("invoice.service")
	if deps.Logger != nil {
		l = deps.Logger.Named("invoice.service")
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		db:        deps.DB,
		invoices:  deps.Invoices,
		schools:   deps.Schools,
		postings:  deps.Postings,
		leaves:    deps.Leaves,
		counter:   deps.Counter,
		outbox:    deps.Outbox,
		rdb:       deps.Cache,
		sf:        &singleflight.Group{},
		documents: deps.Documents,
		logger:    l,
		now:       now,
	}
}

func (s *service) Generate(ctx context.Context, actorID string, req GenerateInvoiceRequest) (InvoiceResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	schoolID, err := uuid.Parse(req.SchoolID)
	if err != nil {
		return InvoiceResponse{}, invoiceerrors.ErrInvalidSchoolID
	}
	if req.Month < 1 || req.Month > 12 || req.Year < 2000 {
		return InvoiceResponse{}, invoiceerrors.ErrInvalidPeriod
	}
	adjustment := decimal.Zero
	if req.Adjustment != nil {
		adjustment = *req.Adjustment
	}

	if _, err := s.schools.FindByID(ctx, req.SchoolID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, invoiceerrors.ErrSchoolNotFound
		}
		return InvoiceResponse{}, err
	}

	// fast path only; the unique index decides under concurrency
	exists, err := s.invoices.ExistsForPeriod(ctx, schoolID, req.Month, req.Year)
	if err != nil {
		return InvoiceResponse{}, err
	}
	if exists {
		log.Warn("invoice already exists",
			zap.String("school_id", req.SchoolID),
			zap.Int("month", req.Month),
			zap.Int("year", req.Year),
		)
		return InvoiceResponse{}, invoiceerrors.ErrInvoiceAlreadyExists
	}

	var inv *Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		built, err := s.build(ctx, tx, schoolID, req.Month, req.Year, adjustment)
		if err != nil {
			return err
		}
		if uid, err := uuid.Parse(actorID); err == nil {
			built.CreatedBy = &uid
		}

		seq, err := s.counter.WithTx(tx).GetNextValue(ctx, fmt.Sprintf("%04d%02d", req.Year, req.Month), counterType)
		if err != nil {
			return err
		}
		built.InvoiceNumber = fmt.Sprintf("INV-%04d%02d-%06d", req.Year, req.Month, seq)

		if err := s.invoices.WithTx(tx).Create(ctx, built); err != nil {
			return mapRepositoryError(err)
		}

		inv = built
		return s.writeOutbox(ctx, tx, "invoice", built.ID.String(), events.InvoiceGeneratedType, events.InvoiceGeneratedTopic,
			events.InvoiceGeneratedEvent{
				EventType:     events.InvoiceGeneratedType,
				InvoiceID:     built.ID.String(),
				InvoiceNumber: built.InvoiceNumber,
				SchoolID:      built.SchoolID.String(),
				Month:         built.Month,
				Year:          built.Year,
				GrandTotal:    built.GrandTotal.StringFixed(2),
				OccurredAt:    s.now(),
			})
	})
	if err != nil {
		if errors.Is(err, invoiceerrors.ErrInvoiceAlreadyExists) {
			log.Warn("invoice period taken concurrently", zap.String("school_id", req.SchoolID))
		} else {
			log.Error("generate invoice failed", zap.String("school_id", req.SchoolID), zap.Error(err))
		}
		return InvoiceResponse{}, err
	}

	s.invalidateOutstanding(ctx, req.SchoolID)

	log.Info("invoice generated",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Int("lines", len(inv.Lines)),
		zap.String("grand_total", inv.GrandTotal.StringFixed(2)),
	)
	return mapToResponse(*inv), nil
}

// build prices every billable posting of the month and carries the most
// recent open balance of the school.
func (s *service) build(ctx context.Context, tx *gorm.DB, schoolID uuid.UUID, month, year int, adjustment decimal.Decimal) (*Invoice, error) {
	from, to := monthWindow(month, year)

	postings, err := s.postings.WithTx(tx).FindBillable(ctx, schoolID, from, to)
	if err != nil {
		return nil, err
	}

	leaves, err := s.leaves.WithTx(tx).FindAllBySchoolPeriod(ctx, schoolID, month, year)
	if err != nil {
		return nil, err
	}
	unpaid := make(map[uuid.UUID]int, len(leaves))
	for _, l := range leaves {
		unpaid[l.EmployeeID] = l.Unpaid
	}

	now := s.now()
	inv := &Invoice{
		ID:        uuid.New(),
		SchoolID:  schoolID,
		Month:     month,
		Year:      year,
		Status:    StatusGenerated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	subtotal := decimal.Zero
	for i, p := range postings {
		amounts := BillLine(p.MonthlyBillingSalary, p.TDSPercent, unpaid[p.EmployeeID])
		line := InvoiceLine{
			ID:             uuid.New(),
			InvoiceID:      inv.ID,
			PostingID:      p.ID,
			EmployeeID:     p.EmployeeID,
			BillingSalary:  p.MonthlyBillingSalary,
			TDSPercent:     p.TDSPercent,
			UnpaidLeave:    unpaid[p.EmployeeID],
			DaysWorked:     amounts.DaysWorked,
			LeaveDeduction: amounts.LeaveDeduction,
			GrossAmount:    amounts.Gross,
			TDSAmount:      amounts.TDS,
			FinalAmount:    amounts.Final,
			Position:       i + 1,
		}
		if p.Employee != nil {
			line.EmployeeName = p.Employee.FullName
		}
		inv.Lines = append(inv.Lines, line)
		subtotal = subtotal.Add(amounts.Final)
	}

	previousDue := decimal.Zero
	prev, err := s.invoices.WithTx(tx).FindLatestOpen(ctx, schoolID)
	switch {
	case err == nil:
		previousDue = prev.PendingAmount
		inv.PreviousInvoiceID = &prev.ID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	totals := ComputeTotals(subtotal, previousDue, adjustment)
	inv.Subtotal = totals.Subtotal
	inv.GSTAmount = totals.GST
	inv.CurrentBillTotal = totals.CurrentBillTotal
	inv.PreviousDue = totals.PreviousDue
	inv.Adjustment = totals.Adjustment
	inv.GrandTotal = totals.GrandTotal
	inv.PaidAmount = decimal.Zero
	inv.PendingAmount = totals.Pending
	return inv, nil
}

// GenerateMonthly bills every active school for the given period. Per-school
// failures are reported and never stop the run.
func (s *service) GenerateMonthly(ctx context.Context, actorID string, month, year int) (BatchReport, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	if month == 0 && year == 0 {
		now := s.now()
		month, year = int(now.Month()), now.Year()
	}
	if month < 1 || month > 12 || year < 2000 {
		return BatchReport{}, invoiceerrors.ErrInvalidPeriod
	}

	if s.rdb != nil {
		runKey := BatchRunningKey(month, year)
		acquired, err := s.rdb.SetNX(ctx, runKey, actorID, batchRunTTL).Result()
		switch {
		case err != nil:
			log.Warn("batch run guard unavailable", zap.Error(err))
		case !acquired:
			return BatchReport{}, invoiceerrors.ErrBatchRunning
		default:
			defer s.rdb.Del(context.WithoutCancel(ctx), runKey)
		}
	}

	schools, err := s.schools.FindAll(ctx, school.StatusActive)
	if err != nil {
		return BatchReport{}, err
	}

	report := BatchReport{Month: month, Year: year, Results: make([]BatchResult, 0, len(schools))}
	for _, sc := range schools {
		result := BatchResult{SchoolID: sc.ID.String()}

		inv, err := s.Generate(ctx, actorID, GenerateInvoiceRequest{SchoolID: sc.ID.String(), Month: month, Year: year})
		switch {
		case err == nil:
			result.InvoiceID = inv.ID
			report.Generated++
		case errors.Is(err, invoiceerrors.ErrInvoiceAlreadyExists):
			result.Skipped = true
			report.Skipped++
		default:
			result.Error = err.Error()
			report.Failed++
			log.Error("batch invoice failed for school", zap.String("school_id", sc.ID.String()), zap.Error(err))
		}
		report.Results = append(report.Results, result)
	}

	log.Info("invoice batch finished",
		zap.Int("month", month),
		zap.Int("year", year),
		zap.Int("generated", report.Generated),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *service) RecordPayment(ctx context.Context, actorID, id string, req RecordPaymentRequest) (InvoiceResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, invoiceerrors.ErrInvalidInvoiceID
	}
	if !req.Amount.IsPositive() {
		return InvoiceResponse{}, invoiceerrors.ErrInvalidPaymentAmount
	}
	amount := round(req.Amount)

	var schoolID string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.invoices.WithTx(tx)

		inv, err := repo.LockByID(ctx, invoiceID)
		if err != nil {
			return mapRepositoryError(err)
		}
		schoolID = inv.SchoolID.String()

		if inv.Status == StatusPaid {
			return invoiceerrors.ErrInvoiceSettled
		}
		if amount.GreaterThan(inv.PendingAmount) {
			return invoiceerrors.ErrOverpayment
		}

		payment := &InvoicePayment{
			ID:        uuid.New(),
			InvoiceID: inv.ID,
			Amount:    amount,
			Note:      req.Note,
			PaidAt:    s.now(),
			CreatedAt: s.now(),
		}
		if uid, err := uuid.Parse(actorID); err == nil {
			payment.RecordedBy = &uid
		}
		if err := repo.AddPayment(ctx, payment); err != nil {
			return err
		}

		paid, pending, status := ApplyPayment(inv.GrandTotal, inv.PaidAmount, amount)
		if err := repo.UpdateBalance(ctx, inv.ID, paid, pending, status); err != nil {
			return mapRepositoryError(err)
		}

		return s.writeOutbox(ctx, tx, "invoice", inv.ID.String(), events.InvoicePaymentRecordedType, events.InvoicePaymentRecordedTopic,
			events.InvoicePaymentRecordedEvent{
				EventType:     events.InvoicePaymentRecordedType,
				InvoiceID:     inv.ID.String(),
				PaymentID:     payment.ID.String(),
				SchoolID:      schoolID,
				Amount:        amount.StringFixed(2),
				PendingAmount: pending.StringFixed(2),
				Status:        status,
				RecordedBy:    actorID,
				OccurredAt:    s.now(),
			})
	})
	if err != nil {
		log.Warn("record payment failed", zap.String("invoice_id", id), zap.Error(err))
		return InvoiceResponse{}, err
	}

	s.invalidateOutstanding(ctx, schoolID)

	log.Info("payment recorded", zap.String("invoice_id", id), zap.String("amount", amount.StringFixed(2)))
	return s.GetByID(ctx, id)
}

func (s *service) GetByID(ctx context.Context, id string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, invoiceerrors.ErrInvalidInvoiceID
	}

	inv, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return InvoiceResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*inv), nil
}

func (s *service) GetAll(ctx context.Context, filter ListInvoicesFilter) ([]InvoiceResponse, error) {
	invoices, err := s.invoices.FindAll(ctx, filter)
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("list invoices failed", zap.Error(err))
		return nil, err
	}

	resp := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		resp = append(resp, mapToResponse(inv))
	}
	return resp, nil
}

func (s *service) writeOutbox(ctx context.Context, tx *gorm.DB, aggregate, aggregateID, eventType, topic string, payload any) error {
	if s.outbox == nil {
		return nil
	}
	event, err := kafka.NewOutboxEvent(ctx, aggregate, aggregateID, eventType, topic, payload)
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, event)
}

// monthWindow returns the half-open interval [first day, first day of next month).
func monthWindow(month, year int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func mapToResponse(inv Invoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, InvoiceLineResponse{
			PostingID:      l.PostingID.String(),
			EmployeeID:     l.EmployeeID.String(),
			EmployeeName:   l.EmployeeName,
			BillingSalary:  l.BillingSalary,
			TDSPercent:     l.TDSPercent,
			UnpaidLeave:    l.UnpaidLeave,
			DaysWorked:     l.DaysWorked,
			LeaveDeduction: l.LeaveDeduction,
			GrossAmount:    l.GrossAmount,
			TDSAmount:      l.TDSAmount,
			FinalAmount:    l.FinalAmount,
		})
	}

	payments := make([]PaymentResponse, 0, len(inv.Payments))
	for _, p := range inv.Payments {
		payments = append(payments, PaymentResponse{
			ID:     p.ID.String(),
			Amount: p.Amount,
			Note:   p.Note,
			PaidAt: p.PaidAt.Format(time.RFC3339),
		})
	}

	resp := InvoiceResponse{
		ID:               inv.ID.String(),
		InvoiceNumber:    inv.InvoiceNumber,
		SchoolID:         inv.SchoolID.String(),
		Month:            inv.Month,
		Year:             inv.Year,
		Lines:            lines,
		Subtotal:         inv.Subtotal,
		GSTAmount:        inv.GSTAmount,
		CurrentBillTotal: inv.CurrentBillTotal,
		PreviousDue:      inv.PreviousDue,
		Adjustment:       inv.Adjustment,
		GrandTotal:       inv.GrandTotal,
		PaidAmount:       inv.PaidAmount,
		PendingAmount:    inv.PendingAmount,
		Payments:         payments,
		Status:           inv.Status,
		DocumentURL:      inv.DocumentURL,
		CreatedAt:        inv.CreatedAt.Format(time.RFC3339),
	}
	if inv.PreviousInvoiceID != nil {
		v := inv.PreviousInvoiceID.String()
		resp.PreviousInvoiceID = &v
	}
	return resp
}
