package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-schoolops/internal/bootstrap"
	"go-schoolops/internal/invoice"
	"go-schoolops/internal/posting"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	batchLockTTL = 32 * 24 * time.Hour
	systemActor  = "system:scheduler"
)

type BatchGenerator interface {
	GenerateMonthly(ctx context.Context, actorID string, month, year int) (invoice.BatchReport, error)
}

type RosterReconciler interface {
	ReconcileRosters(ctx context.Context) (posting.ReconcileReport, error)
}

// InvoiceBatch runs the monthly invoice batch on the configured billing day.
// A redis lock per month keeps concurrent workers from running it twice.
type InvoiceBatch struct {
	invoices   BatchGenerator
	rosters    RosterReconciler
	rdb        *redis.Client
	audit      bootstrap.AuditLogger
	billingDay int
	now        func() time.Time
	logger     *zap.Logger
}

type InvoiceBatchConfig struct {
	Invoices   BatchGenerator
	Rosters    RosterReconciler
	Redis      *redis.Client
	Audit      bootstrap.AuditLogger
	BillingDay int
	Now        func() time.Time
	Logger     *zap.Logger
}

func NewInvoiceBatch(cfg InvoiceBatchConfig) *InvoiceBatch {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.L()
	}
	day := cfg.BillingDay
	if day < 1 {
		day = 1
	}
	return &InvoiceBatch{
		invoices:   cfg.Invoices,
		rosters:    cfg.Rosters,
		rdb:        cfg.Redis,
		audit:      cfg.Audit,
		billingDay: day,
		now:        now,
		logger:     logger.Named("scheduler.invoice_batch"),
	}
}

func BatchLockKey(month, year int) string {
	return fmt.Sprintf("invoice:batch:%04d-%02d", year, month)
}

// Run checks once immediately and then on every interval tick.
func (b *InvoiceBatch) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.logger.Info("invoice batch scheduler started",
		zap.Duration("interval", interval),
		zap.Int("billing_day", b.billingDay),
	)

	for {
		if _, err := b.Tick(ctx); err != nil {
			b.logger.Error("invoice batch tick failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			b.logger.Info("invoice batch scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

// Tick runs the batch when today is the billing day and no other worker
// has claimed this month. It reports whether the batch ran.
func (b *InvoiceBatch) Tick(ctx context.Context) (bool, error) {
	now := b.now()
	if now.Day() != b.billingDay {
		return false, nil
	}
	month, year := int(now.Month()), now.Year()
	lockKey := BatchLockKey(month, year)

	acquired, err := b.rdb.SetNX(ctx, lockKey, now.Format(time.RFC3339), batchLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire batch lock: %w", err)
	}
	if !acquired {
		return false, nil
	}

	report, err := b.invoices.GenerateMonthly(ctx, systemActor, month, year)
	if err != nil {
		// nothing was attempted, let the next tick retry
		if delErr := b.rdb.Del(ctx, lockKey).Err(); delErr != nil {
			err = errors.Join(err, delErr)
		}
		return false, fmt.Errorf("generate monthly invoices: %w", err)
	}

	b.logger.Info("monthly invoices generated",
		zap.Int("month", month),
		zap.Int("year", year),
		zap.Int("generated", report.Generated),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)

	meta := map[string]any{
		"month":     month,
		"year":      year,
		"generated": report.Generated,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
	}

	if b.rosters != nil {
		rec, err := b.rosters.ReconcileRosters(ctx)
		if err != nil {
			b.logger.Error("reconcile rosters after batch failed", zap.Error(err))
		} else {
			meta["schools_checked"] = rec.SchoolsChecked
			meta["trainers_added"] = rec.TrainersAdded
			meta["trainers_removed"] = rec.TrainersRemoved
			meta["postings_deactivated"] = rec.PostingsDeactivated
		}
	}

	if b.audit != nil {
		b.audit.Log(ctx, bootstrap.AuditLog{
			Action:  "INVOICE_BATCH",
			Message: "monthly invoice batch completed",
			Meta:    meta,
		})
	}
	return true, nil
}
