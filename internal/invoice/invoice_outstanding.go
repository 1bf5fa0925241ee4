package invoice

import (
	"context"
	"encoding/json"

	invoiceerrors "go-schoolops/internal/invoice/errors"
	"go-schoolops/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetSchoolOutstanding sums pending amounts of the school's open invoices.
// Results are cached in redis and concurrent misses share one query.
func (s *service) GetSchoolOutstanding(ctx context.Context, schoolID string) (OutstandingResponse, error) {
	id, err := uuid.Parse(schoolID)
	if err != nil {
		return OutstandingResponse{}, invoiceerrors.ErrInvalidSchoolID
	}

	log := contextutil.GetLogger(ctx, s.logger)
	cacheKey := OutstandingKey(schoolID)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var resp OutstandingResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (any, error) {
		invoices, err := s.invoices.FindOutstanding(ctx, id)
		if err != nil {
			return nil, err
		}

		resp := OutstandingResponse{
			SchoolID: schoolID,
			TotalDue: decimal.Zero,
			Invoices: make([]OutstandingInvoice, 0, len(invoices)),
		}
		for _, inv := range invoices {
			resp.TotalDue = resp.TotalDue.Add(inv.PendingAmount)
			resp.Invoices = append(resp.Invoices, OutstandingInvoice{
				ID:            inv.ID.String(),
				InvoiceNumber: inv.InvoiceNumber,
				Month:         inv.Month,
				Year:          inv.Year,
				GrandTotal:    inv.GrandTotal,
				PendingAmount: inv.PendingAmount,
				Status:        inv.Status,
			})
		}

		if s.rdb != nil {
			if data, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, cacheKey, data, outstandingTTL).Err(); err != nil {
					log.Warn("cache outstanding failed", zap.String("key", cacheKey), zap.Error(err))
				}
			}
		}
		return resp, nil
	})
	if err != nil {
		log.Error("load outstanding failed", zap.String("school_id", schoolID), zap.Error(err))
		return OutstandingResponse{}, err
	}
	return v.(OutstandingResponse), nil
}

func (s *service) invalidateOutstanding(ctx context.Context, schoolID string) {
	if s.rdb == nil || schoolID == "" {
		return
	}
	if err := s.rdb.Del(ctx, OutstandingKey(schoolID)).Err(); err != nil {
		contextutil.GetLogger(ctx, s.logger).Warn("invalidate outstanding cache failed",
			zap.String("school_id", schoolID),
			zap.Error(err),
		)
	}
}
