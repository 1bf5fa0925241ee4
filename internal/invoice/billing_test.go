package invoice_test

import (
	"testing"

	"go-schoolops/internal/invoice"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestBillLine(t *testing.T) {
	tests := []struct {
		name      string
		salary    string
		tds       string
		unpaid    int
		days      int
		deduction string
		gross     string
		tdsAmount string
		final     string
	}{
		{"no leave", "32000", "10", 0, 30, "0", "32000", "3200", "28800"},
		{"three unpaid days", "30000", "10", 3, 27, "3000", "27000", "2700", "24300"},
		{"fractional per day rounds half up", "10000", "10", 1, 29, "333.33", "9666.67", "966.67", "8700"},
		{"unpaid beyond divisor is clamped", "30000", "10", 31, 0, "30000", "0", "0", "0"},
		{"zero tds", "15000", "0", 0, 30, "0", "15000", "0", "15000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := invoice.BillLine(dec(tt.salary), dec(tt.tds), tt.unpaid)

			assert.Equal(t, tt.days, got.DaysWorked)
			assertDec(t, tt.deduction, got.LeaveDeduction)
			assertDec(t, tt.gross, got.Gross)
			assertDec(t, tt.tdsAmount, got.TDS)
			assertDec(t, tt.final, got.Final)
		})
	}
}

func TestComputeTotals(t *testing.T) {
	t.Run("gst is 18 percent of subtotal", func(t *testing.T) {
		got := invoice.ComputeTotals(dec("28800"), decimal.Zero, decimal.Zero)

		assertDec(t, "5184", got.GST)
		assertDec(t, "33984", got.CurrentBillTotal)
		assertDec(t, "33984", got.GrandTotal)
		assertDec(t, "33984", got.Pending)
	})

	t.Run("previous due and adjustment are carried", func(t *testing.T) {
		got := invoice.ComputeTotals(dec("1000"), dec("500"), dec("-100"))

		assertDec(t, "1180", got.CurrentBillTotal)
		assertDec(t, "1580", got.GrandTotal)
		assertDec(t, "1580", got.Pending)
	})

	t.Run("negative grand total floors pending at zero", func(t *testing.T) {
		got := invoice.ComputeTotals(dec("100"), decimal.Zero, dec("-500"))

		assertDec(t, "-382", got.GrandTotal)
		assertDec(t, "0", got.Pending)
	})
}

func TestApplyPayment(t *testing.T) {
	paid, pending, status := invoice.ApplyPayment(dec("33984"), decimal.Zero, dec("20000"))
	assertDec(t, "20000", paid)
	assertDec(t, "13984", pending)
	assert.Equal(t, invoice.StatusPartial, status)

	paid, pending, status = invoice.ApplyPayment(dec("33984"), paid, dec("13984"))
	assertDec(t, "33984", paid)
	assertDec(t, "0", pending)
	assert.Equal(t, invoice.StatusPaid, status)
}
