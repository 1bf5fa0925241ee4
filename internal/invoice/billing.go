package invoice

import (
	"github.com/shopspring/decimal"
)

// BillingDays is the fixed per-month divisor, independent of calendar length.
const BillingDays = 30

var (
	gstRate = decimal.RequireFromString("0.18")
	hundred = decimal.NewFromInt(100)
	divisor = decimal.NewFromInt(BillingDays)
)

// LineAmounts is the billed breakdown of one posting for one month.
type LineAmounts struct {
	DaysWorked     int
	LeaveDeduction decimal.Decimal
	Gross          decimal.Decimal
	TDS            decimal.Decimal
	Final          decimal.Decimal
}

// BillLine computes a single line. Unpaid days beyond BillingDays are
// clamped so a line never bills a negative amount.
func BillLine(salary, tdsPercent decimal.Decimal, unpaid int) LineAmounts {
	if unpaid < 0 {
		unpaid = 0
	}
	if unpaid > BillingDays {
		unpaid = BillingDays
	}

	perDay := salary.Div(divisor)
	deduction := round(perDay.Mul(decimal.NewFromInt(int64(unpaid))))
	gross := round(salary.Sub(deduction))
	tds := round(gross.Mul(tdsPercent).Div(hundred))

	return LineAmounts{
		DaysWorked:     BillingDays - unpaid,
		LeaveDeduction: deduction,
		Gross:          gross,
		TDS:            tds,
		Final:          gross.Sub(tds),
	}
}

// Totals holds the invoice-level figures derived from the line subtotal.
type Totals struct {
	Subtotal         decimal.Decimal
	GST              decimal.Decimal
	CurrentBillTotal decimal.Decimal
	PreviousDue      decimal.Decimal
	Adjustment       decimal.Decimal
	GrandTotal       decimal.Decimal
	Pending          decimal.Decimal
}

// ComputeTotals applies GST at a flat 18% of the subtotal and carries the
// previous due and adjustment into the grand total. Pending is floored at 0.
func ComputeTotals(subtotal, previousDue, adjustment decimal.Decimal) Totals {
	subtotal = round(subtotal)
	gst := round(subtotal.Mul(gstRate))
	current := subtotal.Add(gst)
	grand := round(current.Add(previousDue).Add(adjustment))

	pending := grand
	if pending.IsNegative() {
		pending = decimal.Zero
	}

	return Totals{
		Subtotal:         subtotal,
		GST:              gst,
		CurrentBillTotal: current,
		PreviousDue:      round(previousDue),
		Adjustment:       round(adjustment),
		GrandTotal:       grand,
		Pending:          pending,
	}
}

// ApplyPayment returns the new paid and pending amounts and the resulting status.
func ApplyPayment(grandTotal, paid, amount decimal.Decimal) (decimal.Decimal, decimal.Decimal, string) {
	newPaid := round(paid.Add(amount))
	pending := grandTotal.Sub(newPaid)
	if !pending.IsPositive() {
		return newPaid, decimal.Zero, StatusPaid
	}
	return newPaid, pending, StatusPartial
}

// round is half-up at 2 places.
func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
