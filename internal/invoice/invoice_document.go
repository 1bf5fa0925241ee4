package invoice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	invoiceerrors "go-schoolops/internal/invoice/errors"
	"go-schoolops/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentStore persists rendered invoice documents and returns their public URL.
type DocumentStore interface {
	Save(ctx context.Context, path string, body io.Reader, contentType string) (string, error)
}

// GenerateDocument renders the invoice summary as PDF, uploads it and
// stores the resulting URL on the invoice.
func (s *service) GenerateDocument(ctx context.Context, id string) (InvoiceResponse, error) {
	if s.documents == nil {
		return InvoiceResponse{}, fmt.Errorf("invoice document store is not configured")
	}
	log := contextutil.GetLogger(ctx, s.logger)

	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, invoiceerrors.ErrInvalidInvoiceID
	}

	inv, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return InvoiceResponse{}, mapRepositoryError(err)
	}

	schoolName := inv.SchoolID.String()
	if sc, err := s.schools.FindByID(ctx, inv.SchoolID.String()); err == nil {
		schoolName = sc.Name
	}

	pdf, err := RenderPDF(*inv, schoolName)
	if err != nil {
		return InvoiceResponse{}, err
	}

	path := fmt.Sprintf("invoices/%04d/%02d/%s.pdf", inv.Year, inv.Month, inv.InvoiceNumber)
	url, err := s.documents.Save(ctx, path, bytes.NewReader(pdf), "application/pdf")
	if err != nil {
		log.Error("upload invoice document failed", zap.String("invoice_id", id), zap.Error(err))
		return InvoiceResponse{}, err
	}

	if err := s.invoices.SetDocumentURL(ctx, inv.ID, url); err != nil {
		return InvoiceResponse{}, mapRepositoryError(err)
	}
	inv.DocumentURL = &url

	log.Info("invoice document stored", zap.String("invoice_id", id), zap.String("url", url))
	return mapToResponse(*inv), nil
}

// RenderPDF produces a single page PDF listing the invoice lines and totals.
func RenderPDF(inv Invoice, schoolName string) ([]byte, error) {
	lines := []string{
		fmt.Sprintf("Invoice %s", inv.InvoiceNumber),
		fmt.Sprintf("School: %s", schoolName),
		fmt.Sprintf("Period: %02d/%04d", inv.Month, inv.Year),
		"",
	}
	for _, l := range inv.Lines {
		name := l.EmployeeName
		if name == "" {
			name = l.EmployeeID.String()
		}
		lines = append(lines, fmt.Sprintf("%d. %s  salary %s  days %d  gross %s  tds %s  final %s",
			l.Position, name,
			l.BillingSalary.StringFixed(2), l.DaysWorked,
			l.GrossAmount.StringFixed(2), l.TDSAmount.StringFixed(2), l.FinalAmount.StringFixed(2),
		))
	}
	lines = append(lines,
		"",
		"Subtotal: "+inv.Subtotal.StringFixed(2),
		"GST (18%): "+inv.GSTAmount.StringFixed(2),
		"Current bill: "+inv.CurrentBillTotal.StringFixed(2),
		"Previous due: "+inv.PreviousDue.StringFixed(2),
		"Adjustment: "+inv.Adjustment.StringFixed(2),
		"Grand total: "+inv.GrandTotal.StringFixed(2),
		"Paid: "+inv.PaidAmount.StringFixed(2),
		"Pending: "+inv.PendingAmount.StringFixed(2),
	)
	return buildPDF(lines), nil
}

func buildPDF(lines []string) []byte {
	var content strings.Builder
	content.WriteString("BT\n/F1 10 Tf\n14 TL\n40 800 Td\n")
	for i, line := range lines {
		if i == 0 {
			content.WriteString(fmt.Sprintf("(%s) Tj\n", pdfEscape(line)))
			continue
		}
		content.WriteString(fmt.Sprintf("T* (%s) Tj\n", pdfEscape(line)))
	}
	content.WriteString("ET")

	stream := content.String()
	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n",
		"4 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n",
		fmt.Sprintf("5 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream),
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, 0, len(objects))
	for _, obj := range objects {
		offsets = append(offsets, out.Len())
		out.WriteString(obj)
	}

	xrefStart := out.Len()
	out.WriteString(fmt.Sprintf("xref\n0 %d\n", len(offsets)+1))
	out.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		out.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}
	out.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", len(offsets)+1, xrefStart))

	return out.Bytes()
}

func pdfEscape(v string) string {
	return strings.NewReplacer("\\", "\\\\", "(", "\\(", ")", "\\)").Replace(v)
}
