package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/worklane/timeledger-backend-go/internal/domain/summary"
)

// Service renders approved monthly summaries into signable PDF documents.
type Service struct {
	summaryRepo summary.Repository
}

func NewReportService(summaryRepo summary.Repository) *Service {
	return &Service{summaryRepo: summaryRepo}
}

// SummaryPDF renders the summary identified by id. Only staff-signed and
// approved summaries export; a draft has nothing worth printing yet.
func (s *Service) SummaryPDF(ctx context.Context, id string) ([]byte, string, error) {
	sum, err := s.summaryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if sum.Status == summary.StatusDraft || sum.Status == summary.StatusRejected {
		return nil, "", summary.ErrInvalidTransition
	}

	data, err := renderSummary(sum)
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("summary-%s-%04d-%02d.pdf", sum.EmployeeID, sum.Year, sum.Month)
	return data, filename, nil
}

func renderSummary(sum summary.Summary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Monthly Summary %04d-%02d", sum.Year, sum.Month), false)
	pdf.AddPage()

	monthName := time.Month(sum.Month).String()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Monthly Summary - %s %d", monthName, sum.Year), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	employee := sum.EmployeeID
	if sum.EmployeeName != nil {
		employee = *sum.EmployeeName
	}
	pdf.CellFormat(0, 6, "Employee: "+employee, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Status: "+string(sum.Status), "", 1, "L", false, 0, "")
	if sum.InvoiceNumber != nil {
		pdf.CellFormat(0, 6, "Invoice: "+*sum.InvoiceNumber, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Attendance", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	metricRow(pdf, "Working days", fmt.Sprintf("%d", sum.TotalWorkingDays))
	metricRow(pdf, "Worked hours", fmt.Sprintf("%.2f", sum.TotalWorkedHours))
	metricRow(pdf, "Approved overtime hours", fmt.Sprintf("%.2f", sum.TotalOvertimeHours))
	metricRow(pdf, "Approved leave days", fmt.Sprintf("%d", sum.ApprovedLeaveDays))
	metricRow(pdf, "Absent days", fmt.Sprintf("%d", sum.AbsentDays))
	pdf.Ln(4)

	if len(sum.Breakdown) > 0 {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 7, "Per-Project Breakdown", "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(70, 6, "Project", "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, "Days", "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, "Hours", "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, "Overtime", "1", 1, "R", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, stat := range sum.Breakdown {
			project := stat.ProjectID
			if project == "" {
				project = "(unassigned)"
			}
			pdf.CellFormat(70, 6, project, "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, fmt.Sprintf("%d", stat.DaysWorked), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", stat.TotalHours), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", stat.OvertimeHours), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	if sum.Subtotal != nil {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 7, "Financials", "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		metricRow(pdf, "Subtotal", fmt.Sprintf("%.2f", *sum.Subtotal))
		if sum.TaxPercentage != nil && sum.TaxAmount != nil {
			metricRow(pdf, fmt.Sprintf("Tax (%.1f%%)", *sum.TaxPercentage), fmt.Sprintf("%.2f", *sum.TaxAmount))
		}
		if sum.TotalAmount != nil {
			pdf.SetFont("Arial", "B", 10)
			metricRow(pdf, "Total", fmt.Sprintf("%.2f", *sum.TotalAmount))
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Signatures", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	signatureRow(pdf, "Staff", sum.StaffSignedBy, sum.StaffSignedAt)
	signatureRow(pdf, "Admin", sum.AdminApprovedBy, sum.AdminApprovedAt)
	if sum.AdminRemarks != nil {
		pdf.Ln(2)
		pdf.MultiCell(0, 6, "Remarks: "+*sum.AdminRemarks, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render summary pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func metricRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.CellFormat(90, 6, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, value, "", 1, "R", false, 0, "")
}

func signatureRow(pdf *gofpdf.Fpdf, party string, signedBy *string, signedAt *time.Time) {
	line := party + ": "
	if signedBy == nil {
		line += "not signed"
	} else {
		line += *signedBy
		if signedAt != nil {
			line += " on " + signedAt.Format("2006-01-02 15:04")
		}
	}
	pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
}
