package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

// Service renders the approved vacation schedule for distribution: CSV
// for spreadsheets, PDF for the printed annual schedule.
type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

func (s *Service) Schedule(ctx context.Context, year int) ([]ScheduleRow, error) {
	return s.Store.ApprovedSchedule(ctx, year)
}

func (s *Service) ScheduleCSV(ctx context.Context, year int) ([]byte, error) {
	schedule, err := s.Store.ApprovedSchedule(ctx, year)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"employee", "email", "start_date", "end_date", "total_days"}); err != nil {
		return nil, err
	}
	for _, row := range schedule {
		record := []string{
			row.FullName,
			row.Email,
			row.StartDate.Format("2006-01-02"),
			row.EndDate.Format("2006-01-02"),
			strconv.Itoa(row.TotalDays),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Service) SchedulePDF(ctx context.Context, year int) ([]byte, error) {
	schedule, err := s.Store.ApprovedSchedule(ctx, year)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Vacation Schedule %d", year))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(60, 8, "Employee", "1", 0, "L", false, 0, "")
	pdf.CellFormat(35, 8, "Start", "1", 0, "L", false, 0, "")
	pdf.CellFormat(35, 8, "End", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, "Days", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range schedule {
		pdf.CellFormat(60, 8, row.FullName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 8, row.StartDate.Format("2006-01-02"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 8, row.EndDate.Format("2006-01-02"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, strconv.Itoa(row.TotalDays), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
