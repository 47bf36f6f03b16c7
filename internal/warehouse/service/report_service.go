package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/xuri/excelize/v2"
)

var stockTakingReportHeaders = []string{
	"Product", "Lot", "Counted", "Previous", "Difference", "Status", "Error", "Performed By", "At",
}

// ReportService renders stock-taking runs to xlsx and archives them.
type ReportService struct {
	stockTaking *StockTakingService
	minioClient *minio.Client // nil disables archiving
	bucketName  string
}

func NewReportService(stockTaking *StockTakingService, minioClient *minio.Client, bucketName string) *ReportService {
	return &ReportService{stockTaking: stockTaking, minioClient: minioClient, bucketName: bucketName}
}

// ExportStockTaking builds the xlsx workbook for a run.
func (s *ReportService) ExportStockTaking(ctx context.Context, runID string) (*excelize.File, string, error) {
	run, err := s.stockTaking.GetRun(ctx, runID)
	if err != nil {
		return nil, "", err
	}
	results, err := s.stockTaking.Results(ctx, runID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	sheet := "StockTaking"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range stockTakingReportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for i, r := range results {
		row := i + 2
		lot := ""
		if r.Lot != nil {
			lot = *r.Lot
		}
		status := "OK"
		errMsg := ""
		if r.Failed() {
			status = "ERROR"
			errMsg = *r.Error
		}
		values := []interface{}{
			r.ProductCode,
			lot,
			r.CountedQty.InexactFloat64(),
			r.PreviousQty.InexactFloat64(),
			r.CountedQty.Sub(r.PreviousQty).InexactFloat64(),
			status,
			errMsg,
			r.PerformedBy,
			r.CreatedAt.Format(time.RFC3339),
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	filename := fmt.Sprintf("stock-taking-%s-%s.xlsx", run.ID[:8], run.CreatedAt.Format("20060102"))
	return f, filename, nil
}

// ArchiveStockTaking uploads the run's xlsx report to the archive bucket and
// returns the object name.
func (s *ReportService) ArchiveStockTaking(ctx context.Context, runID string) (string, error) {
	if s.minioClient == nil {
		return "", fmt.Errorf("report archive is not configured")
	}

	f, filename, err := s.ExportStockTaking(ctx, runID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	objectName := fmt.Sprintf("stock-takings/%s/%s", time.Now().Format("2006/01"), filename)
	_, err = s.minioClient.PutObject(ctx, s.bucketName, objectName, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	})
	if err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}
	return objectName, nil
}
