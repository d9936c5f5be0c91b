// Package export renders the call log as a spreadsheet.
package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/garyjia/integration-kit/internal/application/port"
	"github.com/garyjia/integration-kit/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	summarySheet = "Summary"
	timeLayout   = "2006-01-02 15:04:05"
)

var callHeaders = []any{
	"ID", "Created At", "Integration", "Command", "Status",
	"Duration (ms)", "Request ID", "Error", "Error Class",
}

var summaryHeaders = []any{
	"Integration", "Calls", "Successes", "Failures", "Success Rate", "Avg Duration (ms)",
}

// XLSXExporter writes call records to an .xlsx workbook with a per-call
// sheet and a per-integration summary sheet
type XLSXExporter struct {
	sheetName string
	logger    *zap.Logger
}

// NewXLSXExporter creates an exporter; an empty sheetName uses the default
func NewXLSXExporter(sheetName string, logger *zap.Logger) *XLSXExporter {
	if sheetName == "" {
		sheetName = entity.DefaultExportSheet
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &XLSXExporter{
		sheetName: sheetName,
		logger:    logger,
	}
}

// ContentType returns the MIME type of the workbook
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileExtension returns the workbook file extension
func (e *XLSXExporter) FileExtension() string {
	return ".xlsx"
}

// Export writes records to w
func (e *XLSXExporter) Export(w io.Writer, records []*entity.CallRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", e.sheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := e.writeCalls(f, records, headerStyle); err != nil {
		return err
	}
	if err := e.writeSummary(f, records, headerStyle); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Debug("Call log exported", zap.Int("records", len(records)))
	return nil
}

func (e *XLSXExporter) writeCalls(f *excelize.File, records []*entity.CallRecord, headerStyle int) error {
	if err := writeRow(f, e.sheetName, 1, callHeaders); err != nil {
		return err
	}
	if err := f.SetRowStyle(e.sheetName, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, r := range records {
		row := []any{
			r.ID,
			r.CreatedAt.UTC().Format(timeLayout),
			r.IntegrationName,
			r.CommandType.String(),
			r.Status,
			r.DurationMs,
			r.RequestID,
			r.ErrorMessage,
			r.ErrorClass,
		}
		if err := writeRow(f, e.sheetName, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(e.sheetName, "B", "D", 22); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(e.sheetName, "G", "H", 40); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	return f.SetPanes(e.sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (e *XLSXExporter) writeSummary(f *excelize.File, records []*entity.CallRecord, headerStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	if err := writeRow(f, summarySheet, 1, summaryHeaders); err != nil {
		return err
	}
	if err := f.SetRowStyle(summarySheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, s := range Summarize(records) {
		row := []any{
			s.IntegrationName,
			s.Total,
			s.Successes,
			s.Failures,
			s.SuccessRate(),
			s.AvgDurationMs,
		}
		if err := writeRow(f, summarySheet, i+2, row); err != nil {
			return err
		}
	}

	return nil
}

// Summarize aggregates records per integration, ordered by name
func Summarize(records []*entity.CallRecord) []entity.IntegrationStats {
	byName := make(map[string]*entity.IntegrationStats)
	totals := make(map[string]float64)

	for _, r := range records {
		s, ok := byName[r.IntegrationName]
		if !ok {
			s = &entity.IntegrationStats{IntegrationName: r.IntegrationName}
			byName[r.IntegrationName] = s
		}
		s.Total++
		if r.IsSuccess() {
			s.Successes++
		} else {
			s.Failures++
		}
		totals[r.IntegrationName] += r.DurationMs
		if r.CreatedAt.After(s.LastCallAt) {
			s.LastCallAt = r.CreatedAt
		}
	}

	out := make([]entity.IntegrationStats, 0, len(byName))
	for name, s := range byName {
		s.AvgDurationMs = totals[name] / float64(s.Total)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IntegrationName < out[j].IntegrationName })
	return out
}

// FileName returns a timestamped download name
func FileName(exporter port.CallExporter, now time.Time) string {
	return fmt.Sprintf("integration-calls-%s%s", now.UTC().Format("20060102-150405"), exporter.FileExtension())
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to resolve row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// Verify interface compliance
var _ port.CallExporter = (*XLSXExporter)(nil)
