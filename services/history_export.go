package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/repository"
)

const historySheet = "History"

var historyHeaders = []string{
	"Queue ID", "Customer", "Email", "Party Size", "Estimated Wait (min)", "Actual Wait (min)",
	"Table ID", "Joined At", "Seated At", "Day Of Week", "Hour", "Weekend", "Peak Time",
}

// HistoryExporter writes seating history as an xlsx workbook for offline analysis.
type HistoryExporter struct {
	repo  repository.Repository
	clock Clock
	loc   *time.Location
}

func NewHistoryExporter(repo repository.Repository, clock Clock, loc *time.Location) *HistoryExporter {
	if loc == nil {
		loc = time.UTC
	}
	return &HistoryExporter{repo: repo, clock: clock, loc: loc}
}

// Export returns the workbook covering the last days days.
func (e *HistoryExporter) Export(ctx context.Context, restaurantID string, days int) ([]byte, error) {
	if days < 1 || days > 365 {
		return nil, invalid("Days must be between 1 and 365")
	}

	rows, err := e.repo.ListHistory(ctx, restaurantID, e.clock.Now().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(historySheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(historySheet, "A1", &historyHeaders); err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(historyHeaders))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(historySheet, "A1", lastCol+"1", style); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(historySheet, "A", lastCol, 18); err != nil {
		return nil, err
	}

	for i, h := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(historySheet, cell, &[]interface{}{
			h.QueueEntryID,
			h.CustomerName,
			h.CustomerEmail,
			h.PartySize,
			h.EstimatedWaitMinutes,
			h.ActualWaitMinutes,
			tableRef(h),
			h.CreatedAt.In(e.loc).Format("2006-01-02 15:04"),
			h.SeatedAt.In(e.loc).Format("2006-01-02 15:04"),
			time.Weekday(h.DayOfWeek).String(),
			h.HourOfDay,
			h.IsWeekend,
			h.IsPeakTime,
		}); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func tableRef(h *models.QueueHistory) string {
	if h.TableID == nil {
		return ""
	}
	return *h.TableID
}
