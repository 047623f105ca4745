// Package export renders booking lists as spreadsheets for restaurant staff.
package export

import (
	"fmt"
	"io"
	"time"

	"food-rescue-api/models"

	"github.com/xuri/excelize/v2"
)

// SheetName is the single sheet every bookings workbook carries.
const SheetName = "Bookings"

var columns = []string{"Booking ID", "Code", "Session", "Date", "Window", "User", "Quantity", "Status", "Booked At"}

// BookingsWorkbook writes one row per booking. sessions resolves a booking's
// session for the date and pickup window columns; missing entries leave them blank.
func BookingsWorkbook(w io.Writer, bookings []models.Booking, sessions map[string]models.DropoffSession, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(f, 1, toAny(columns)); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		end, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = f.SetCellStyle(SheetName, "A1", end, style)
	}

	for i, b := range bookings {
		s := sessions[b.SessionID]
		window := ""
		if s.StartTime != "" {
			window = s.StartTime + "-" + s.EndTime
		}
		row := []any{
			b.ID, b.Code, b.SessionID, s.Date, window, b.UserID, b.Quantity,
			string(b.Status), b.BookingTime.In(loc).Format(time.DateTime),
		}
		if err := writeRow(f, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, v); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
