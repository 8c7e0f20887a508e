package export

import (
	"fmt"
	"io"

	"travlr/models"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Bookings"

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = []string{
	"Booking ID", "Trip Code", "Trip Name", "User Email", "User Name", "Travelers",
	"Total Price", "Booking Date", "Travel Date", "Status", "Contact Phone", "Special Requests",
}

// WriteBookings renders bookings as an XLSX workbook into w
func WriteBookings(w io.Writer, bookings []models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle)

	for i, b := range bookings {
		row := []interface{}{
			b.ID.Hex(),
			b.TripCode,
			b.TripName,
			b.UserEmail,
			b.UserName,
			b.Travelers,
			b.TotalPrice,
			b.BookingDate.Format("2006-01-02 15:04"),
			b.TravelDate.Format("2006-01-02"),
			b.Status,
			b.ContactPhone,
			b.SpecialRequests,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("error writing row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 26)
	_ = f.SetColWidth(SheetName, "B", "L", 18)
	_ = f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}
