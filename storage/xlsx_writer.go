package storage

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"property-marketplace/models"
)

const bookingsSheet = "Bookings"

// XLSXWriter buffers bookings into a workbook and writes it on Close.
type XLSXWriter struct {
	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
	file   *excelize.File
	row    int
}

// NewXLSXWriter prepares a workbook with a styled header row.
func NewXLSXWriter(out io.Writer) (*XLSXWriter, error) {
	f := excelize.NewFile()
	if _, err := f.NewSheet(bookingsSheet); err != nil {
		return nil, fmt.Errorf("xlsx: create sheet: %w", err)
	}
	_ = f.DeleteSheet("Sheet1")
	if index, err := f.GetSheetIndex(bookingsSheet); err == nil {
		f.SetActiveSheet(index)
	}

	for i, title := range bookingHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(bookingsSheet, cell, title); err != nil {
			return nil, fmt.Errorf("xlsx: write header: %w", err)
		}
	}
	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(bookingHeader), 1)
		_ = f.SetCellStyle(bookingsSheet, "A1", last, style)
	}

	return &XLSXWriter{out: out, file: f, row: 2}, nil
}

// NewXLSXFileWriter writes the workbook to path on Close.
func NewXLSXFileWriter(path string) (*XLSXWriter, error) {
	f, err := createFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	w, err := NewXLSXWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

func (x *XLSXWriter) WriteBookings(bookings []*models.Booking) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, b := range bookings {
		cell, _ := excelize.CoordinatesToCellName(1, x.row)
		values := bookingRow(b)
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		if err := x.file.SetSheetRow(bookingsSheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", x.row, err)
		}
		x.row++
	}
	return nil
}

// Close serialises the workbook to the output.
func (x *XLSXWriter) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	_, err := x.file.WriteTo(x.out)
	if cerr := x.file.Close(); err == nil {
		err = cerr
	}
	if x.closer != nil {
		if cerr := x.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return nil
}

// Export formats accepted by NewExporter.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// NewExporter returns a BookingExporter for format writing to w.
func NewExporter(format string, w io.Writer) (BookingExporter, error) {
	switch strings.ToLower(format) {
	case "", FormatCSV:
		return NewCSVWriter(w)
	case FormatXLSX:
		return NewXLSXWriter(w)
	}
	return nil, fmt.Errorf("export: unsupported format %q", format)
}

// ContentType returns the MIME type for an export format.
func ContentType(format string) string {
	if strings.ToLower(format) == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
