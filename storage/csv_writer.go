package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"property-marketplace/models"
)

var bookingHeader = []string{
	"id", "property_id", "property_name", "user_name", "user_phone", "booking_date",
}

func bookingRow(b *models.Booking) []string {
	return []string{
		b.ID,
		b.PropertyID,
		b.PropertyName,
		b.UserName,
		b.UserPhone,
		b.BookingDate.UTC().Format(time.RFC3339),
	}
}

// CSVWriter writes bookings as CSV. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	closer io.Closer
	writer *csv.Writer
}

// NewCSVWriter writes the header row to w and returns a writer for the
// booking rows.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(bookingHeader); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	cw.Flush()
	return &CSVWriter{writer: cw}, cw.Error()
}

// NewCSVFileWriter creates (or truncates) the CSV file at path.
// Intermediate directories are created automatically.
func NewCSVFileWriter(path string) (*CSVWriter, error) {
	f, err := createFile(path)
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	w, err := NewCSVWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// WriteBookings appends one row per booking.
func (c *CSVWriter) WriteBookings(bookings []*models.Booking) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range bookings {
		if err := c.writer.Write(bookingRow(b)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file, if this writer owns one.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writer.Flush()
	if c.closer == nil {
		return c.writer.Error()
	}
	return c.closer.Close()
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file %q: %w", path, err)
	}
	return f, nil
}
