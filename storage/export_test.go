package storage

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"property-marketplace/models"
)

func sampleBookings() []*models.Booking {
	return []*models.Booking{
		{ID: "b2", BookingPayload: models.BookingPayload{PropertyID: "p1", PropertyName: "Loft", UserName: "Ann", UserPhone: "55501"},
			BookingDate: time.Date(2024, 2, 2, 9, 0, 0, 0, time.UTC)},
		{ID: "b1", BookingPayload: models.BookingPayload{PropertyID: "p2", PropertyName: "Cabin, Lake", UserName: "Bo", UserPhone: "55502"},
			BookingDate: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)},
	}
}

func TestCSVWriterWritesHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewExporter(FormatCSV, &buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteBookings(sampleBookings()))
	require.NoError(t, w.Close())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, bookingHeader, records[0])
	assert.Equal(t, "Cabin, Lake", records[2][2])
	assert.Equal(t, "2024-02-02T09:00:00Z", records[1][5])
}

func TestCSVFileWriterCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bookings.csv")
	w, err := NewCSVFileWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteBookings(sampleBookings()))
	require.NoError(t, w.Close())
	assert.FileExists(t, path)
}

func TestXLSXWriterProducesWorkbook(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewExporter(FormatXLSX, &buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteBookings(sampleBookings()))
	require.NoError(t, w.Close())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(bookingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "b2", rows[1][0])
}

func TestNewExporterRejectsUnknownFormat(t *testing.T) {
	_, err := NewExporter("pdf", &bytes.Buffer{})
	assert.Error(t, err)
	assert.Equal(t, "text/csv", ContentType("csv"))
}
