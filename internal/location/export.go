package location

import (
	"bufio"
	"io"
	"strings"

	"geocapture/models"
)

const (
	ExportFilename = "verification-data.csv"
	exportHeader   = "Latitude,Longitude,IP,Image URL,Created At\n"
	// ISO 8601 with milliseconds, always UTC
	exportTimeFormat = "2006-01-02T15:04:05.000Z"
)

// WriteCSV writes records as a table with every field double-quoted.
func WriteCSV(w io.Writer, records []*models.LocationRecord) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(exportHeader); err != nil {
		return err
	}

	for _, rec := range records {
		fields := []string{
			rec.Lat,
			rec.Lon,
			rec.IP,
			rec.ImageURL,
			rec.CreatedAt.UTC().Format(exportTimeFormat),
		}
		for i, f := range fields {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteByte('"')
			bw.WriteString(strings.ReplaceAll(f, `"`, `""`))
			bw.WriteByte('"')
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}

	return bw.Flush()
}
