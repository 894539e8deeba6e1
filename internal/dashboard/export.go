package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/AtorixIT/leadconsole/internal/model"
)

const (
	// ExportContentType is the MIME type of the exported artifact.
	ExportContentType = "text/csv;charset=utf-8"

	csvHeaderRow          = "ID,Name,Email,Phone,Company,Role,Message,Date"
	csvRowSeparator       = "\n"
	csvFieldSeparator     = ","
	exportFilenamePattern = "%s_submissions_%s.csv"
	exportFilenameDateFmt = "2006-01-02"
)

// EncodeCSV serializes the records in fixed column order: identifier, name,
// email, phone, company, role, message, formatted date. Every data field is
// wrapped in double quotes with internal quotes doubled, so absent values
// render as an empty quoted string. Callers reject empty record sets before
// calling; an empty input would otherwise yield a header-only file.
func EncodeCSV(records []model.Submission) []byte {
	var builder strings.Builder
	builder.WriteString(csvHeaderRow)
	builder.WriteString(csvRowSeparator)

	for _, record := range records {
		fields := []string{
			record.ID,
			record.Name,
			record.Email,
			record.Phone,
			record.Company,
			record.Role,
			record.Message,
			record.FormattedDate(),
		}
		escapedFields := make([]string, 0, len(fields))
		for _, field := range fields {
			escapedFields = append(escapedFields, escapeCSVField(field))
		}
		builder.WriteString(strings.Join(escapedFields, csvFieldSeparator))
		builder.WriteString(csvRowSeparator)
	}

	return []byte(builder.String())
}

func escapeCSVField(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// ExportFilename builds the download name, e.g. atorix_submissions_2026-08-28.csv.
func ExportFilename(brandName string, day time.Time) string {
	return fmt.Sprintf(exportFilenamePattern, brandName, day.UTC().Format(exportFilenameDateFmt))
}
