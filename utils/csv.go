package utils

import (
	"strings"
	"time"

	"github.com/gomc/website/models"
)

// CSVHeader is the first line of the registrations export.
const CSVHeader = "Name, Email, Affiliation, Comment, Created"

// CSVDateLayout renders Created as a general date with long time.
const CSVDateLayout = "1/2/2006 3:04:05 PM"

var csvEscaper = strings.NewReplacer(
	`"`, `'`,
	"\n", `\n`,
	"\r", `\r`,
	",", ";",
)

// EscapeCSVField makes a value safe to join with commas without quoting:
// empty becomes a single space, quotes become apostrophes, line breaks
// become literal escapes and commas become semicolons.
func EscapeCSVField(s string) string {
	if s == "" {
		return " "
	}
	return csvEscaper.Replace(s)
}

// RegistrationsCSV renders the export file for regs in the given order.
func RegistrationsCSV(regs []models.Registration, loc *time.Location) []byte {
	if loc == nil {
		loc = time.Local
	}
	var sb strings.Builder
	sb.WriteString(CSVHeader)
	sb.WriteString("\r\n")
	for _, r := range regs {
		sb.WriteString(EscapeCSVField(r.Name))
		sb.WriteByte(',')
		sb.WriteString(EscapeCSVField(r.Email))
		sb.WriteByte(',')
		sb.WriteString(EscapeCSVField(r.Affiliation))
		sb.WriteByte(',')
		sb.WriteString(EscapeCSVField(r.Text))
		sb.WriteByte(',')
		sb.WriteString(r.Created.In(loc).Format(CSVDateLayout))
		sb.WriteString("\r\n")
	}
	return []byte(sb.String())
}
