package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Event is a single calendar entry rendered as a VEVENT.
type Event struct {
	// UID must be stable across exports so calendar clients can
	// deduplicate, e.g. "<shift-id>@shifty.example.org".
	UID         string
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
	Location    string
}

// ICSExporter renders events into an iCalendar (RFC 5545) document.
type ICSExporter struct {
	ProdID string
}

// NewICSExporter constructs an ICS exporter.
func NewICSExporter(prodID string) *ICSExporter {
	if prodID == "" {
		prodID = "-//Shifty//Volunteer Shifts//EN"
	}
	return &ICSExporter{ProdID: prodID}
}

const icsTimeLayout = "20060102T150405Z"

// Render produces the calendar document. Timestamps are emitted in UTC
// and lines are CRLF terminated per the format.
func (e *ICSExporter) Render(events []Event) ([]byte, error) {
	buf := &bytes.Buffer{}

	writeLine(buf, "BEGIN:VCALENDAR")
	writeLine(buf, "VERSION:2.0")
	writeLine(buf, "PRODID:"+e.ProdID)
	writeLine(buf, "CALSCALE:GREGORIAN")

	for _, event := range events {
		if event.UID == "" {
			return nil, fmt.Errorf("ics event requires a uid")
		}
		if event.End.Before(event.Start) {
			return nil, fmt.Errorf("ics event %s ends before it starts", event.UID)
		}

		writeLine(buf, "BEGIN:VEVENT")
		writeLine(buf, "UID:"+event.UID)
		writeLine(buf, "DTSTART:"+event.Start.UTC().Format(icsTimeLayout))
		writeLine(buf, "DTEND:"+event.End.UTC().Format(icsTimeLayout))
		writeLine(buf, "SUMMARY:"+EscapeText(event.Summary))
		if event.Description != "" {
			writeLine(buf, "DESCRIPTION:"+EscapeText(event.Description))
		}
		if event.Location != "" {
			writeLine(buf, "LOCATION:"+EscapeText(event.Location))
		}
		writeLine(buf, "STATUS:CONFIRMED")
		writeLine(buf, "END:VEVENT")
	}

	writeLine(buf, "END:VCALENDAR")
	return buf.Bytes(), nil
}

var icsEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"\n", "\\n",
	"\r", "\\r",
	",", "\\,",
	";", "\\;",
)

// EscapeText escapes the characters reserved in iCalendar text values.
func EscapeText(text string) string {
	return icsEscaper.Replace(text)
}

func writeLine(buf *bytes.Buffer, line string) {
	buf.WriteString(line)
	buf.WriteString("\r\n")
}
