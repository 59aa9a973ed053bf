package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestICSExporterRender(t *testing.T) {
	exporter := NewICSExporter("-//Shifty//Volunteer Shifts//EN")
	start := time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)

	payload, err := exporter.Render([]Event{{
		UID:         "shift-1@shifty.example.org",
		Start:       start,
		End:         start.Add(8 * time.Hour),
		Summary:     "Morning Shift",
		Description: "Badge duty",
		Location:    "Badge Distribution Area",
	}})
	require.NoError(t, err)

	doc := string(payload)
	assert.True(t, strings.HasPrefix(doc, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(doc, "END:VCALENDAR\r\n"))
	assert.Contains(t, doc, "UID:shift-1@shifty.example.org\r\n")
	assert.Contains(t, doc, "DTSTART:20260828T080000Z\r\n")
	assert.Contains(t, doc, "DTEND:20260828T160000Z\r\n")
	assert.Contains(t, doc, "SUMMARY:Morning Shift\r\n")
	assert.Contains(t, doc, "STATUS:CONFIRMED\r\n")
}

func TestICSExporterRenderConvertsToUTC(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	exporter := NewICSExporter("")
	start := time.Date(2026, 8, 28, 10, 0, 0, 0, berlin)

	payload, err := exporter.Render([]Event{{
		UID:     "shift-2@shifty.example.org",
		Start:   start,
		End:     start.Add(time.Hour),
		Summary: "Afternoon Shift",
	}})
	require.NoError(t, err)

	assert.Contains(t, string(payload), "DTSTART:20260828T080000Z\r\n")
	assert.Contains(t, string(payload), "DTEND:20260828T090000Z\r\n")
}

func TestICSExporterRenderRejectsInvertedEvent(t *testing.T) {
	exporter := NewICSExporter("")
	start := time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)

	_, err := exporter.Render([]Event{{
		UID:   "shift-3@shifty.example.org",
		Start: start,
		End:   start.Add(-time.Hour),
	}})
	require.Error(t, err)
}

func TestEscapeText(t *testing.T) {
	assert.Equal(t, `Setup\, teardown\; etc.`, EscapeText("Setup, teardown; etc."))
	assert.Equal(t, `line one\nline two`, EscapeText("line one\nline two"))
	assert.Equal(t, `back\\slash`, EscapeText(`back\slash`))
	assert.Equal(t, `cr\rchar`, EscapeText("cr\rchar"))
}
