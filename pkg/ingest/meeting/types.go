// Package meeting identifies meeting series and occurrences from transcript
// filenames and validates transcript files before they enter the pipeline.
package meeting

import "time"

// ParsedFilename is the meeting identity recovered from a transcript filename.
type ParsedFilename struct {
	// SeriesKey identifies the recurring meeting. Callers compare it through
	// NormalizeTitle, never directly.
	SeriesKey string

	// OccurrenceTitle is the per-occurrence title, empty when the filename has none.
	OccurrenceTitle string

	// Date is the occurrence date in the target zone, nil when absent or invalid.
	Date *time.Time

	// Time is "HH:MM:SS" in the target zone, empty when the filename has no time.
	Time string
}

// HasDate reports whether a valid occurrence date was found.
func (p ParsedFilename) HasDate() bool {
	return p.Date != nil
}

// ZonedTime is a wall-clock instant expressed in the target zone.
type ZonedTime struct {
	// Date is midnight UTC of the calendar day in the target zone.
	Date time.Time
	// Time is "HH:MM:SS".
	Time string
}
