package meeting

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Filename patterns, tried in order.
var (
	// [Org][Proj] Planning_2025-01-17T02_54_32+00_00
	bracketTimestampPattern = regexp.MustCompile(`^((?:\[[^\]]+\]){1,3}[^_]*?)_(\d{4}-\d{2}-\d{2})T(\d{2})_(\d{2})_(\d{2})(?:[+-]\d{2}_?\d{2})?$`)

	// [Team] Retro_2025-01-17
	bracketDatePattern = regexp.MustCompile(`^(\[[^\]]+\][^_]*?)_(\d{4}-\d{2}-\d{2})$`)

	// Weekly_Sync_2025-01-17
	isoDatePattern = regexp.MustCompile(`^(.+?)_(\d{4}-\d{2}-\d{2})$`)

	// Weekly_Sync_17-01-2025
	dmyDatePattern = regexp.MustCompile(`^(.+?)_(\d{2})-(\d{2})-(\d{4})$`)

	extensionPattern = regexp.MustCompile(`(?i)\.(txt|docx)$`)
)

// ParseFilename recovers series identity, date and time from a transcript
// filename. It never fails: unmatched names fall back to the bare name and
// invalid dates come back as a nil Date.
func ParseFilename(filename string) ParsedFilename {
	return ParseFilenameAt(filename, TargetOffset)
}

// ParseFilenameAt is ParseFilename with an explicit display offset for
// timestamped names.
func ParseFilenameAt(filename string, offset time.Duration) ParsedFilename {
	name := StripExtension(filename)

	if m := bracketTimestampPattern.FindStringSubmatch(name); m != nil {
		prefix := strings.TrimSpace(m[1])
		parsed := ParsedFilename{SeriesKey: prefix, OccurrenceTitle: prefix}
		h, _ := strconv.Atoi(m[3])
		mi, _ := strconv.Atoi(m[4])
		s, _ := strconv.Atoi(m[5])
		if zt, err := ToZone(m[2], h, mi, s, offset); err == nil {
			parsed.Date = &zt.Date
			parsed.Time = zt.Time
		}
		return parsed
	}

	if m := bracketDatePattern.FindStringSubmatch(name); m != nil {
		prefix := strings.TrimSpace(m[1])
		return ParsedFilename{SeriesKey: prefix, OccurrenceTitle: prefix, Date: parseDate(m[2])}
	}

	if m := isoDatePattern.FindStringSubmatch(name); m != nil {
		title := underscoresToSpaces(m[1])
		return ParsedFilename{SeriesKey: title, OccurrenceTitle: title, Date: parseDate(m[2])}
	}

	if m := dmyDatePattern.FindStringSubmatch(name); m != nil {
		title := underscoresToSpaces(m[1])
		return ParsedFilename{SeriesKey: title, OccurrenceTitle: title, Date: parseDate(m[4] + "-" + m[3] + "-" + m[2])}
	}

	return ParsedFilename{SeriesKey: underscoresToSpaces(name)}
}

// StripExtension removes a trailing .txt or .docx, case-insensitively.
// Google Docs have no extension and are returned unchanged.
func StripExtension(filename string) string {
	return extensionPattern.ReplaceAllString(filename, "")
}

func underscoresToSpaces(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
}

// parseDate returns nil for dates that are not real calendar days, e.g. 2025-02-30.
func parseDate(iso string) *time.Time {
	d, err := time.Parse(isoDate, iso)
	if err != nil {
		return nil
	}
	return &d
}
