package meeting

import (
	"fmt"
	"time"
)

// TargetOffset is the fixed display offset applied to UTC timestamps (UTC+07:00).
const TargetOffset = 7 * time.Hour

// TargetZoneName is stored alongside meeting rows.
const TargetZoneName = "UTC+07:00"

const isoDate = "2006-01-02"

// ToTargetZone converts a UTC wall-clock time to the target zone.
func ToTargetZone(dateISO string, hour, minute, second int) (ZonedTime, error) {
	return ToZone(dateISO, hour, minute, second, TargetOffset)
}

// ToZone converts a UTC wall-clock time using a fixed offset. The calendar date
// moves forward or backward when the shifted time crosses midnight.
func ToZone(dateISO string, hour, minute, second int, offset time.Duration) (ZonedTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return ZonedTime{}, fmt.Errorf("time out of range: %02d:%02d:%02d", hour, minute, second)
	}
	day, err := time.Parse(isoDate, dateISO)
	if err != nil {
		return ZonedTime{}, fmt.Errorf("invalid date %q: %w", dateISO, err)
	}

	shifted := day.Add(time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second +
		offset)

	return ZonedTime{
		Date: time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, time.UTC),
		Time: shifted.Format("15:04:05"),
	}, nil
}

// TodayIn returns midnight UTC of the current calendar day at the given offset.
func TodayIn(now time.Time, offset time.Duration) time.Time {
	t := now.UTC().Add(offset)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
