package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// locationSeparator splits "5km N of Cairo, Egypt" into offset and place.
	locationSeparator = " of "

	// NearThe is the offset shown when the place string carries no distance.
	NearThe = "Near the"

	dateLayout = "Jan 2, 2006"
	timeLayout = "3:04 PM"
)

// SeverityClass is an ordinal bucket derived from the floored magnitude.
// Clients resolve it to a color; the core only emits the ordinal.
type SeverityClass int

const (
	SeverityMagnitude1 SeverityClass = iota // floor 0 and 1
	SeverityMagnitude2
	SeverityMagnitude3
	SeverityMagnitude4
	SeverityMagnitude5
	SeverityMagnitude6
	SeverityMagnitude7
	SeverityMagnitude8
	SeverityMagnitude9
	SeverityMagnitude10Plus
)

var severityNames = [...]string{
	"magnitude1",
	"magnitude2",
	"magnitude3",
	"magnitude4",
	"magnitude5",
	"magnitude6",
	"magnitude7",
	"magnitude8",
	"magnitude9",
	"magnitude10plus",
}

func (s SeverityClass) String() string {
	if s < SeverityMagnitude1 || s > SeverityMagnitude10Plus {
		return "SeverityClass(" + strconv.Itoa(int(s)) + ")"
	}
	return severityNames[s]
}

// MarshalText encodes the class by name so JSON consumers see "magnitude6".
func (s SeverityClass) MarshalText() ([]byte, error) {
	if s < SeverityMagnitude1 || s > SeverityMagnitude10Plus {
		return nil, fmt.Errorf("invalid severity class %d", int(s))
	}
	return []byte(severityNames[s]), nil
}

// UnmarshalText decodes a class name produced by MarshalText.
func (s *SeverityClass) UnmarshalText(text []byte) error {
	for i, name := range severityNames {
		if name == string(text) {
			*s = SeverityClass(i)
			return nil
		}
	}
	return fmt.Errorf("unknown severity class %q", text)
}

// Present derives the display fields for one record. It never fails:
// odd locations and magnitudes get a well-defined rendering.
func Present(r EventRecord) PresentedRecord {
	offset, primary := SplitLocation(r.Location)
	t := eventTime(r.Time)
	return PresentedRecord{
		FormattedMagnitude: FormatMagnitude(r.Magnitude),
		PrimaryLocation:    primary,
		LocationOffset:     offset,
		FormattedDate:      t.Format(dateLayout),
		FormattedTime:      t.Format(timeLayout),
		Severity:           Classify(r.Magnitude),
		DetailURL:          r.DetailURL,
	}
}

// PresentAll maps Present over records, preserving order. The result is
// non-nil so callers can tell "no results" apart from a failed fetch.
func PresentAll(records []EventRecord) []PresentedRecord {
	out := make([]PresentedRecord, 0, len(records))
	for _, r := range records {
		out = append(out, Present(r))
	}
	return out
}

// FormatMagnitude renders m with exactly one decimal digit, rounding half
// away from zero: 2.25 -> "2.3", 6.8 -> "6.8", 7 -> "7.0". The value is
// scaled before rounding, so a feed value written as 1.45 rounds up to
// "1.5" even though its binary form sits just below the half.
func FormatMagnitude(m float64) string {
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return strconv.FormatFloat(m, 'f', 1, 64)
	}
	r := math.Round(m*10) / 10
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}

// SplitLocation splits a USGS place string at the first " of ".
// "10km NE of Cairo, Egypt" yields ("10km NE of", "Cairo, Egypt"); a place
// without the separator yields (NearThe, place) unchanged, even when empty.
func SplitLocation(place string) (offset, primary string) {
	before, after, found := strings.Cut(place, locationSeparator)
	if !found {
		return NearThe, place
	}
	return before + strings.TrimRight(locationSeparator, " "), after
}

// Classify maps floor(m) to a severity class.
func Classify(m float64) SeverityClass {
	if math.IsNaN(m) {
		return SeverityMagnitude10Plus
	}
	f := math.Floor(m)
	switch {
	case f == 0 || f == 1:
		return SeverityMagnitude1
	case f >= 2 && f <= 9:
		return SeverityClass(int(f) - 1)
	default:
		return SeverityMagnitude10Plus
	}
}

// FormatDate renders epoch milliseconds as "Jan 2, 2006" in UTC.
func FormatDate(ms int64) string {
	return eventTime(ms).Format(dateLayout)
}

// FormatTime renders epoch milliseconds as "3:04 PM" in UTC.
func FormatTime(ms int64) string {
	return eventTime(ms).Format(timeLayout)
}

func eventTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
