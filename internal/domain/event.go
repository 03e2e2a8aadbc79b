package domain

// EventRecord is a single earthquake decoded from the feed. It is only built
// from a feature whose required fields were all present and well typed.
type EventRecord struct {
	Magnitude float64 `json:"mag"`
	Location  string  `json:"place"`
	Time      int64   `json:"time"` // epoch milliseconds, UTC
	DetailURL string  `json:"url"`
}

// PresentedRecord is an EventRecord with its display fields derived.
type PresentedRecord struct {
	FormattedMagnitude string        `json:"magnitude"`
	PrimaryLocation    string        `json:"primary_location"`
	LocationOffset     string        `json:"location_offset"`
	FormattedDate      string        `json:"date"`
	FormattedTime      string        `json:"time"`
	Severity           SeverityClass `json:"severity"`
	DetailURL          string        `json:"url"`
}
