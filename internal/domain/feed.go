package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Feed-level diagnostics reported in FeedResult.Err. They are for logging
// only: a feed that cannot be read degrades to zero records.
var (
	ErrEmptyBody       = errors.New("empty feed body")
	ErrMalformedFeed   = errors.New("malformed feed JSON")
	ErrMissingFeatures = errors.New("feed has no features array")
)

// FeedResult is the outcome of ParseFeed.
type FeedResult struct {
	Records []EventRecord
	Skipped []SkippedFeature
	Err     error
}

// SkippedFeature records a feature dropped for a missing or mistyped field.
type SkippedFeature struct {
	Index int
	Err   error
}

// GeoJSON envelope types. Pointer fields distinguish absent/null from zero.

type featureCollection struct {
	Features *[]json.RawMessage `json:"features"`
}

type feature struct {
	Properties *properties `json:"properties"`
}

type properties struct {
	Mag   *float64 `json:"mag"`
	Place *string  `json:"place"`
	Time  *int64   `json:"time"`
	URL   *string  `json:"url"`
}

// ParseFeed decodes a GeoJSON feature collection. Each feature is decoded on
// its own, so one bad feature is skipped without affecting the others.
// Records keep feed order.
func ParseFeed(body []byte) FeedResult {
	if len(bytes.TrimSpace(body)) == 0 {
		return FeedResult{Err: ErrEmptyBody}
	}

	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return FeedResult{Err: fmt.Errorf("%w: %w", ErrMalformedFeed, err)}
	}
	if fc.Features == nil {
		return FeedResult{Err: ErrMissingFeatures}
	}

	res := FeedResult{Records: make([]EventRecord, 0, len(*fc.Features))}
	for i, raw := range *fc.Features {
		rec, err := decodeFeature(raw)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedFeature{Index: i, Err: err})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// decodeFeature extracts all required properties or none.
func decodeFeature(raw json.RawMessage) (EventRecord, error) {
	var f feature
	if err := json.Unmarshal(raw, &f); err != nil {
		return EventRecord{}, fmt.Errorf("decode feature: %w", err)
	}
	p := f.Properties
	switch {
	case p == nil:
		return EventRecord{}, errors.New("missing properties")
	case p.Mag == nil:
		return EventRecord{}, errors.New("missing properties.mag")
	case p.Place == nil:
		return EventRecord{}, errors.New("missing properties.place")
	case p.Time == nil:
		return EventRecord{}, errors.New("missing properties.time")
	case p.URL == nil:
		return EventRecord{}, errors.New("missing properties.url")
	}
	return EventRecord{
		Magnitude: *p.Mag,
		Location:  *p.Place,
		Time:      *p.Time,
		DetailURL: *p.URL,
	}, nil
}
