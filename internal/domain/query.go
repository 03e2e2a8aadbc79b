package domain

import (
	"net/url"
	"strings"
)

// DefaultEndpoint is the USGS FDSN event query service.
const DefaultEndpoint = "https://earthquake.usgs.gov/fdsnws/event/1/query"

// BuildQueryURL appends the GeoJSON feed parameters for s to endpoint.
// Fields of s are sent verbatim; callers apply defaults beforehand.
func BuildQueryURL(endpoint string, s FilterSettings) string {
	params := url.Values{
		"format":  {"geojson"},
		"limit":   {s.ResultLimit},
		"minmag":  {s.MinMagnitude},
		"orderby": {s.OrderBy},
	}

	sep := "?"
	switch {
	case strings.HasSuffix(endpoint, "?") || strings.HasSuffix(endpoint, "&"):
		sep = ""
	case strings.Contains(endpoint, "?"):
		sep = "&"
	}
	return endpoint + sep + params.Encode()
}
