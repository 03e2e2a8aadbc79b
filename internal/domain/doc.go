// Package domain models USGS earthquake feed records and their display form.
//
// # Data Source
//
// Events come from the USGS FDSN event web service, queried as GeoJSON at
// https://earthquake.usgs.gov/fdsnws/event/1/query. Each feature carries a
// "properties" object; only four of its fields are used:
//
//	mag    number   magnitude, may be zero or negative for micro-events
//	place  string   "<distance> <direction> of <place>" or a bare region name
//	time   integer  origin time in milliseconds since the Unix epoch (UTC)
//	url    string   event detail page
//
// # Location Convention
//
// USGS place strings look like "10km NE of Cairo, Egypt". The text up to and
// including " of" is the offset; the rest is the primary location. Region
// names without an offset ("Pacific-Antarctic Ridge") are shown as
// "Near the" + region. See [SplitLocation].
//
// # Severity Classification
//
// Magnitudes are floored and mapped to ten ordinal classes used by clients to
// pick a color:
//
//	floor 0-1  magnitude1
//	floor 2-9  magnitude2 .. magnitude9
//	other      magnitude10plus (10 and above, negative, NaN)
//
// See [Classify].
//
// # Display Formats
//
// Dates and times are rendered in UTC with fixed English layouts so output does
// not depend on the host locale: "Jan 2, 2006" and "3:04 PM".
package domain
