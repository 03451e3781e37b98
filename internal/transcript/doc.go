// Package transcript parses the tab-separated timestamp table written by the
// whisper CLI into ordered, timed text segments.
//
// The table has a header row followed by start, end and text columns. Parsing
// is lenient by design of the upstream contract: blank lines and rows with
// fewer than three columns are skipped, and unparseable times become NaN
// instead of failing the whole table.
package transcript
