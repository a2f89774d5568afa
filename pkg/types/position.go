package types

import "encoding/json"

// Position is a zero-based line:column position in a source file.
// Columns count bytes, matching the byte-oriented span offsets.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ByteSpan is byte range [Start, End) - half-open interval.
// On the wire it is the two-element array [start, end].
type ByteSpan struct {
	Start int
	End   int
}

// Len returns the number of bytes the span covers.
func (s ByteSpan) Len() int {
	return s.End - s.Start
}

// MarshalJSON encodes the span as [start, end].
func (s ByteSpan) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{s.Start, s.End})
}

// UnmarshalJSON decodes the [start, end] array form.
func (s *ByteSpan) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	s.Start, s.End = pair[0], pair[1]
	return nil
}

// Range combines byte offsets and source positions for a matched span.
// Start precedes End in both orderings; End is exclusive.
type Range struct {
	ByteOffset ByteSpan `json:"byteOffset"`
	Start      Position `json:"start"`
	End        Position `json:"end"`
}
