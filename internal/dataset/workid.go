package dataset

import (
	"strconv"
	"strings"
)

// DefaultWorkPrefix is the type tag carried by catalog work identifiers
// (tt0000123).
const DefaultWorkPrefix = "tt"

// CanonicalWorkID normalizes a work identifier into the join key shared by
// the title catalog and the participation index: prefix stripped when
// present, parsed as an unsigned integer, re-rendered without leading zeros.
// Both loaders must go through this function.
func CanonicalWorkID(raw, prefix string) (string, bool) {
	s := strings.TrimSpace(raw)
	if prefix != "" {
		s = strings.TrimPrefix(s, prefix)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatUint(n, 10), true
}

// CompareWorkIDs orders work identifiers by numeric value. Leading zeros
// are ignored, so a shorter digit string is always smaller; equal values
// fall back to the raw strings to keep the order total.
func CompareWorkIDs(a, b string) int {
	ta, tb := strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	if c := strings.Compare(ta, tb); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
