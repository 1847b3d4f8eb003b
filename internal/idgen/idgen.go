// Package idgen generates the time-ordered, collision-resistant identifiers
// used for every aggregate, event, and projection row. The original system
// used a snowflake-style 64-bit counter; no snowflake implementation exists
// anywhere in the retrieved reference code, so this generates ksuid values
// instead — also time-ordered and collision-resistant, and already a direct
// dependency used elsewhere in this module for event IDs.
package idgen

import "github.com/segmentio/ksuid"

// New returns a new globally unique, lexicographically time-sortable ID.
func New() string {
	return ksuid.New().String()
}

// IsValid reports whether s is a well-formed ID produced by New.
func IsValid(s string) bool {
	_, err := ksuid.Parse(s)
	return err == nil
}
