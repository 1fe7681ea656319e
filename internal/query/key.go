package query

import (
	"strconv"
	"strings"
)

// Key identifies a cached query. Two keys are equal when their elements are.
type Key []string

// String returns the canonical form used for map lookups, e.g. ["analysis","42"].
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = strconv.Quote(p)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Equal reports structural equality.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix matches the leading elements of k.
func (k Key) HasPrefix(prefix Key) bool {
	return len(prefix) <= len(k) && k[:len(prefix)].Equal(prefix)
}

func (k Key) clone() Key { return append(Key(nil), k...) }

func DashboardKey() Key            { return Key{"dashboard"} }
func StatsKey() Key                { return Key{"stats"} }
func PullRequestsKey() Key         { return Key{"pull-requests"} }
func PullRequestKey(id string) Key { return Key{"pull-request", id} }
func AnalysisKey(id string) Key    { return Key{"analysis", id} }
