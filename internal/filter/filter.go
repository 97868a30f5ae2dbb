package filter

import (
	"strings"

	"github.com/amishk599/jobpulse/internal/model"
)

// Query matches postings whose title, company or description contains the
// search text and whose location contains the location text.
// Matching is case-insensitive. Empty strings are treated as "match all".
type Query struct {
	search   string
	location string
}

// NewQuery returns a query for the given search and location text. The text
// is matched as typed, so whitespace is part of the substring.
func NewQuery(search, location string) Query {
	return Query{
		search:   strings.ToLower(search),
		location: strings.ToLower(location),
	}
}

// IsEmpty reports whether the query matches every posting.
func (q Query) IsEmpty() bool {
	return q.search == "" && q.location == ""
}

// Match returns true if the posting satisfies both the search and the
// location predicate.
func (q Query) Match(p model.Posting) bool {
	if q.search != "" &&
		!strings.Contains(strings.ToLower(p.Title), q.search) &&
		!strings.Contains(strings.ToLower(p.Company), q.search) &&
		!strings.Contains(strings.ToLower(p.Description), q.search) {
		return false
	}

	if q.location != "" && !strings.Contains(strings.ToLower(p.Location), q.location) {
		return false
	}

	return true
}

// Filter returns the postings matching q, preserving their order. The input
// slice is never modified.
func (q Query) Filter(postings []model.Posting) []model.Posting {
	if q.IsEmpty() {
		return append([]model.Posting(nil), postings...)
	}
	matched := make([]model.Posting, 0, len(postings))
	for _, p := range postings {
		if q.Match(p) {
			matched = append(matched, p)
		}
	}
	return matched
}

// Apply filters postings by search text and location text.
func Apply(postings []model.Posting, search, location string) []model.Posting {
	return NewQuery(search, location).Filter(postings)
}
