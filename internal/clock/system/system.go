// Package system provides the real clock used to timestamp crawl records.
package system

import "time"

// Clock implements crawler.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC; record timestamps are always UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
