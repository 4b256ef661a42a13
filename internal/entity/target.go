package entity

import "net/http"

// FetchTarget is one position in the logical sequence of a run.
type FetchTarget struct {
	Index int    // Ordinal assigned at enumeration time, the only ordering key
	URL   string // Absolute URL to fetch
}

// FetchResult is a successful fetch. Failures are reported as errors instead.
type FetchResult struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	Header      http.Header
}

// NewTargets enumerates urls in order.
func NewTargets(urls []string) []FetchTarget {
	targets := make([]FetchTarget, len(urls))
	for i, u := range urls {
		targets[i] = FetchTarget{Index: i, URL: u}
	}

	return targets
}
