package header

import (
	"net/http"
	"testing"

	"github.com/jgivc/saidl/internal/common"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		lines    []string
		expected http.Header
	}{
		{
			name:     "well formed",
			lines:    []string{"User-Agent: saidl/1.0", "referer:https://example.com/watch"},
			expected: http.Header{"User-Agent": {"saidl/1.0"}, "Referer": {"https://example.com/watch"}},
		},
		{
			name:     "pseudo headers dropped",
			lines:    []string{":authority: example.com", ":method: GET", "Accept: */*"},
			expected: http.Header{"Accept": {"*/*"}},
		},
		{
			name:     "no colon dropped",
			lines:    []string{"GET /index.m3u8 HTTP/2", "Accept: */*"},
			expected: http.Header{"Accept": {"*/*"}},
		},
		{
			name:     "empty value dropped",
			lines:    []string{"X-Empty:", "X-Blank:    ", "Accept: */*"},
			expected: http.Header{"Accept": {"*/*"}},
		},
		{
			name:     "value keeps later colons",
			lines:    []string{"Origin: https://example.com:8443"},
			expected: http.Header{"Origin": {"https://example.com:8443"}},
		},
		{
			name:     "repeated names append",
			lines:    []string{"Cookie: a=1", "cookie: b=2"},
			expected: http.Header{"Cookie": {"a=1", "b=2"}},
		},
		{
			name:     "empty input",
			lines:    nil,
			expected: http.Header{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h, err := Parse(tc.lines)
			require.NoError(t, err)
			require.Equal(t, tc.expected, h)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	testCases := []struct {
		name  string
		lines []string
	}{
		{"space in name", []string{"Bad Name: value"}},
		{"control char in value", []string{"X-Test: a\x00b"}},
		{"tab in name", []string{"X\tTest: value"}},
		{"non ascii name", []string{"Заголовок: value"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.lines)
			require.ErrorIs(t, err, common.ErrInvalidHeaderSyntax)
		})
	}
}
