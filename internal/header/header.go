// Package header turns raw "Name: value" lines into request headers.
package header

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jgivc/saidl/internal/common"
	"golang.org/x/net/http/httpguts"
)

const (
	separator    = ":"
	pseudoPrefix = ":"
)

// Parse builds a header set from lines. Pseudo-headers, lines without a colon and
// lines with an empty value are skipped. Repeated names are appended.
func Parse(lines []string) (http.Header, error) {
	h := make(http.Header)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, pseudoPrefix) {
			continue
		}

		name, value, found := strings.Cut(line, separator)
		if !found {
			continue
		}

		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		if !httpguts.ValidHeaderFieldName(name) {
			return nil, fmt.Errorf("%w: bad name %q", common.ErrInvalidHeaderSyntax, name)
		}

		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, fmt.Errorf("%w: bad value for %q", common.ErrInvalidHeaderSyntax, name)
		}

		h.Add(name, value)
	}

	return h, nil
}
