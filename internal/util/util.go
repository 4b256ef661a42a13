package util

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

const (
	linkPrefix = "http"
)

func GetIDFromString(str *string) string {
	hasher := sha1.New()
	hasher.Write([]byte(*str))

	return hex.EncodeToString(hasher.Sum(nil))
}

// ReadLines returns trimmed, non-empty lines of the file. Both \n and \r\n endings are accepted.
func ReadLines(fs afero.Fs, path string) ([]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file %s: %w", path, err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lines = append(lines, line)
	}

	return lines, nil
}

// FilterLinks keeps the lines of a playlist that are fragment URLs.
func FilterLinks(lines []string) []string {
	links := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(line, linkPrefix) {
			links = append(links, line)
		}
	}

	return links
}
