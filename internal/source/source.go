// Package source enumerates the pages of a book: by following "next" links,
// by reading a table of contents or by expanding a numeric URL pattern.
package source

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/jgivc/saidl/internal/entity"
)

type Fetcher interface {
	Fetch(ctx context.Context, target entity.FetchTarget) (*entity.FetchResult, error)
}

type PageExtractor interface {
	Document(res *entity.FetchResult) (*goquery.Document, error)
	Chapter(doc *goquery.Document) entity.Chapter
}

func resolve(base, href string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("cannot parse base url %q: %w", base, err)
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("cannot parse link %q: %w", href, err)
	}

	return baseURL.ResolveReference(ref).String(), nil
}
