// Package extractor runs CSS selectors against fetched pages.
package extractor

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/jgivc/saidl/internal/common"
	"github.com/jgivc/saidl/internal/entity"
	"golang.org/x/net/html/charset"
)

const (
	anchorSelector = "a"
	hrefAttr       = "href"
)

// Hrefs that point back to the current page.
var deadLinks = []string{"javascript:void(0);", "#"}

type Extractor struct {
	title   cascadia.Selector
	content cascadia.Selector
	log     *slog.Logger
}

func New(titleSelector, contentSelector string, log *slog.Logger) (*Extractor, error) {
	title, err := Compile(titleSelector)
	if err != nil {
		return nil, fmt.Errorf("title selector: %w", err)
	}

	content, err := Compile(contentSelector)
	if err != nil {
		return nil, fmt.Errorf("content selector: %w", err)
	}

	return &Extractor{
		title:   title,
		content: content,
		log:     log.With(slog.String("item", "Extractor")),
	}, nil
}

// Compile parses selector up front so a typo fails before any fetch.
func Compile(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", common.ErrInvalidSelector, selector, err)
	}

	return sel, nil
}

// Document decodes the body to UTF-8 using the response charset and parses it.
func (e *Extractor) Document(res *entity.FetchResult) (*goquery.Document, error) {
	var r io.Reader = bytes.NewReader(res.Body)

	utf8Reader, err := charset.NewReader(r, res.ContentType)
	if err != nil {
		e.log.Warn("Cannot get UTF-8 reader, use raw body", slog.String("url", res.URL), slog.String("content_type", res.ContentType), slog.Any("error", err))
	} else {
		r = utf8Reader
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("cannot parse document %s: %w", res.URL, err)
	}

	return doc, nil
}

func (e *Extractor) Chapter(doc *goquery.Document) entity.Chapter {
	return entity.Chapter{
		Title:   Text(doc, e.title),
		Content: Text(doc, e.content),
	}
}

func (e *Extractor) Extract(res *entity.FetchResult) (entity.Chapter, error) {
	doc, err := e.Document(res)
	if err != nil {
		return entity.Chapter{}, err
	}

	return e.Chapter(doc), nil
}

// Text returns the text of the first match, or an empty string.
func Text(doc *goquery.Document, sel cascadia.Selector) string {
	return doc.FindMatcher(sel).First().Text()
}

// Href returns the href attribute of the first match.
func Href(doc *goquery.Document, sel cascadia.Selector) (string, bool) {
	return doc.FindMatcher(sel).First().Attr(hrefAttr)
}

// Links returns every anchor href in document order. With a scope only anchors
// inside its first match are considered. Dead hrefs are replaced by voidSub.
func Links(doc *goquery.Document, scope cascadia.Selector, voidSub string) []string {
	root := doc.Selection
	if scope != nil {
		root = doc.FindMatcher(scope).First()
	}

	var links []string
	root.Find(anchorSelector).Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr(hrefAttr)
		if !exists {
			return
		}

		if IsDeadLink(href) {
			href = voidSub
		}

		links = append(links, href)
	})

	return links
}

func IsDeadLink(href string) bool {
	href = strings.TrimSpace(href)
	for _, dead := range deadLinks {
		if href == dead {
			return true
		}
	}

	return false
}
