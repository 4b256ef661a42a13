// Package epubadapter packages extracted chapters into an EPUB file.
package epubadapter

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"path/filepath"
	"strings"

	epub "github.com/go-shiori/go-epub"
	"github.com/google/uuid"
	"github.com/jgivc/saidl/internal/common"
	"github.com/jgivc/saidl/internal/entity"
	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	mdhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

const (
	BookExt = ".epub"

	chapterFileFormat  = "chapter%04d.xhtml"
	chapterTitleFormat = "Chapter %d: %s"
	prefaceFileName    = "preface.xhtml"
	prefaceTitle       = "Preface"
	identifierPrefix   = "urn:uuid:"
)

type Options struct {
	Author     string
	ChapterNum bool   // Prefix titles with "Chapter N: "
	Preface    string // Optional markdown file, its frontmatter overrides book metadata
	OutDir     string
}

type Frontmatter struct {
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	Language    string `yaml:"language"`
	Description string `yaml:"description"`
}

type epubAdapter struct {
	fs      afero.Fs
	opts    Options
	preface goldmark.Markdown
	log     *slog.Logger
}

func NewEpubAdapter(opts Options, log *slog.Logger) *epubAdapter {
	return NewEpubAdapterWithFS(afero.NewOsFs(), opts, log)
}

func NewEpubAdapterWithFS(fs afero.Fs, opts Options, log *slog.Logger) *epubAdapter {
	preface := goldmark.New(
		goldmark.WithExtensions(&frontmatter.Extender{}),
		goldmark.WithRendererOptions(
			mdhtml.WithHardWraps(),
			mdhtml.WithXHTML(),
		),
	)

	return &epubAdapter{
		fs:      fs,
		opts:    opts,
		preface: preface,
		log:     log.With(slog.String("item", "EpubAdapter")),
	}
}

// Write stores the chapters, in order, as <OutDir>/<name>.epub and returns the path.
func (a *epubAdapter) Write(name string, chapters []entity.Chapter) (string, error) {
	opts := a.opts
	log := a.log.With(slog.String("book", name))

	book, err := epub.NewEpub(name)
	if err != nil {
		return "", fmt.Errorf("%w: cannot create book: %w", common.ErrPackagingFailure, err)
	}

	book.SetAuthor(opts.Author)
	book.SetIdentifier(identifierPrefix + uuid.NewString())

	if opts.Preface != "" {
		if err := a.addPreface(book, opts.Preface); err != nil {
			return "", err
		}
	}

	for i, chapter := range chapters {
		title := chapter.Title
		if opts.ChapterNum {
			title = fmt.Sprintf(chapterTitleFormat, i+1, title)
		}

		body := render(title, chapter.Content)
		if _, err := book.AddSection(body, title, fmt.Sprintf(chapterFileFormat, i), ""); err != nil {
			return "", fmt.Errorf("%w: cannot add chapter %d: %w", common.ErrPackagingFailure, i, err)
		}
	}

	path := filepath.Join(opts.OutDir, name+BookExt)

	f, err := a.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: cannot create %s: %w", common.ErrPackagingFailure, path, err)
	}
	defer f.Close()

	if _, err := book.WriteTo(f); err != nil {
		return "", fmt.Errorf("%w: cannot write %s: %w", common.ErrPackagingFailure, path, err)
	}

	log.Info("Book written", slog.String("path", path), slog.Int("chapters", len(chapters)))

	return path, nil
}

func (a *epubAdapter) addPreface(book *epub.Epub, path string) error {
	src, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return fmt.Errorf("%w: cannot read preface %s: %w", common.ErrPackagingFailure, path, err)
	}

	var buf bytes.Buffer
	ctx := parser.NewContext()
	if err := a.preface.Convert(src, &buf, parser.WithContext(ctx)); err != nil {
		return fmt.Errorf("%w: cannot convert preface: %w", common.ErrPackagingFailure, err)
	}

	var fm Frontmatter
	if data := frontmatter.Get(ctx); data != nil {
		if err := data.Decode(&fm); err != nil {
			return fmt.Errorf("%w: cannot read preface frontmatter: %w", common.ErrPackagingFailure, err)
		}
	}

	if fm.Title != "" {
		book.SetTitle(fm.Title)
	}

	if fm.Author != "" {
		book.SetAuthor(fm.Author)
	}

	if fm.Language != "" {
		book.SetLang(fm.Language)
	}

	if fm.Description != "" {
		book.SetDescription(fm.Description)
	}

	if _, err := book.AddSection(buf.String(), prefaceTitle, prefaceFileName, ""); err != nil {
		return fmt.Errorf("%w: cannot add preface: %w", common.ErrPackagingFailure, err)
	}

	return nil
}

// render builds the XHTML body of a chapter: the title heading followed by the
// text as is. Blank lines separate paragraphs, other line breaks are kept.
func render(title, content string) string {
	var buf bytes.Buffer
	buf.WriteString("<h1>")
	buf.WriteString(html.EscapeString(title))
	buf.WriteString("</h1>\n")

	var para []string
	flush := func() {
		if len(para) == 0 {
			return
		}

		buf.WriteString("<p>")
		buf.WriteString(strings.Join(para, "<br />\n"))
		buf.WriteString("</p>\n")
		para = para[:0]
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()

			continue
		}

		para = append(para, html.EscapeString(line))
	}
	flush()

	return buf.String()
}
