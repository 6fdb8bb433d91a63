package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/infrastructure/fetch"
	"ArticleAugmenter/internal/ports"
)

// FileSource reads one article from a local HTML file.
type FileSource struct{}

var _ ports.ArticleSource = (*FileSource)(nil)

// NewFileSource builds the local file source.
func NewFileSource() *FileSource {
	return &FileSource{}
}

// Name identifies the source inside the registry.
func (s *FileSource) Name() string {
	return "file"
}

// Fetch parses path; the body of <article> (or <body>) becomes the content.
func (s *FileSource) Fetch(ctx context.Context, path string) ([]domain.Article, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	article, err := parseDocument(doc, path)
	if err != nil {
		return nil, err
	}
	return []domain.Article{article}, nil
}

func parseDocument(doc *goquery.Document, path string) (domain.Article, error) {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	link, _ := doc.Find(`link[rel="canonical"]`).First().Attr("href")

	body := doc.Find("article").First()
	if body.Length() == 0 {
		body = doc.Find("body").First()
	}
	content, err := body.Html()
	if err != nil {
		return domain.Article{}, fmt.Errorf("render %s: %w", path, err)
	}

	return domain.Article{
		ID:      path,
		Title:   title,
		Content: strings.TrimSpace(content),
		Link:    strings.TrimSpace(link),
	}, nil
}

// PageSource loads one article from a web page through the reader-view fetcher.
type PageSource struct {
	fetcher *fetch.ReadabilityFetcher
}

var _ ports.ArticleSource = (*PageSource)(nil)

// NewPageSource wraps a readability fetcher.
func NewPageSource(fetcher *fetch.ReadabilityFetcher) *PageSource {
	return &PageSource{fetcher: fetcher}
}

// Name identifies the source inside the registry.
func (s *PageSource) Name() string {
	return "page"
}

// Fetch downloads link and extracts the main content.
func (s *PageSource) Fetch(ctx context.Context, link string) ([]domain.Article, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("page source has no fetcher")
	}
	article, err := s.fetcher.FetchArticle(ctx, link)
	if err != nil {
		return nil, err
	}
	return []domain.Article{article}, nil
}
