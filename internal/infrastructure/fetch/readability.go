package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"ArticleAugmenter/internal/config"
	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/ports"
)

// ErrFullContent is returned for any failure to produce a reader view.
var ErrFullContent = errors.New("full content unavailable")

// ReadabilityFetcher downloads a page and reduces it to its main content.
type ReadabilityFetcher struct {
	client    *http.Client
	userAgent string
}

var _ ports.ContentFetcher = (*ReadabilityFetcher)(nil)

// NewReadabilityFetcher wires an HTTP client; a nil client gets the configured timeout.
func NewReadabilityFetcher(client *http.Client, cfg config.FetchConfig) *ReadabilityFetcher {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &ReadabilityFetcher{client: client, userAgent: cfg.UserAgent}
}

// FetchFull returns the reader-view HTML for link.
func (f *ReadabilityFetcher) FetchFull(ctx context.Context, link string) (string, error) {
	article, err := f.fetch(ctx, link)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(article.Content) == "" {
		return "", fmt.Errorf("%w: %s has no readable content", ErrFullContent, link)
	}
	return article.Content, nil
}

// FetchArticle builds a domain article from a web page.
func (f *ReadabilityFetcher) FetchArticle(ctx context.Context, link string) (domain.Article, error) {
	article, err := f.fetch(ctx, link)
	if err != nil {
		return domain.Article{}, err
	}
	return domain.Article{
		ID:          link,
		Title:       article.Title,
		Content:     article.Content,
		Link:        link,
		Source:      article.SiteName,
		FullContent: article.Content,
	}, nil
}

func (f *ReadabilityFetcher) fetch(ctx context.Context, link string) (readability.Article, error) {
	pageURL, err := url.Parse(link)
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") {
		return readability.Article{}, fmt.Errorf("%w: invalid link %q", ErrFullContent, link)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return readability.Article{}, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return readability.Article{}, fmt.Errorf("%w: request page: %v", ErrFullContent, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readability.Article{}, fmt.Errorf("%w: %s returned %s", ErrFullContent, link, resp.Status)
	}

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return readability.Article{}, fmt.Errorf("%w: parse page: %v", ErrFullContent, err)
	}
	return article, nil
}
