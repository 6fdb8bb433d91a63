package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/ports"
)

// FeedSource loads articles from an RSS/Atom/JSON feed URL.
type FeedSource struct {
	client    *http.Client
	userAgent string
	limit     int
}

var _ ports.ArticleSource = (*FeedSource)(nil)

// NewFeedSource wires an HTTP client; limit caps returned items (0 = all).
func NewFeedSource(client *http.Client, userAgent string, limit int) *FeedSource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &FeedSource{client: client, userAgent: userAgent, limit: limit}
}

// Name identifies the source inside the registry.
func (f *FeedSource) Name() string {
	return "feed"
}

// Fetch downloads the feed and maps its items, dropping duplicate ids.
func (f *FeedSource) Fetch(ctx context.Context, feedURL string) ([]domain.Article, error) {
	feed, err := f.fetchFeed(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		article := itemToArticle(item, feed.Title)
		if article.ID == "" {
			continue
		}
		if _, ok := seen[article.ID]; ok {
			continue
		}
		seen[article.ID] = struct{}{}
		articles = append(articles, article)
		if f.limit > 0 && len(articles) >= f.limit {
			break
		}
	}
	return articles, nil
}

func (f *FeedSource) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

func itemToArticle(item *gofeed.Item, feedTitle string) domain.Article {
	id := strings.TrimSpace(item.GUID)
	if id == "" {
		id = strings.TrimSpace(item.Link)
	}

	body := item.Content
	if strings.TrimSpace(body) == "" {
		body = item.Description
	}

	return domain.Article{
		ID:      id,
		Title:   strings.TrimSpace(item.Title),
		Content: body,
		Link:    strings.TrimSpace(item.Link),
		Source:  feedTitle,
	}
}
