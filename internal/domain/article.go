package domain

import "strings"

// Article is the feed item being displayed. The core never mutates it.
type Article struct {
	ID          string
	Title       string
	Content     string
	Link        string
	Source      string
	FullContent string
}

// HasWebLink reports whether the article points at an http(s) page.
func (a Article) HasWebLink() bool {
	return strings.HasPrefix(a.Link, "https://") || strings.HasPrefix(a.Link, "http://")
}

// RenderMode selects which body is the source of truth for augmentation.
type RenderMode string

const (
	RenderNormal      RenderMode = "normal"
	RenderFullContent RenderMode = "full"
	RenderRawWebpage  RenderMode = "webpage"
)

// ParseRenderMode maps a flag value to a RenderMode, defaulting to RenderNormal.
func ParseRenderMode(value string) RenderMode {
	switch RenderMode(strings.ToLower(strings.TrimSpace(value))) {
	case RenderFullContent:
		return RenderFullContent
	case RenderRawWebpage:
		return RenderRawWebpage
	default:
		return RenderNormal
	}
}

// Augmentable reports whether summaries and translations apply in this mode.
func (m RenderMode) Augmentable() bool {
	return m != RenderRawWebpage
}

// ActiveContent returns the HTML body for the given mode.
func (a Article) ActiveContent(mode RenderMode) string {
	if mode == RenderFullContent {
		return a.FullContent
	}
	return a.Content
}

// SessionKey identifies one displayed article at one render mode.
// Seq grows with every new session so toggling back to an earlier mode
// still invalidates older completions.
type SessionKey struct {
	ArticleID string
	Mode      RenderMode
	Seq       uint64
}

// AugmentationKey addresses stored summaries and translations.
type AugmentationKey struct {
	ArticleID string
	Mode      RenderMode
	Language  string
}

// String renders the key for cache lookups.
func (k AugmentationKey) String() string {
	return k.ArticleID + "|" + string(k.Mode) + "|" + k.Language
}
