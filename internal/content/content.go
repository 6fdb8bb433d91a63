// Package content turns article HTML into the inputs of the augmentation
// pipeline: plain text for detection and summaries, and the ordinal index
// of translatable elements.
package content

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"ArticleAugmenter/internal/config"
	"ArticleAugmenter/internal/domain"
)

// AnnotationClass marks nodes inserted by translation injection.
const AnnotationClass = "ai-translation"

// Selection describes which elements carry translatable text. Extraction
// and injection must use the same value or ordinals drift apart.
type Selection struct {
	Root  string
	Items string
}

// SelectionFrom reads the selectors from extraction config.
func SelectionFrom(cfg config.ExtractionConfig) Selection {
	return Selection{Root: cfg.RootSelector, Items: cfg.ItemSelector}
}

// Query runs the selection over doc. When the root element is missing the
// whole document is searched. Annotation nodes are never selected, otherwise
// an injected <p> would shift every later ordinal.
func (s Selection) Query(doc *goquery.Document) *goquery.Selection {
	scope := doc.Selection
	if s.Root != "" {
		if root := doc.Find(s.Root).First(); root.Length() > 0 {
			scope = root
		}
	}
	return scope.Find(s.Items).Not("." + AnnotationClass)
}

// Parse loads an HTML fragment or page into a goquery document.
func Parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// PlainText concatenates the text content of html, tags stripped.
func PlainText(html string) (string, error) {
	doc, err := Parse(html)
	if err != nil {
		return "", err
	}
	return doc.Text(), nil
}

// Extractor builds translation indexes.
type Extractor struct {
	selection     Selection
	minTextLength int
}

// NewExtractor keeps entries whose trimmed text is longer than minTextLength runes.
func NewExtractor(selection Selection, minTextLength int) Extractor {
	return Extractor{selection: selection, minTextLength: minTextLength}
}

// Index lists qualifying elements; the ordinal is the position within the
// selection, so skipped short elements still consume an ordinal.
func (e Extractor) Index(doc *goquery.Document) domain.TranslationIndex {
	var index domain.TranslationIndex
	e.selection.Query(doc).Each(func(i int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Text())
		if utf8.RuneCountInString(text) <= e.minTextLength {
			return
		}
		index = append(index, domain.IndexEntry{Ordinal: i, Text: text})
	})
	return index
}

// IndexHTML is Index over a raw HTML string.
func (e Extractor) IndexHTML(html string) (domain.TranslationIndex, error) {
	doc, err := Parse(html)
	if err != nil {
		return nil, err
	}
	return e.Index(doc), nil
}
