// Package i18n localizes the labels injected into the rendering surface.
//
// Catalogs are gettext .po files embedded under locales/{lang}/LC_MESSAGES
// and loaded with gotext. Missing translations pass the English msgid through.
package i18n

import (
	"embed"
	"strings"

	"github.com/leonelquinteros/gotext"

	"ArticleAugmenter/internal/inject"
)

//go:embed all:locales
var locales embed.FS

const domain = "augmenter"

// Message ids used by the summary container.
const (
	MsgGenerate = "Generate AI Summary"
	MsgLoading  = "Generating AI summary..."
	MsgTitle    = "AI Summary"
)

// Catalog resolves message ids for one reader locale.
type Catalog struct {
	locale *gotext.Locale
}

// New loads the catalog for a locale code such as "zh-CN" or "fr".
func New(locale string) *Catalog {
	l := gotext.NewLocaleFSWithPath(gettextName(locale), locales, "locales")
	l.AddDomain(domain)
	l.SetDomain(domain)
	return &Catalog{locale: l}
}

// T translates msgid, returning it unchanged when no translation exists.
func (c *Catalog) T(msgid string) string {
	if c == nil || c.locale == nil {
		return msgid
	}
	return c.locale.Get(msgid)
}

// Labels bundles the summary container strings.
func (c *Catalog) Labels() inject.Labels {
	return inject.Labels{
		Generate: c.T(MsgGenerate),
		Loading:  c.T(MsgLoading),
		Title:    c.T(MsgTitle),
	}
}

// gettextName converts BCP-47 style codes to the gettext directory form (zh-CN -> zh_CN).
func gettextName(locale string) string {
	locale = strings.TrimSpace(locale)
	if idx := strings.IndexByte(locale, '.'); idx >= 0 {
		locale = locale[:idx]
	}
	if locale == "" {
		return "en"
	}
	return strings.ReplaceAll(locale, "-", "_")
}
