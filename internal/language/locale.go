package language

import (
	"strings"

	"golang.org/x/text/language"
)

// canonicalNames maps locale codes to the names the classifier reports.
var canonicalNames = map[string]string{
	"zh":    "chinese",
	"zh-CN": "chinese",
	"zh-TW": "chinese",
	"en":    "english",
	"en-US": "english",
	"ja":    "japanese",
	"ko":    "korean",
	"fr":    "french",
	"fr-FR": "french",
	"de":    "german",
	"es":    "spanish",
	"ru":    "russian",
}

// CanonicalName returns the comparison name for a locale code, trying the
// exact code first and then its base language. Unknown codes yield "".
func CanonicalName(code string) string {
	code = strings.TrimSpace(code)
	if name, ok := canonicalNames[code]; ok {
		return name
	}
	return canonicalNames[baseCode(code)]
}

func baseCode(code string) string {
	if tag, err := language.Parse(code); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			return base.String()
		}
	}
	if idx := strings.IndexAny(code, "-_"); idx >= 0 {
		return strings.ToLower(code[:idx])
	}
	return strings.ToLower(code)
}
