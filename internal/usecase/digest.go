package usecase

import (
	"fmt"
	"html"
	"strings"

	"ArticleAugmenter/internal/domain"
)

// BuildDigest formats the reports that produced a summary or translation as
// a Telegram HTML message. It returns "" when nothing was augmented.
func BuildDigest(reports []Report) string {
	var b strings.Builder
	for _, report := range reports {
		if report.Err != nil {
			continue
		}
		summary := report.Snapshot.Summary
		translated := len(report.Snapshot.Translation.Translations)
		if summary.Phase != domain.SummaryReady && translated == 0 {
			continue
		}

		fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(report.Article.Title))
		if summary.Phase == domain.SummaryReady {
			fmt.Fprintf(&b, "%s\n", html.EscapeString(strings.TrimSpace(summary.Text)))
		}
		if translated > 0 {
			fmt.Fprintf(&b, "Translated elements: %d\n", translated)
		}
		if report.Article.HasWebLink() {
			fmt.Fprintf(&b, "%s\n", html.EscapeString(report.Article.Link))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
