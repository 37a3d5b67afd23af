package view

import (
	"cmp"
	"html"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"

	"github.com/lysyi3m/feed-reader/app/feed"
)

const snippetLength = 120

var textPolicy = bluemonday.StrictPolicy()

// NewEntries converts parsed feed items into display entries, keeping order.
func NewEntries(items []feed.Item) []Entry {
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		link := safeLink(item.Link)
		entry := Entry{
			Title:       cmp.Or(plainTitle(item.Title), link),
			Link:        link,
			Snippet:     snippet(cmp.Or(item.Description, item.Content)),
			PublishedAt: item.PublishedAt,
		}
		if len(item.Authors) > 0 {
			entry.Author = normalize(item.Authors[0])
		}
		entries = append(entries, entry)
	}
	return entries
}

// safeLink drops links that are not absolute http(s) URLs, such as
// javascript: or data: links.
func safeLink(link string) string {
	link = strings.TrimSpace(link)
	if !feed.ValidURL(link, feed.DefaultSchemes) {
		return ""
	}
	return link
}

// plainTitle strips any markup a feed put into a title.
func plainTitle(title string) string {
	return normalize(html.UnescapeString(textPolicy.Sanitize(title)))
}

// snippet returns the visible text of an HTML fragment, cut to snippetLength
// runes on a word boundary.
func snippet(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		slog.Debug("Failed to parse entry HTML, using raw text", "error", err)
		return truncate(normalize(fragment), snippetLength)
	}
	doc.Find("script, style").Remove()

	return truncate(normalize(doc.Text()), snippetLength)
}

// normalize collapses whitespace and converts to NFC so equal text renders
// identically across loads.
func normalize(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)[:limit]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}
