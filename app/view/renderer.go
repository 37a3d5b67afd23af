package view

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"time"

	"github.com/lysyi3m/feed-reader/app/feed"
)

const defaultHeaderTitle = "Feeds"

// Renderer writes the reader page. The class names are the page's public
// contract: body.menu-hidden, .menu-icon-link, .header-title, .feed-list,
// .feed, .entry-link and .entry.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Run(snapshot Snapshot, menuHidden bool, feeds []feed.Feed) string {
	var buf bytes.Buffer

	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	buf.WriteString("  <meta charset=\"utf-8\">\n")
	r.writeElement(&buf, "title", r.pageTitle(snapshot), 2)
	buf.WriteString("</head>\n")

	if menuHidden {
		buf.WriteString("<body class=\"menu-hidden\">\n")
	} else {
		buf.WriteString("<body>\n")
	}

	buf.WriteString("  <div class=\"header\">\n")
	buf.WriteString("    <form class=\"menu-toggle\" method=\"post\" action=\"/menu/toggle\">")
	buf.WriteString("<button class=\"menu-icon-link\" type=\"submit\">&#9776;</button></form>\n")
	r.writeClassElement(&buf, "h1", "header-title", r.headerTitle(snapshot), 4)
	buf.WriteString("  </div>\n")

	buf.WriteString("  <div class=\"slide-menu\">\n    <ul class=\"feed-list\">\n")
	for i, f := range feeds {
		fmt.Fprintf(&buf, "      <li><form method=\"post\" action=\"/feeds/%d/load\"><button data-id=\"%d\" type=\"submit\">", i, i)
		xml.EscapeText(&buf, []byte(f.Name))
		buf.WriteString("</button></form></li>\n")
	}
	buf.WriteString("    </ul>\n  </div>\n")

	fmt.Fprintf(&buf, "  <div class=\"feed\" data-state=\"%s\" data-index=\"%d\">\n",
		html.EscapeString(string(snapshot.Phase)), snapshot.Index)
	for _, entry := range snapshot.Entries {
		r.writeEntry(&buf, entry)
	}
	buf.WriteString("  </div>\n")

	buf.WriteString("</body>\n</html>\n")

	return buf.String()
}

func (r *Renderer) writeEntry(buf *bytes.Buffer, entry Entry) {
	if link := safeLink(entry.Link); link != "" {
		fmt.Fprintf(buf, "    <a class=\"entry-link\" href=\"%s\">\n", html.EscapeString(link))
	} else {
		buf.WriteString("    <a class=\"entry-link\">\n")
	}
	buf.WriteString("      <article class=\"entry\">\n")
	r.writeElement(buf, "h2", entry.Title, 8)
	r.writeElement(buf, "p", entry.Snippet, 8)
	if !entry.PublishedAt.IsZero() {
		fmt.Fprintf(buf, "        <time datetime=\"%s\">", entry.PublishedAt.Format(time.RFC3339))
		xml.EscapeText(buf, []byte(entry.PublishedAt.Format("Jan 2, 2006")))
		buf.WriteString("</time>\n")
	}
	buf.WriteString("      </article>\n")
	buf.WriteString("    </a>\n")
}

func (r *Renderer) pageTitle(snapshot Snapshot) string {
	if snapshot.Title == "" {
		return "Feed Reader"
	}
	return snapshot.Title + " - Feed Reader"
}

func (r *Renderer) headerTitle(snapshot Snapshot) string {
	if snapshot.Title == "" {
		return defaultHeaderTitle
	}
	return snapshot.Title
}

func (r *Renderer) writeClassElement(buf *bytes.Buffer, tag, class, content string, indent int) {
	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	fmt.Fprintf(buf, "<%s class=\"%s\">", tag, html.EscapeString(class))
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (r *Renderer) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
