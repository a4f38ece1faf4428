package services

import (
	"bytes"
	"context"
	"encoding/xml"
	"time"

	"github.com/cppla/tripjournal/models"
)

// FeedSize is how many posts the RSS feed carries.
const FeedSize = 50

// SiteInfo describes the public site in machine-readable feeds.
type SiteInfo struct {
	URL         string
	Title       string
	Description string
}

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	AtomNS  string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Description   string    `xml:"description"`
	Link          string    `xml:"link"`
	AtomLink      atomLink  `xml:"atom:link"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Description string        `xml:"description"`
	Link        string        `xml:"link"`
	GUID        rssGUID       `xml:"guid"`
	PubDate     string        `xml:"pubDate"`
	Category    string        `xml:"category,omitempty"`
	Enclosure   *rssEnclosure `xml:"enclosure"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int    `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type sitemapDoc struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// FeedBuilder renders the RSS feed and the sitemap. All text goes through
// encoding/xml, so user content is always escaped.
type FeedBuilder struct {
	posts *PostService
	media *MediaURLs
	site  SiteInfo
}

// NewFeedBuilder creates a FeedBuilder.
func NewFeedBuilder(posts *PostService, media *MediaURLs, site SiteInfo) *FeedBuilder {
	return &FeedBuilder{posts: posts, media: media, site: site}
}

// RSS renders the latest published posts as an RSS 2.0 document.
func (f *FeedBuilder) RSS(ctx context.Context) ([]byte, error) {
	posts, err := f.posts.ListPublished(ctx, FeedSize)
	if err != nil {
		return nil, err
	}
	doc := rssDoc{
		Version: "2.0",
		AtomNS:  "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:       f.site.Title,
			Description: f.site.Description,
			Link:        f.site.URL,
			AtomLink:    atomLink{Href: f.site.URL + "/rss.xml", Rel: "self", Type: "application/rss+xml"},
			Language:    "en",
		},
	}
	if len(posts) > 0 {
		doc.Channel.LastBuildDate = posts[0].UpdatedAt.UTC().Format(time.RFC1123Z)
	}
	for i := range posts {
		doc.Channel.Items = append(doc.Channel.Items, f.rssItem(&posts[i]))
	}
	return encodeXML(doc)
}

func (f *FeedBuilder) rssItem(post *models.Post) rssItem {
	published := post.TakenAt
	if published.IsZero() {
		published = post.CreatedAt
	}
	item := rssItem{
		Title:       post.DisplayTitle(),
		Description: post.Caption,
		Link:        f.site.URL + "/post/" + post.Slug,
		GUID:        rssGUID{Value: post.ID},
		PubDate:     published.UTC().Format(time.RFC1123Z),
		Category:    post.City,
	}
	if thumb := f.media.Thumbnail(post, ImageOptions{Width: thumbnailSize, Format: "jpg"}); thumb != "" {
		item.Enclosure = &rssEnclosure{URL: thumb, Type: "image/jpeg"}
	}
	return item
}

// Sitemap lists the static pages and every published post.
func (f *FeedBuilder) Sitemap(ctx context.Context) ([]byte, error) {
	posts, err := f.posts.ListPublishedByUpdatedAt(ctx)
	if err != nil {
		return nil, err
	}
	doc := sitemapDoc{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: f.site.URL, ChangeFreq: "daily", Priority: "1.0"},
			{Loc: f.site.URL + "/timeline", ChangeFreq: "daily", Priority: "0.8"},
			{Loc: f.site.URL + "/map", ChangeFreq: "daily", Priority: "0.8"},
		},
	}
	for _, post := range posts {
		doc.URLs = append(doc.URLs, sitemapURL{
			Loc:        f.site.URL + "/post/" + post.Slug,
			LastMod:    post.UpdatedAt.UTC().Format(time.RFC3339),
			ChangeFreq: "monthly",
			Priority:   "0.6",
		})
	}
	return encodeXML(doc)
}

func encodeXML(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
