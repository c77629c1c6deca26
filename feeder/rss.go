package feeder

import (
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"news-pulse/models"
)

// RSSAdapter reads RSS, Atom and RSS-like XML feeds.
type RSSAdapter struct {
	fetcher
}

func (a *RSSAdapter) Fetch(ctx context.Context) ([]models.RawItem, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	body, contentType, err := a.get(ctx, a.source.Endpoint)
	if err != nil {
		return nil, err
	}

	fp := gofeed.NewParser()
	feed, err := fp.Parse(toUTF8(cleanControlCharacters(body), contentType))
	if err != nil {
		return nil, a.unavailable("parse feed: %v", err)
	}

	c := a.newCollector(a.source.Endpoint)
	for _, item := range feed.Items {
		if c.full() {
			break
		}
		if item == nil {
			continue
		}
		c.add(rssCandidate(item))
	}
	return c.result(), nil
}

func rssCandidate(item *gofeed.Item) candidate {
	desc := item.Description
	if strings.TrimSpace(desc) == "" {
		desc = item.Content
	}

	link := item.Link
	if link == "" && len(item.Links) > 0 {
		link = item.Links[0]
	}
	if link == "" && strings.HasPrefix(item.GUID, "http") {
		link = item.GUID
	}

	var published time.Time
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	return candidate{
		Title:       item.Title,
		Description: desc,
		Link:        link,
		ImageURL:    rssImage(item),
		PublishedAt: published,
		Author:      rssAuthor(item),
	}
}

// rssImage looks at the item image, media extensions, image enclosures and
// finally the first <img> of the description or content.
func rssImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	if media, ok := item.Extensions["media"]; ok {
		for _, key := range []string{"content", "thumbnail"} {
			for _, e := range media[key] {
				if u := e.Attrs["url"]; u != "" {
					if medium := e.Attrs["medium"]; medium == "" || medium == "image" {
						return u
					}
				}
			}
		}
	}
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	if img := FirstImage(item.Description); img != "" {
		return img
	}
	return FirstImage(item.Content)
}

func rssAuthor(item *gofeed.Item) string {
	for _, p := range item.Authors {
		if p != nil && strings.TrimSpace(p.Name) != "" {
			return p.Name
		}
	}
	if item.Author != nil {
		return item.Author.Name
	}
	return ""
}
