package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/amishk599/jobsync/internal/model"
)

// Ensure RSSFetcher implements model.SourceFetcher.
var _ model.SourceFetcher = (*RSSFetcher)(nil)

// RSSFetcher reads one RSS or Atom feed and normalizes its entries into raw items.
type RSSFetcher struct {
	name   string
	url    string
	client *http.Client
	parser *gofeed.Parser
	now    func() time.Time
}

// NewRSSFetcher creates a fetcher for the feed at url. name identifies the
// source on every item it produces.
func NewRSSFetcher(name, url string, client *http.Client) *RSSFetcher {
	return &RSSFetcher{
		name:   name,
		url:    url,
		client: client,
		parser: gofeed.NewParser(),
		now:    time.Now,
	}
}

// Name returns the source identifier.
func (f *RSSFetcher) Name() string { return f.name }

// FetchItems downloads and parses the feed. Entries without a title are skipped.
func (f *RSSFetcher) FetchItems(ctx context.Context) ([]model.RawItem, error) {
	body, err := get(ctx, f.client, f.url, "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if err != nil {
		return nil, fmt.Errorf("rss fetch for %s: %w", f.name, err)
	}
	defer body.Close()

	feed, err := f.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("rss parse for %s: %w", f.name, err)
	}

	scrapedAt := f.now()
	items := make([]model.RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil || entry.Title == "" {
			continue
		}

		desc := entry.Description
		if desc == "" {
			desc = entry.Content
		}

		items = append(items, model.RawItem{
			Source:      f.name,
			Title:       collapseSpace(entry.Title),
			Link:        entry.Link,
			Description: extractText(desc),
			ScrapedAt:   scrapedAt,
			Kind:        model.KindRSS,
		})
	}

	return items, nil
}
