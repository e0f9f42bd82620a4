package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/jobsync/internal/model"
)

// Ensure ScrapeFetcher implements model.SourceFetcher.
var _ model.SourceFetcher = (*ScrapeFetcher)(nil)

// Selectors tells ScrapeFetcher where a site keeps its listings. Item selects
// one element per posting; the others are evaluated inside it. Link selects
// an element with an href (the title element itself when empty).
type Selectors struct {
	Item         string
	Title        string
	Link         string
	Description  string
	Organization string
	LastDate     string
}

// ScrapeFetcher extracts postings from one HTML listing page.
type ScrapeFetcher struct {
	name      string
	pageURL   string
	selectors Selectors
	client    *http.Client
	now       func() time.Time
}

// NewScrapeFetcher creates a fetcher for the listing page at pageURL.
func NewScrapeFetcher(name, pageURL string, selectors Selectors, client *http.Client) *ScrapeFetcher {
	return &ScrapeFetcher{
		name:      name,
		pageURL:   pageURL,
		selectors: selectors,
		client:    client,
		now:       time.Now,
	}
}

// Name returns the source identifier.
func (f *ScrapeFetcher) Name() string { return f.name }

// URL returns the listing page address.
func (f *ScrapeFetcher) URL() string { return f.pageURL }

// FetchItems downloads the listing page and extracts one raw item per
// matching element. Elements without a title are skipped.
func (f *ScrapeFetcher) FetchItems(ctx context.Context) ([]model.RawItem, error) {
	if f.selectors.Item == "" || f.selectors.Title == "" {
		return nil, fmt.Errorf("scrape %s: item and title selectors are required", f.name)
	}

	base, err := url.Parse(f.pageURL)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: parse page url: %w", f.name, err)
	}

	body, err := get(ctx, f.client, f.pageURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", f.name, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: parse html: %w", f.name, err)
	}

	scrapedAt := f.now()
	var items []model.RawItem
	doc.Find(f.selectors.Item).Each(func(_ int, sel *goquery.Selection) {
		titleSel := sel.Find(f.selectors.Title).First()
		title := collapseSpace(titleSel.Text())
		if title == "" {
			return
		}

		linkSel := titleSel
		if f.selectors.Link != "" {
			linkSel = sel.Find(f.selectors.Link).First()
		}
		href, _ := linkSel.Attr("href")

		item := model.RawItem{
			Source:    f.name,
			Title:     title,
			Link:      resolveLink(base, href),
			ScrapedAt: scrapedAt,
			Kind:      model.KindScrape,
		}
		if f.selectors.Description != "" {
			item.Description = collapseSpace(sel.Find(f.selectors.Description).Text())
		} else {
			item.Description = collapseSpace(sel.Text())
		}
		if f.selectors.Organization != "" {
			item.Organization = collapseSpace(sel.Find(f.selectors.Organization).First().Text())
		}
		if f.selectors.LastDate != "" {
			item.LastDate = collapseSpace(sel.Find(f.selectors.LastDate).First().Text())
		}
		items = append(items, item)
	})

	return items, nil
}

// resolveLink turns href into an absolute URL relative to base. An empty or
// unparseable href falls back to the page itself.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return base.String()
	}
	ref, err := url.Parse(href)
	if err != nil {
		return base.String()
	}
	return base.ResolveReference(ref).String()
}
