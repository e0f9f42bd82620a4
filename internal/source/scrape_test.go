package source

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/amishk599/jobsync/internal/model"
)

const listingPage = `<!DOCTYPE html>
<html><body>
<ul class="jobs">
	<li class="job">
		<a class="title" href="/posts/ibps-po">IBPS PO 2024</a>
		<span class="org">Institute of Banking Personnel Selection</span>
		<span class="last">2024-08-21</span>
		<p class="summary">Probationary Officers, 4455 posts.</p>
	</li>
	<li class="job">
		<a class="title" href="https://other.example.org/upsc">UPSC  Civil Services</a>
		<p class="summary">Prelims notice.</p>
	</li>
	<li class="job">
		<a class="title" href="/empty"></a>
	</li>
</ul>
</body></html>`

func TestScrapeFetcher_FetchItems(t *testing.T) {
	srv := serveBody(t, http.StatusOK, "text/html", listingPage)

	f := NewScrapeFetcher("govt-portal", srv.URL+"/listing", Selectors{
		Item:         "li.job",
		Title:        "a.title",
		Description:  "p.summary",
		Organization: "span.org",
		LastDate:     "span.last",
	}, srv.Client())

	items, err := f.FetchItems(context.Background())
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2 (empty title skipped)", len(items))
	}

	first := items[0]
	if first.Title != "IBPS PO 2024" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Link != srv.URL+"/posts/ibps-po" {
		t.Errorf("Link = %q, want resolved against page", first.Link)
	}
	if first.Organization != "Institute of Banking Personnel Selection" {
		t.Errorf("Organization = %q", first.Organization)
	}
	if first.LastDate != "2024-08-21" {
		t.Errorf("LastDate = %q", first.LastDate)
	}
	if first.Description != "Probationary Officers, 4455 posts." {
		t.Errorf("Description = %q", first.Description)
	}
	if first.Kind != model.KindScrape {
		t.Errorf("Kind = %q, want scrape", first.Kind)
	}

	second := items[1]
	if second.Title != "UPSC Civil Services" {
		t.Errorf("Title = %q", second.Title)
	}
	if second.Link != "https://other.example.org/upsc" {
		t.Errorf("Link = %q, want absolute href kept", second.Link)
	}
	if second.Organization != "" {
		t.Errorf("Organization = %q, want empty when element missing", second.Organization)
	}
}

func TestScrapeFetcher_RequiresSelectors(t *testing.T) {
	f := NewScrapeFetcher("bad", "https://example.com", Selectors{}, http.DefaultClient)
	if _, err := f.FetchItems(context.Background()); err == nil {
		t.Fatal("expected error when selectors are missing")
	}
}

func TestScrapeFetcher_HTTPError(t *testing.T) {
	srv := serveBody(t, http.StatusServiceUnavailable, "text/html", "down")

	f := NewScrapeFetcher("down", srv.URL, Selectors{Item: "li", Title: "a"}, srv.Client())
	if _, err := f.FetchItems(context.Background()); err == nil {
		t.Fatal("expected error on HTTP 503")
	}
}

func TestResolveLink(t *testing.T) {
	base, _ := url.Parse("https://jobs.example.com/list/index.html")
	tests := map[string]string{
		"":                         "https://jobs.example.com/list/index.html",
		"detail/1":                 "https://jobs.example.com/list/detail/1",
		"/abs":                     "https://jobs.example.com/abs",
		"https://x.example.org/a?b": "https://x.example.org/a?b",
	}
	for href, want := range tests {
		if got := resolveLink(base, href); got != want {
			t.Errorf("resolveLink(%q) = %q, want %q", href, got, want)
		}
	}
}
