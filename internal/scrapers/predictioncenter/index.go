package predictioncenter

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"caspfetch/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// isNavigationLink reports hrefs that point back at the listing itself: parent and
// self directories, column sort queries and fragments.
func isNavigationLink(href string) bool {
	switch href {
	case "", "../", "./", "..", ".":
		return true
	}
	return strings.HasPrefix(href, "?") || strings.HasPrefix(href, "#")
}

// ParseIndex extracts link targets from an Apache-style directory listing.
// The result is sorted and deduplicated, navigation links are dropped. Matching is
// purely syntactic so any other link on the page is kept.
func ParseIndex(ctx context.Context, doc *goquery.Document) []string {
	var entries []string
	for _, href := range htmlutil.GetHrefs(ctx, doc.Find("[href]")) {
		if isNavigationLink(href) {
			continue
		}
		entries = append(entries, href)
	}
	slices.Sort(entries)
	return slices.Compact(entries)
}

// ListIndex fetches the directory listing at `dir` (resolved against the base url)
// and returns its entries as given by ParseIndex.
func (c *Client) ListIndex(ctx context.Context, dir string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "client:ListIndex")
	defer span.End()

	link, err := c.Resolve(dir)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("url", link))

	body, err := c.getText(ctx, link, c.timeouts.Listing)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch index")
		c.tel.ReportBroken(report_client_list_index, fmt.Errorf("fetch: %w", err), link)
		return nil, fmt.Errorf("list index %s: %w", link, err)
	}

	doc, err := htmlutil.ParseDocument(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse index html")
		c.tel.ReportBroken(report_client_list_index, fmt.Errorf("parse html: %w", err), link)
		return nil, fmt.Errorf("list index %s: %w", link, err)
	}

	entries := ParseIndex(ctx, doc)
	c.tel.ReportDebug("listed index", link, len(entries))
	return entries, nil
}
