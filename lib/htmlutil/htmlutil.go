package htmlutil

import (
	"bytes"
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("caspfetch.lib.htmlutil")

// GetHrefs collects the href of every node in `sel` that has one, exactly as written in
// the markup. Hrefs that fail to parse as a url reference are dropped.
func GetHrefs(ctx context.Context, sel *goquery.Selection) []string {
	_, span := tracer.Start(ctx, "GetHrefs")
	defer span.End()

	hrefs := []string{}
	sel.Each(func(_ int, node *goquery.Selection) {
		href, found := node.Attr("href")
		if !found {
			return
		}

		_, err := url.Parse(href)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing url")
			return
		}

		hrefs = append(hrefs, href)
		span.AddEvent("href", trace.WithAttributes(attribute.String("href", href)))
	})

	return hrefs
}

// ParseDocument parses raw markup into a goquery document.
func ParseDocument(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}
