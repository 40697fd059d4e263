// Package predictioncenter scrapes the CASP prediction center website: its Apache
// directory indexes, per-target sequence endpoint and target lists.
package predictioncenter

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"caspfetch/internal/assert"
	"caspfetch/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

const DefaultBaseUrl = "https://predictioncenter.org/"

const (
	report_client_list_index               = "client.list-index"
	report_client_download                 = "client.download"
	report_client_fetch_sequence           = "client.fetch-sequence"
	report_client_fetch_target_list        = "client.fetch-target-list"
	report_client_fetch_ligand_target_list = "client.fetch-ligand-target-list"
)

var tracer = otel.Tracer("caspfetch.internal.scrapers.predictioncenter")

// Timeouts bound each category of request, a zero value means no timeout.
type Timeouts struct {
	Listing          time.Duration
	Sequence         time.Duration
	LigandTargetList time.Duration
	TargetList       time.Duration
	// Download bounds the wait for response headers, the body is streamed without a deadline.
	Download time.Duration
}

type ClientOptions struct {
	BaseUrl   string
	UserAgent string
	Timeouts  Timeouts
	Telemetry telemetry.API
	// Output receives request/response dumps, it can be nil.
	Output telemetry.MessageOutput
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Url        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.Url, e.Status)
}

type Client struct {
	baseUrl  *url.URL
	http     *resty.Client
	timeouts Timeouts
	tel      telemetry.API
}

func NewClient(opts ClientOptions) (*Client, error) {
	assert.NotNil(opts.Telemetry, "client telemetry")
	assert.NotEmptyStr(opts.BaseUrl, "client base url")

	tel := telemetry.NewScopedAPI("predictioncenter", opts.Telemetry)

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	httpClient := resty.New()
	if opts.UserAgent != "" {
		httpClient.SetHeader("user-agent", opts.UserAgent)
	}
	httpClient.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	telemetry.InstrumentResty(httpClient, tel, opts.Output)

	return &Client{
		baseUrl:  baseUrl,
		http:     httpClient,
		timeouts: opts.Timeouts,
		tel:      tel,
	}, nil
}

// Resolve resolves each reference in turn against the previous one, starting from the
// base url. ex. Resolve("download_area/CASP16/results/ligands/", "L1000.csv")
func (c *Client) Resolve(refs ...string) (string, error) {
	current := c.baseUrl
	for _, ref := range refs {
		parsed, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", ref, err)
		}
		current = current.ResolveReference(parsed)
	}
	return current.String(), nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// getText performs a GET request for a small text resource and returns its body.
func (c *Client) getText(ctx context.Context, link string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	res, err := c.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", link, err)
	}
	if res.IsError() {
		return nil, &StatusError{
			Url:        link,
			StatusCode: res.StatusCode(),
			Status:     res.Status(),
		}
	}
	return res.Body(), nil
}
