// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package quantaq is a client for the QuantAQ device API. Pages of device
// data are exposed through Pager so that callers drive pagination directly
// under an explicit request budget.
package quantaq

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/airpartners/ade/internal/log"
	"github.com/airpartners/ade/internal/metrics"
	"github.com/airpartners/ade/telemetry"
)

// DefaultBaseURL is the device API root.
const DefaultBaseURL = "https://quant-aq.com/device-api/v1/devices"

type (
	// Client performs device API requests.
	Client struct {
		baseURL string
		http    *http.Client
		log     log.Logger
	}

	// ClientOption represents a single option for the client.
	ClientOption interface{ client(*ClientOptions) }

	// ClientOptions are the resolved options for the client.
	ClientOptions struct {
		BaseURL    string
		HTTPClient *http.Client
		Timeout    time.Duration
		Logger     *slog.Logger
	}

	// Page is a single page of device data.
	Page struct {
		Data telemetry.Graph `json:"data"`
		Meta Meta            `json:"meta"`
	}

	// Meta is the pagination envelope of a page.
	Meta struct {
		NextURL  string `json:"next_url"`
		PrevURL  string `json:"prev_url"`
		Page     int    `json:"page"`
		Pages    int    `json:"pages"`
		PerPage  int    `json:"per_page"`
		Total    int    `json:"total"`
		FirstURL string `json:"first_url"`
		LastURL  string `json:"last_url"`
	}

	// WithBaseURL overrides the device API root.
	WithBaseURL string

	// WithHTTPClient sets the HTTP client used for requests.
	WithHTTPClient struct{ *http.Client }

	// WithTimeout bounds each request.
	WithTimeout time.Duration

	// This option is not used directly; see WithLogger below.
	withLogger struct{ *slog.Logger }
)

const maxErrorBody = 512

// NewClient creates a new device API client.
func NewClient(opt ...ClientOption) *Client {
	var opts ClientOptions
	opts.Apply(opt)

	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		http:    hc,
		log:     log.Wrap(opts.Logger),
	}
}

// Fetch requests a single page from the given endpoint.
func (c *Client) Fetch(
	ctx context.Context,
	token Token,
	endpoint string,
) (page *Page, err error) {
	defer func() {
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
		}
		metrics.UpstreamRequests.WithLabelValues(outcome).Inc()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &UpstreamError{URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", string(token))

	c.log.Debug(ctx, "fetching device data", slog.String("url", endpoint))

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{URL: endpoint, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &UpstreamError{
			URL:        endpoint,
			StatusCode: res.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	page = &Page{}
	if err := json.NewDecoder(res.Body).Decode(page); err != nil {
		return nil, &UpstreamError{
			URL:     endpoint,
			Message: "malformed payload",
			Err:     err,
		}
	}
	return page, nil
}

// Apply resolves the provided list of options.
func (o *ClientOptions) Apply(opts []ClientOption, rest ...ClientOption) {
	for _, opt := range opts {
		if opt != nil {
			opt.client(o)
		}
	}
	for _, opt := range rest {
		if opt != nil {
			opt.client(o)
		}
	}
}

func (o *ClientOptions) client(opt *ClientOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithBaseURL) client(opt *ClientOptions) {
	opt.BaseURL = string(o)
}

func (o WithHTTPClient) client(opt *ClientOptions) {
	opt.HTTPClient = o.Client
}

func (o WithTimeout) client(opt *ClientOptions) {
	opt.Timeout = time.Duration(o)
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return withLogger{logger}
}

func (o withLogger) client(opt *ClientOptions) {
	opt.Logger = o.Logger
}
