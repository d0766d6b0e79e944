// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package quantaq

import (
	"context"
	"net/url"
	"strconv"

	"github.com/airpartners/ade/telemetry"
)

// Feed selects the final or raw device data feed.
type Feed int

const (
	// Final is the aggregated measurement feed.
	Final Feed = iota

	// Raw is the high-resolution measurement feed.
	Raw
)

// Defaults used for backfill searches: 1400 records in pages of 100, i.e. a
// budget of 14 requests.
const (
	DefaultPerPage = 100
	DefaultLimit   = 1400
)

type (
	// Pager walks the pages of one device feed under a request budget. The
	// first request goes to the endpoint built by Client.Endpoint and later
	// requests follow the next page cursor returned by the API.
	Pager struct {
		client   *Client
		token    Token
		next     string
		budget   int
		requests int
	}

	// PageOption represents a single option for Client.Pages.
	PageOption interface{ pages(*PageOptions) }

	// PageOptions are the resolved options for Client.Pages.
	PageOptions struct {
		PerPage    int
		Limit      int
		Descending bool
	}

	// WithPerPage sets the number of records per page.
	WithPerPage int

	// WithLimit sets the total number of records the search may cover. The
	// request budget is Limit/PerPage, and at least one request.
	WithLimit int

	// WithDescending requests records sorted newest first by timestamp.
	WithDescending bool
)

func (f Feed) String() string {
	if f == Raw {
		return "raw"
	}
	return "final"
}

// Endpoint builds the URL of one page of a device feed.
func (c *Client) Endpoint(
	sn string,
	feed Feed,
	page int,
	perPage int,
	limit int,
	descending bool,
) string {
	path := c.baseURL + "/" + url.PathEscape(sn) + "/data/"
	if feed == Raw {
		path += "raw/"
	}
	query := "?page=" + strconv.Itoa(page) +
		"&per_page=" + strconv.Itoa(perPage) +
		"&limit=" + strconv.Itoa(limit)
	if descending {
		query += "&sort=timestamp,desc"
	}
	return path + query
}

// Pages starts a paginated search over a device feed. No request is made
// until Next is called.
func (c *Client) Pages(
	token Token,
	sn string,
	feed Feed,
	opt ...PageOption,
) *Pager {
	opts := PageOptions{PerPage: DefaultPerPage, Limit: DefaultLimit}
	opts.Apply(opt)

	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.Limit < opts.PerPage {
		opts.Limit = opts.PerPage
	}

	return &Pager{
		client: c,
		token:  token,
		next: c.Endpoint(
			sn,
			feed,
			1,
			opts.PerPage,
			opts.Limit,
			opts.Descending,
		),
		budget: opts.Limit / opts.PerPage,
	}
}

// More reports whether Next may issue another request.
func (p *Pager) More() bool {
	return p.next != "" && p.requests < p.budget
}

// Next fetches the next page. Once the budget is spent it returns
// ErrBudgetExhausted, and once the API has no further pages it returns
// ErrNoMorePages; neither consumes a request.
func (p *Pager) Next(ctx context.Context) (*Page, error) {
	switch {
	case p.requests >= p.budget:
		return nil, ErrBudgetExhausted
	case p.next == "":
		return nil, ErrNoMorePages
	}

	endpoint := p.next
	p.requests++
	page, err := p.client.Fetch(ctx, p.token, endpoint)
	if err != nil {
		return nil, err
	}
	p.next = page.Meta.NextURL
	return page, nil
}

// Requests returns the number of requests issued so far.
func (p *Pager) Requests() int {
	return p.requests
}

// Budget returns the total number of requests the pager may issue.
func (p *Pager) Budget() int {
	return p.budget
}

// Newest returns the most recent record of a feed, or nil if the feed is
// empty.
func (c *Client) Newest(
	ctx context.Context,
	token Token,
	sn string,
	feed Feed,
) (telemetry.DataPoint, error) {
	page, err := c.Pages(token, sn, feed, WithPerPage(1), WithLimit(1)).Next(ctx)
	if err != nil {
		return nil, err
	}
	if len(page.Data) == 0 {
		return nil, nil
	}
	return page.Data[0], nil
}

// Apply resolves the provided list of options.
func (o *PageOptions) Apply(opts []PageOption, rest ...PageOption) {
	for _, opt := range opts {
		if opt != nil {
			opt.pages(o)
		}
	}
	for _, opt := range rest {
		if opt != nil {
			opt.pages(o)
		}
	}
}

func (o *PageOptions) pages(opt *PageOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithPerPage) pages(opt *PageOptions) {
	opt.PerPage = int(o)
}

func (o WithLimit) pages(opt *PageOptions) {
	opt.Limit = int(o)
}

func (o WithDescending) pages(opt *PageOptions) {
	opt.Descending = bool(o)
}
