// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package graph_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/airpartners/ade/quantaq"
	"github.com/airpartners/ade/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const layout = "2006-01-02T15:04:05"

// Fake device API serving a final and a raw feed for every device, newest
// first, in pages following the page and per_page query parameters.
type fakeAPI struct {
	Final telemetry.Graph
	Raw   telemetry.Graph

	// FinalStatus and RawStatus, if set, fail every request to their feed.
	FinalStatus int
	RawStatus   int

	mu       sync.Mutex
	requests map[quantaq.Feed]int
}

func newFakeAPI(t *testing.T, api *fakeAPI) *quantaq.Client {
	api.requests = map[quantaq.Feed]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(
		w http.ResponseWriter,
		r *http.Request,
	) {
		feed, data := quantaq.Final, api.Final
		if strings.HasSuffix(r.URL.Path, "/data/raw/") {
			feed, data = quantaq.Raw, api.Raw
			assert.Empty(t, r.URL.Query().Get("sort"))
		} else {
			assert.Equal(t, "timestamp,desc", r.URL.Query().Get("sort"))
		}

		api.mu.Lock()
		api.requests[feed]++
		api.mu.Unlock()

		if feed == quantaq.Final && api.FinalStatus != 0 {
			w.WriteHeader(api.FinalStatus)
			return
		}
		if feed == quantaq.Raw && api.RawStatus != 0 {
			w.WriteHeader(api.RawStatus)
			return
		}

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		start := min((page-1)*perPage, len(data))
		end := min(start+perPage, len(data))

		res := quantaq.Page{Data: data[start:end]}
		res.Meta.Page = page
		res.Meta.PerPage = perPage
		if end < len(data) {
			q := r.URL.Query()
			q.Set("page", strconv.Itoa(page+1))
			res.Meta.NextURL = "http://" + r.Host + r.URL.Path + "?" + q.Encode()
		}
		assert.NoError(t, json.NewEncoder(w).Encode(res))
	}))
	t.Cleanup(srv.Close)

	return quantaq.NewClient(quantaq.WithBaseURL(srv.URL))
}

func (api *fakeAPI) Requests(feed quantaq.Feed) int {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.requests[feed]
}

func ts(t *testing.T, s string) time.Time {
	v, err := time.Parse(layout, s)
	require.NoError(t, err)
	return v
}

// Series builds n points newest first, step apart, starting at newest.
func series(
	t *testing.T,
	newest string,
	step time.Duration,
	n int,
	point func(ts string) telemetry.DataPoint,
) telemetry.Graph {
	start := ts(t, newest)
	g := make(telemetry.Graph, 0, n)
	for i := range n {
		g = append(g, point(start.Add(-time.Duration(i)*step).Format(layout)))
	}
	return g
}

func finalPoint(ts string) telemetry.DataPoint {
	return telemetry.DataPoint{
		"timestamp": ts,
		"co":        -1.5,
		"pm25":      3.0,
		"co2":       400.0,
	}
}

func rawPoint(ts string) telemetry.DataPoint {
	p := telemetry.DataPoint{"timestamp": ts}
	for _, field := range telemetry.RawFields {
		p[field] = 1.0
	}
	return p
}

func timestamps(g telemetry.Graph) []string {
	res := make([]string, 0, len(g))
	for _, p := range g {
		res = append(res, p.Timestamp())
	}
	return res
}
