// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package quantaq_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/airpartners/ade/quantaq"
	"github.com/airpartners/ade/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Serves pages numbered from 1 until pages is reached.
func pagedServer(t *testing.T, pages int, calls *atomic.Int32) *httptest.Server {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			assert.Equal(t,
				string(quantaq.BasicToken("key")),
				r.Header.Get("Authorization"),
			)

			n, err := strconv.Atoi(r.URL.Query().Get("page"))
			if !assert.NoError(t, err) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			var page quantaq.Page
			page.Meta.Page = n
			page.Meta.PerPage = 1
			page.Data = telemetry.Graph{{
				"timestamp": fmt.Sprintf("2020-04-02T23:%02d:00", 59-n),
			}}
			if n < pages {
				page.Meta.NextURL = fmt.Sprintf(
					"%s%s?page=%d&per_page=1", srv.URL, r.URL.Path, n+1,
				)
			}
			_ = json.NewEncoder(w).Encode(page)
		},
	))
	t.Cleanup(srv.Close)
	return srv
}

func TestEndpoint(t *testing.T) {
	c := quantaq.NewClient(quantaq.WithBaseURL("https://example.com/devices/"))

	require.Equal(t,
		"https://example.com/devices/SN000-072/data/?page=1&per_page=100&limit=1400&sort=timestamp,desc",
		c.Endpoint("SN000-072", quantaq.Final, 1, 100, 1400, true),
	)
	require.Equal(t,
		"https://example.com/devices/SN000-072/data/raw/?page=2&per_page=10&limit=20",
		c.Endpoint("SN000-072", quantaq.Raw, 2, 10, 20, false),
	)
}

func TestBasicToken(t *testing.T) {
	// base64("test_fake_key:")
	require.Equal(t,
		quantaq.Token("Basic dGVzdF9mYWtlX2tleTo="),
		quantaq.BasicToken("test_fake_key"),
	)
}

func TestFileKey(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(file, []byte("test_fake_key\n"), 0o600))

	token, err := quantaq.FileKey(file)(ctx)
	require.NoError(t, err)
	require.Equal(t, quantaq.BasicToken("test_fake_key"), token)

	_, err = quantaq.FileKey(filepath.Join(t.TempDir(), "missing"))(ctx)
	require.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	ctx := context.Background()
	t.Setenv("ADE_TEST_KEY", "abc")

	token, err := quantaq.EnvKey("ADE_TEST_KEY")(ctx)
	require.NoError(t, err)
	require.Equal(t, quantaq.BasicToken("abc"), token)

	_, err = quantaq.EnvKey("ADE_TEST_KEY_UNSET")(ctx)
	require.Error(t, err)
}

func TestPagerFollowsCursor(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	srv := pagedServer(t, 3, &calls)
	c := quantaq.NewClient(quantaq.WithBaseURL(srv.URL))

	p := c.Pages(quantaq.BasicToken("key"), "SN1", quantaq.Final,
		quantaq.WithPerPage(1), quantaq.WithLimit(10))
	require.Equal(t, 10, p.Budget())
	require.Equal(t, int32(0), calls.Load())

	var stamps []string
	for p.More() {
		page, err := p.Next(ctx)
		require.NoError(t, err)
		stamps = append(stamps, page.Data[0].Timestamp())
	}

	require.Equal(t, []string{
		"2020-04-02T23:58:00",
		"2020-04-02T23:57:00",
		"2020-04-02T23:56:00",
	}, stamps)
	require.Equal(t, 3, p.Requests())

	_, err := p.Next(ctx)
	require.ErrorIs(t, err, quantaq.ErrNoMorePages)
	require.Equal(t, int32(3), calls.Load())
}

func TestPagerBudget(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	srv := pagedServer(t, 100, &calls)
	c := quantaq.NewClient(quantaq.WithBaseURL(srv.URL))

	p := c.Pages(quantaq.BasicToken("key"), "SN1", quantaq.Raw)
	require.Equal(t, 14, p.Budget())

	for p.More() {
		_, err := p.Next(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, 14, p.Requests())

	_, err := p.Next(ctx)
	require.ErrorIs(t, err, quantaq.ErrBudgetExhausted)
	require.Equal(t, int32(14), calls.Load())
}

func TestNewest(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	srv := pagedServer(t, 5, &calls)
	c := quantaq.NewClient(quantaq.WithBaseURL(srv.URL))

	p, err := c.Newest(ctx, quantaq.BasicToken("key"), "SN1", quantaq.Final)
	require.NoError(t, err)
	require.Equal(t, "2020-04-02T23:58:00", p.Timestamp())
	require.Equal(t, int32(1), calls.Load())
}

func TestUpstreamErrors(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("page") == "1" {
				http.Error(w, "nope", http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"data": [`))
		},
	))
	defer srv.Close()
	c := quantaq.NewClient(quantaq.WithBaseURL(srv.URL))

	_, err := c.Fetch(ctx, "", c.Endpoint("SN1", quantaq.Final, 1, 1, 1, false))
	require.ErrorIs(t, err, quantaq.ErrUpstream)
	var ue *quantaq.UpstreamError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, http.StatusUnauthorized, ue.StatusCode)
	require.Equal(t, "nope", ue.Message)

	_, err = c.Fetch(ctx, "", c.Endpoint("SN1", quantaq.Final, 2, 1, 1, false))
	require.ErrorIs(t, err, quantaq.ErrUpstream)
	require.ErrorAs(t, err, &ue)
	require.Zero(t, ue.StatusCode)
}

type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return http.DefaultTransport.RoundTrip(r)
}

func TestWithHTTPClient(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	srv := pagedServer(t, 2, &calls)

	tr := &countingTransport{}
	c := quantaq.NewClient(
		quantaq.WithBaseURL(srv.URL),
		quantaq.WithHTTPClient{Client: &http.Client{Transport: tr}},
	)

	_, err := c.Newest(ctx, quantaq.BasicToken("key"), "SN1", quantaq.Raw)
	require.NoError(t, err)
	require.Equal(t, int32(1), tr.calls.Load())
	require.Equal(t, int32(1), calls.Load())
}
