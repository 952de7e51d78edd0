package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"article-saver/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Export.RequestDelayMS = 0
	cfg.Backoff.MinMS = 1
	cfg.Backoff.MaxMS = 5
	return cfg
}

func TestBackoffCalculation(t *testing.T) {
	cfg := testConfig()
	cfg.Backoff = config.BackoffConfig{MinMS: 250, MaxMS: 2000, JitterPct: 20}

	fetcher := NewFetcher(cfg, nil)

	for attempt := 1; attempt <= 5; attempt++ {
		backoff := fetcher.calculateBackoff(attempt)
		assert.GreaterOrEqual(t, backoff, cfg.GetBackoffMin(), "attempt %d", attempt)
		assert.LessOrEqual(t, backoff, cfg.GetBackoffMax()*2, "attempt %d", attempt)
	}
}

func TestFetchDecodesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "gzip")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte("<p>压缩正文</p>"))
		_ = gz.Close()
	}))
	defer srv.Close()

	resp, err := NewFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<p>压缩正文</p>", string(resp.Body))
}

func TestFetchDecodesBrotli(t *testing.T) {
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	_, _ = bw.Write([]byte("<p>brotli 正文</p>"))
	require.NoError(t, bw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Encoding", "br")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	resp, err := NewFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<p>brotli 正文</p>", string(resp.Body))
}

func TestFetchTranscodesGBK(t *testing.T) {
	encoded, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("<html><body>机构编制</body></html>"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=gb2312")
		_, _ = w.Write(encoded)
	}))
	defer srv.Close()

	resp, err := NewFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, string(resp.Body), "机构编制")
}

func TestFetchDoesNotRetryUndecodableBody(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write([]byte("not gzip at all"))
	}))
	defer srv.Close()

	_, err := NewFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
	assert.False(t, IsTimeout(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := NewFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchReturnsClientErrorStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	resp, err := NewFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.HTTP.TotalTimeoutMS = 50

	_, err := NewFetcher(cfg, nil).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestFetchRespectsRobots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.HTTP.RespectRobotsTxt = true
	f := NewFetcher(cfg, nil)

	_, err := f.Fetch(context.Background(), srv.URL+"/private/a.html")
	assert.ErrorIs(t, err, ErrDisallowed)

	resp, err := f.Fetch(context.Background(), srv.URL+"/public/a.html")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
}

func TestFetchRejectsBadScheme(t *testing.T) {
	_, err := NewFetcher(testConfig(), nil).Fetch(context.Background(), "ftp://example.com/x")
	assert.Error(t, err)
}

func TestParseRobots(t *testing.T) {
	robots := `
# comment
User-agent: Googlebot
Disallow: /

User-agent: *
Disallow: /search
Allow: /search/public
Disallow:
`
	rules := parseRobots(strings.NewReader(robots))

	assert.True(t, allowedByRules(rules, "/xwzx/a.html"))
	assert.False(t, allowedByRules(rules, "/search?q=1"))
	assert.True(t, allowedByRules(rules, "/search/public/x"))
}

func TestPacerSpacesRequests(t *testing.T) {
	p := NewPacer(40 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(ctx, "example.com"))
	}
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)

	start = time.Now()
	require.NoError(t, p.Wait(ctx, "other.example"))
	assert.Less(t, time.Since(start), 40*time.Millisecond)
}

func TestPacerHonoursContext(t *testing.T) {
	p := NewPacer(time.Hour)
	require.NoError(t, p.Wait(context.Background(), "h"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx, "h"), context.Canceled)
}
