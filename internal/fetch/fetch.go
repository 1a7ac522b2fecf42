// Package fetch downloads feeds and web pages the way a desktop browser
// would, since some podcast hosts refuse obvious bots.
package fetch

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tcerrs "github.com/jdholdren/tagcast/internal/errors"
)

const (
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

	// Larger responses are rejected, after decompression.
	maxBodySize = 64 << 20
)

// Fetcher is anything that can turn a URL into bytes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Client is a [Fetcher] over HTTP.
type Client struct {
	http    *http.Client
	maxBody int64
}

// NewClient returns a client whose requests give up after timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		maxBody: maxBodySize,
	}
}

// Fetch GETs url, following redirects, and returns the decoded body.
// Failures are of kind [tcerrs.FetchFailed].
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, tcerrs.E(tcerrs.FetchFailed, fmt.Errorf("error building request: %w", err))
	}
	req.Header.Set("User-Agent", UserAgent)
	// An explicit Accept-Encoding turns off the transport's transparent
	// gzip, see decode.
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Ch-Ua", `"Not/A)Brand";v="99", "Brave";v="115", "Chromium";v="115"`)
	req.Header.Set("Sec-Ch-Ua-Mobile", "?0")
	req.Header.Set("Sec-Ch-Ua-Platform", `"macOS"`)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, tcerrs.E(tcerrs.FetchFailed, fmt.Errorf("error getting %s: %w", url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, tcerrs.E(tcerrs.FetchFailed, fmt.Errorf("unexpected status code from %s: %d", url, resp.StatusCode))
	}

	body, err := decode(resp)
	if err != nil {
		return nil, tcerrs.E(tcerrs.FetchFailed, fmt.Errorf("error decoding body of %s: %w", url, err))
	}
	defer body.Close()

	b, err := io.ReadAll(io.LimitReader(body, c.maxBody+1))
	if err != nil {
		return nil, tcerrs.E(tcerrs.FetchFailed, fmt.Errorf("error reading body of %s: %w", url, err))
	}
	if int64(len(b)) > c.maxBody {
		return nil, tcerrs.E(tcerrs.FetchFailed, fmt.Errorf("body of %s exceeds %d bytes", url, c.maxBody))
	}

	return b, nil
}

// decode unwraps the content encoding the server chose.
func decode(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip", "x-gzip":
		return gzip.NewReader(resp.Body)
	case "deflate":
		// Servers disagree on whether deflate means zlib framed or raw.
		br := bufio.NewReader(resp.Body)
		header, err := br.Peek(2)
		if err == nil && isZlibHeader(header) {
			return zlib.NewReader(br)
		}
		return flate.NewReader(br), nil
	default:
		return io.NopCloser(resp.Body), nil
	}
}

func isZlibHeader(h []byte) bool {
	return h[0]&0x0f == 8 && (uint16(h[0])<<8|uint16(h[1]))%31 == 0
}
