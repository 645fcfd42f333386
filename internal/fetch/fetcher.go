package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tartampluch/go-ddcheck/internal/config"
	"github.com/tartampluch/go-ddcheck/internal/outcome"
)

// Getter defines the contract for retrieving a remote document.
// This interface allows for mocking in tests and decoupling from the network layer.
type Getter interface {
	Get(ctx context.Context, targetURL string, query url.Values, header http.Header) (io.ReadCloser, error)
}

// HTTPFetcher implements Getter using the standard net/http library.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher creates a fetcher whose transport never goes through a proxy.
// Timeouts are applied per call through the request context.
func NewHTTPFetcher() *HTTPFetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	return &HTTPFetcher{
		Client: &http.Client{Transport: transport},
	}
}

// Get issues a GET request and returns the size-limited body of a 2xx response.
// Query parameters are merged into the URL. Errors are classified with outcome.Classify.
func (f *HTTPFetcher) Get(ctx context.Context, targetURL string, query url.Values, header http.Header) (io.ReadCloser, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}

	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	// Query parameters may carry user input; keep them out of the logs.
	safeURL := u.Scheme + "://" + u.Host + u.Path

	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompFetcher),
		slog.String(config.LogKeyURL, safeURL),
	)

	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRequest, err)
	}

	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)

	log.Debug(config.MsgFetchStart)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, outcome.Classify(fmt.Errorf("%s: %w", config.ErrNetwork, err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_ = resp.Body.Close()
		log.Warn(config.MsgFetchStatus,
			slog.Int(config.LogKeyStatus, resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: %s: %d %s", outcome.ErrTransport, config.ErrStatus, resp.StatusCode, resp.Status)
	}

	return &limitedReadCloser{
		Reader: io.LimitReader(resp.Body, config.MaxHTTPResponseSize),
		Closer: resp.Body,
	}, nil
}

// GetJSON fetches targetURL and decodes the body into v.
// Decoding failures are reported as outcome.ErrMalformed, deadline hits as outcome.ErrTimeout.
func GetJSON(ctx context.Context, g Getter, targetURL string, query url.Values, header http.Header, v any) error {
	rc, err := g.Get(ctx, targetURL, query, header)
	if err != nil {
		return outcome.Classify(err)
	}
	defer func() { _ = rc.Close() }()

	if err := json.NewDecoder(rc).Decode(v); err != nil {
		// A body cut short by the deadline is a timeout, not a malformed document.
		if ctx.Err() != nil {
			return outcome.Classify(fmt.Errorf("%s: %w", config.ErrDecode, ctx.Err()))
		}
		if outcome.IsTimeout(err) {
			return outcome.Classify(fmt.Errorf("%s: %w", config.ErrDecode, err))
		}
		return fmt.Errorf("%w: %s: %w", outcome.ErrMalformed, config.ErrDecode, err)
	}
	return nil
}

// limitedReadCloser wraps an io.Reader (Limited) and the original io.Closer.
// This ensures we can close the network connection properly while limiting the read size.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}

func (l *limitedReadCloser) Read(p []byte) (n int, err error) {
	return l.Reader.Read(p)
}

func (l *limitedReadCloser) Close() error {
	return l.Closer.Close()
}
