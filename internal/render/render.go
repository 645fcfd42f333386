// Package render hands report payloads to the external HTML-to-image service.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tartampluch/go-ddcheck/internal/config"
	"github.com/tartampluch/go-ddcheck/internal/fetch"
)

// Image is a rendered picture and its MIME type.
type Image struct {
	Data        []byte
	ContentType string
}

// Renderer turns a template and its data into an image.
type Renderer interface {
	Render(ctx context.Context, template string, data any) (Image, error)
}

// HTTPRenderer posts {"template": ..., "data": ...} to a render service.
type HTTPRenderer struct {
	Client  *http.Client
	URL     string
	Timeout time.Duration
}

// NewHTTPRenderer creates a renderer for the service at endpoint.
func NewHTTPRenderer(endpoint string) *HTTPRenderer {
	return &HTTPRenderer{
		Client:  fetch.NewHTTPFetcher().Client,
		URL:     endpoint,
		Timeout: config.RenderTimeout,
	}
}

type renderRequest struct {
	Template string `json:"template"`
	Data     any    `json:"data"`
}

// Render sends the payload and returns the image body.
func (r *HTTPRenderer) Render(ctx context.Context, template string, data any) (Image, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return Image{}, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return Image{}, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	body, err := json.Marshal(renderRequest{Template: template, Data: data})
	if err != nil {
		return Image{}, fmt.Errorf("%s: %w", config.ErrEncode, err)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return Image{}, fmt.Errorf("%s: %w", config.ErrRequest, err)
	}
	req.Header.Set(config.HeaderContentType, config.MimeJSON)
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)

	resp, err := r.Client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("%s: %w", config.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		slog.Warn(config.MsgRenderFailed,
			config.LogKeyComponent, config.CompRender,
			config.LogKeyStatus, resp.StatusCode)
		return Image{}, fmt.Errorf("%s: %d %s", config.ErrStatus, resp.StatusCode, resp.Status)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, config.MaxHTTPResponseSize))
	if err != nil {
		return Image{}, fmt.Errorf("%s: %w", config.ErrNetwork, err)
	}

	contentType := resp.Header.Get(config.HeaderContentType)
	if contentType == "" {
		contentType = config.MimePNG
	}

	slog.Debug(config.MsgRenderDone,
		config.LogKeyComponent, config.CompRender,
		config.LogKeySizeBytes, len(payload))
	return Image{Data: payload, ContentType: contentType}, nil
}
