package vtb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tartampluch/go-ddcheck/internal/config"
	"github.com/tartampluch/go-ddcheck/internal/fetch"
	"github.com/tartampluch/go-ddcheck/internal/outcome"
)

// ListFetcher retrieves the vtb list from an ordered set of mirrors.
type ListFetcher struct {
	Getter  fetch.Getter
	Mirrors []string
	Timeout time.Duration
}

// NewListFetcher creates a fetcher over the given mirrors with the standard timeout.
func NewListFetcher(g fetch.Getter, mirrors []string) *ListFetcher {
	return &ListFetcher{
		Getter:  g,
		Mirrors: mirrors,
		Timeout: config.MirrorTimeout,
	}
}

// Fetch tries each mirror in order and returns the first non-empty list.
// No mirror after the first success is contacted and lists are never merged.
// When every mirror fails the result is a failure holding an empty list.
func (f *ListFetcher) Fetch(ctx context.Context) outcome.Result[List] {
	var reasons []error

	for _, mirror := range f.Mirrors {
		if err := ctx.Err(); err != nil {
			return outcome.Failure[List](err)
		}

		list, err := f.fetchMirror(ctx, mirror)
		if err == nil {
			slog.Info(config.MsgMirrorSuccess,
				config.LogKeyComponent, config.CompFetcher,
				config.LogKeyURL, mirror,
				config.LogKeyCount, len(list))
			return outcome.Success(list)
		}

		msg := config.MsgMirrorFailed
		if errors.Is(err, outcome.ErrTimeout) {
			msg = config.MsgMirrorTimeout
		}
		slog.Warn(msg,
			config.LogKeyComponent, config.CompFetcher,
			config.LogKeyURL, mirror,
			config.LogKeyError, err)
		reasons = append(reasons, err)
	}

	return outcome.Failure[List](fmt.Errorf("%s: %w", config.ErrAllMirrors, errors.Join(reasons...)))
}

// fetchMirror returns the normalized list of a single mirror.
// An empty array counts as a failure so the next mirror is tried.
func (f *ListFetcher) fetchMirror(ctx context.Context, mirror string) (List, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = config.MirrorTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var raw []json.RawMessage
	if err := fetch.GetJSON(ctx, f.Getter, mirror, nil, nil, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s", outcome.ErrMalformed, config.ErrEmptyResponse)
	}
	return normalize(raw), nil
}
