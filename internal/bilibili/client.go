// Package bilibili talks to the public user search, profile card and medal wall APIs.
// Every lookup recovers locally: failures become a zero id or an outcome.Failure.
package bilibili

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/tartampluch/go-ddcheck/internal/config"
	"github.com/tartampluch/go-ddcheck/internal/fetch"
	"github.com/tartampluch/go-ddcheck/internal/outcome"
)

// Client resolves users and fetches their profile and fan badges.
type Client struct {
	Getter  fetch.Getter
	Limiter *rate.Limiter
	Cookie  string
	Timeout time.Duration

	SearchURL  string
	ProfileURL string
	MedalURL   string
}

// NewClient creates a client against the production endpoints.
func NewClient(g fetch.Getter, cookie string) *Client {
	return &Client{
		Getter:     g,
		Limiter:    rate.NewLimiter(rate.Limit(config.APIRateLimit), config.APIRateBurst),
		Cookie:     cookie,
		Timeout:    config.APITimeout,
		SearchURL:  config.SearchURL,
		ProfileURL: config.ProfileURL,
		MedalURL:   config.MedalURL,
	}
}

// ResolveUID turns a numeric id or an exact display name into a user id.
// Digit-only identifiers are parsed without any network call.
// Any failure yields config.NotFoundUID.
func (c *Client) ResolveUID(ctx context.Context, identifier string) int64 {
	res := c.resolve(ctx, identifier)
	if !res.Ok() {
		slog.Warn(config.MsgResolveFailed,
			config.LogKeyComponent, config.CompBilibili,
			config.LogKeyName, identifier,
			config.LogKeyReason, res.Reason())
		return config.NotFoundUID
	}
	return res.Value()
}

func (c *Client) resolve(ctx context.Context, identifier string) outcome.Result[int64] {
	if isDigits(identifier) {
		uid, err := strconv.ParseInt(identifier, 10, 64)
		if err != nil {
			return outcome.Failure[int64](fmt.Errorf("%w: %s", outcome.ErrNotFound, config.ErrUIDOverflow))
		}
		return outcome.Success(uid)
	}

	q := url.Values{}
	q.Set(config.ParamSearchType, config.SearchTypeBiliUsr)
	q.Set(config.ParamKeyword, identifier)

	var resp searchResponse
	if err := c.getJSON(ctx, c.SearchURL, q, nil, &resp); err != nil {
		return outcome.Failure[int64](err)
	}
	if resp.Data == nil || resp.Data.Result == nil {
		return outcome.Failure[int64](fmt.Errorf("%w: %s", outcome.ErrMalformed, config.ErrMissingResults))
	}

	for _, u := range resp.Data.Result {
		if u.Uname == identifier {
			return outcome.Success(int64(u.Mid))
		}
	}
	return outcome.Failure[int64](fmt.Errorf("%w: %s", outcome.ErrNotFound, config.ErrNoExactMatch))
}

// FetchProfile returns the public card of uid.
func (c *Client) FetchProfile(ctx context.Context, uid int64) outcome.Result[Profile] {
	q := url.Values{}
	q.Set(config.ParamMid, strconv.FormatInt(uid, 10))

	var resp cardResponse
	err := c.getJSON(ctx, c.ProfileURL, q, nil, &resp)
	if err == nil && resp.Card == nil {
		err = fmt.Errorf("%w: %s", outcome.ErrMalformed, config.ErrMissingCard)
	}
	if err != nil {
		slog.Warn(config.MsgProfileFailed,
			config.LogKeyComponent, config.CompBilibili,
			config.LogKeyUID, uid,
			config.LogKeyError, err)
		return outcome.Failure[Profile](err)
	}

	card := resp.Card
	followed := make(map[int64]struct{}, len(card.Attentions))
	for _, id := range card.Attentions {
		followed[int64(id)] = struct{}{}
	}

	return outcome.Success(Profile{
		ID:          int64(card.Mid),
		Name:        card.Name,
		AvatarURL:   card.Face,
		FanCount:    int64(card.Fans),
		FollowCount: int64(card.Attention),
		FollowedIDs: followed,
	})
}

// FetchMedals returns the fan badges shown on the medal wall of uid.
// The configured cookie is forwarded since the wall requires a logged-in session.
func (c *Client) FetchMedals(ctx context.Context, uid int64) outcome.Result[[]Medal] {
	q := url.Values{}
	q.Set(config.ParamTargetID, strconv.FormatInt(uid, 10))

	header := http.Header{}
	if c.Cookie != "" {
		header.Set(config.HeaderCookie, c.Cookie)
	}

	var resp medalWallResponse
	err := c.getJSON(ctx, c.MedalURL, q, header, &resp)
	if err == nil && (resp.Data == nil || resp.Data.List == nil) {
		err = fmt.Errorf("%w: %s", outcome.ErrMalformed, config.ErrMissingMedals)
	}
	if err != nil {
		slog.Warn(config.MsgMedalsFailed,
			config.LogKeyComponent, config.CompBilibili,
			config.LogKeyUID, uid,
			config.LogKeyError, err)
		return outcome.Failure[[]Medal](err)
	}

	medals := make([]Medal, 0, len(resp.Data.List))
	for _, m := range resp.Data.List {
		medals = append(medals, Medal{
			OwnerName:   m.TargetName,
			Name:        m.MedalInfo.MedalName,
			Level:       m.MedalInfo.Level,
			ColorBorder: m.MedalInfo.MedalColorBorder,
			ColorStart:  m.MedalInfo.MedalColorStart,
			ColorEnd:    m.MedalInfo.MedalColorEnd,
		})
	}
	return outcome.Success(medals)
}

// getJSON waits for the rate limiter and runs one bounded request.
func (c *Client) getJSON(ctx context.Context, target string, q url.Values, header http.Header, v any) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = config.APITimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return outcome.Classify(err)
		}
	}
	return fetch.GetJSON(ctx, c.Getter, target, q, header, v)
}

// isDigits reports whether s is a non-empty run of ASCII decimal digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
