package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/tartampluch/go-ddcheck/internal/bilibili"
	"github.com/tartampluch/go-ddcheck/internal/config"
	"github.com/tartampluch/go-ddcheck/internal/outcome"
	"github.com/tartampluch/go-ddcheck/internal/render"
	"github.com/tartampluch/go-ddcheck/internal/report"
	"github.com/tartampluch/go-ddcheck/internal/vtb"
)

// Profiles defines the contract for user lookups.
// This interface allows for mocking in tests and decoupling from the network layer.
type Profiles interface {
	ResolveUID(ctx context.Context, identifier string) int64
	FetchProfile(ctx context.Context, uid int64) outcome.Result[bilibili.Profile]
	FetchMedals(ctx context.Context, uid int64) outcome.Result[[]bilibili.Medal]
}

// VtbLists provides the curated vtb list, refreshing it when the cache is empty.
type VtbLists interface {
	GetOrRefresh(ctx context.Context) vtb.List
}

// Messages translates user-facing failure messages.
type Messages interface {
	Msg(key string, langs ...string) string
}

// Kind classifies a reply.
type Kind int

const (
	// KindImage carries a rendered image.
	KindImage Kind = iota
	// KindReport carries the report only, no render service being configured.
	KindReport
	// KindUserNotFound means the profile lookup failed.
	KindUserNotFound
	// KindListUnavailable means the vtb list is empty after a full refresh cycle.
	KindListUnavailable
	// KindRenderFailed means the report was built but could not be rendered.
	KindRenderFailed
)

// Failed reports whether the reply carries a user-facing error message.
func (k Kind) Failed() bool {
	return k >= KindUserNotFound
}

// Reply is the outcome of one lookup.
type Reply struct {
	Kind    Kind
	Message string
	Report  *report.Report
	Image   *render.Image
}

// Checker is the core service answering "which vtbs does this user follow".
type Checker struct {
	Profiles Profiles
	Lists    VtbLists
	Messages Messages

	// Renderer is optional. Without it replies carry the report only.
	Renderer render.Renderer
}

// Check resolves identifier, builds the report and renders it.
// langs are message language preferences, most preferred first.
func (c *Checker) Check(ctx context.Context, identifier string, langs ...string) Reply {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyName, identifier,
	)
	log.InfoContext(ctx, config.MsgCheckStarted)

	uid := c.Profiles.ResolveUID(ctx, identifier)

	var profile outcome.Result[bilibili.Profile]
	if uid == config.NotFoundUID {
		profile = outcome.Failure[bilibili.Profile](outcome.ErrNotFound)
	} else {
		profile = c.Profiles.FetchProfile(ctx, uid)
	}
	if !profile.Ok() {
		return c.fail(KindUserNotFound, config.TKeyErrUserInfo, langs)
	}

	// The list and the medals are independent once the profile is known.
	var (
		list   vtb.List
		medals outcome.Result[[]bilibili.Medal]
		wg     conc.WaitGroup
	)
	wg.Go(func() { list = c.Lists.GetOrRefresh(ctx) })
	wg.Go(func() { medals = c.Profiles.FetchMedals(ctx, uid) })
	wg.Wait()

	if len(list) == 0 {
		return c.fail(KindListUnavailable, config.TKeyErrVtbList, langs)
	}

	// A failed medal lookup only drops the badges.
	rep := report.Build(profile.Value(), list, medals.Value())

	log.Info(config.MsgCheckDone,
		config.LogKeyUID, rep.UID,
		config.LogKeyMatches, len(rep.Matches),
		config.LogKeyBadges, countBadges(rep.Matches),
		config.LogKeyFollows, rep.FollowCount,
		config.LogKeyDuration, time.Since(start).Milliseconds())

	if c.Renderer == nil {
		return Reply{Kind: KindReport, Report: &rep}
	}

	img, err := c.Renderer.Render(ctx, config.RenderTemplate, rep)
	if err != nil {
		log.Error(config.MsgRenderFailed, config.LogKeyError, err)
		reply := c.fail(KindRenderFailed, config.TKeyErrRender, langs)
		reply.Report = &rep
		return reply
	}
	return Reply{Kind: KindImage, Report: &rep, Image: &img}
}

// countBadges counts the matches where a fan badge is worn.
func countBadges(matches []report.Match) int {
	n := 0
	for _, m := range matches {
		if !m.Medal.IsZero() {
			n++
		}
	}
	return n
}

func (c *Checker) fail(kind Kind, key string, langs []string) Reply {
	msg := key
	if c.Messages != nil {
		msg = c.Messages.Msg(key, langs...)
	}
	return Reply{Kind: kind, Message: msg}
}
