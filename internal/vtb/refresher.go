package vtb

import (
	"context"
	"log/slog"
	"time"

	"github.com/tartampluch/go-ddcheck/internal/config"
	"github.com/tartampluch/go-ddcheck/internal/outcome"
)

// Source fetches a fresh vtb list.
type Source interface {
	Fetch(ctx context.Context) outcome.Result[List]
}

// Store loads and persists the vtb list.
type Store interface {
	Load() List
	Save(list List) error
}

// Refresher serves the cached vtb list and refreshes it on demand or on schedule.
type Refresher struct {
	Source Source
	Store  Store

	// OnUpdate, when set, receives every list that was persisted.
	OnUpdate func(List)
}

// GetOrRefresh returns the cached list, running one fetch-and-persist cycle when the cache is empty.
// The list is always read back from the store, so the result may still be empty.
func (r *Refresher) GetOrRefresh(ctx context.Context) List {
	if list := r.Store.Load(); len(list) > 0 {
		return list
	}

	slog.Info(config.MsgCacheMiss, config.LogKeyComponent, config.CompCache)
	r.Refresh(ctx)
	return r.Store.Load()
}

// Refresh fetches the list and replaces the cache on success.
// A failed fetch leaves the previous cache untouched.
func (r *Refresher) Refresh(ctx context.Context) outcome.Result[List] {
	start := time.Now()
	log := slog.With(config.LogKeyComponent, config.CompCache)
	log.Info(config.MsgRefreshStarted)

	res := r.Source.Fetch(ctx)
	if !res.Ok() {
		log.Warn(config.MsgRefreshFailed, config.LogKeyReason, res.Reason())
		return res
	}

	if err := r.Store.Save(res.Value()); err != nil {
		log.Error(config.ErrCacheWrite, config.LogKeyError, err)
		return outcome.Failure[List](err)
	}

	if r.OnUpdate != nil {
		r.OnUpdate(res.Value())
	}

	log.Info(config.MsgRefreshDone,
		config.LogKeyCount, len(res.Value()),
		config.LogKeyDuration, time.Since(start).Milliseconds())
	return res
}

// ScheduledRefresh is the body of the daily refresh job.
func (r *Refresher) ScheduledRefresh(ctx context.Context) {
	_ = r.Refresh(ctx)
}
