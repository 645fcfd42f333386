package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tartampluch/go-ddcheck/internal/config"
	"github.com/tartampluch/go-ddcheck/internal/engine"
	"github.com/tartampluch/go-ddcheck/internal/outcome"
	"github.com/tartampluch/go-ddcheck/internal/vtb"
)

// Checker answers lookups.
type Checker interface {
	Check(ctx context.Context, identifier string, langs ...string) engine.Reply
}

// Refresher runs a manual fetch-and-persist cycle.
type Refresher interface {
	Refresh(ctx context.Context) outcome.Result[vtb.List]
}

// Messages translates user-facing messages.
type Messages interface {
	Msg(key string, langs ...string) string
}

// cacheItem stores the serialized vtb list and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// CheckServer exposes lookups and the current vtb list over HTTP.
type CheckServer struct {
	// cache uses atomic.Pointer for lock-free reads.
	// The list is read on every /vtbs request but replaced only on refresh.
	cache atomic.Pointer[cacheItem]
	Port  string

	Checker   Checker
	Refresher Refresher
	Messages  Messages
}

// NewCheckServer creates a new instance of the server.
func NewCheckServer(port string, checker Checker, refresher Refresher, messages Messages) *CheckServer {
	return &CheckServer{
		Port:      port,
		Checker:   checker,
		Refresher: refresher,
		Messages:  messages,
	}
}

// Handler returns the route multiplexer.
func (s *CheckServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteCheck, s.handleCheck)
	mux.HandleFunc(config.RouteVtbs, s.handleVtbList)
	mux.HandleFunc(config.RouteRefresh, s.handleRefresh)
	return mux
}

// Start initializes the HTTP server and blocks until the context is cancelled.
func (s *CheckServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return fmt.Errorf(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Update atomically replaces the served vtb list.
func (s *CheckServer) Update(list vtb.List) {
	data, err := json.Marshal(list)
	if err != nil {
		slog.Error(config.ErrEncode,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err)
		return
	}

	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	// Any concurrent reader sees either the old or the new complete item.
	s.cache.Store(&cacheItem{
		data:         data,
		etag:         etag,
		lastModified: time.Now().UTC().Format(http.TimeFormat),
	})

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, etag,
	)
}

// handleCheck runs one lookup and writes the image, the report or the failure message.
func (s *CheckServer) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	langs := requestLanguages(r)
	name := strings.TrimSpace(r.URL.Query().Get(config.QueryName))
	if name == "" {
		s.writeText(w, http.StatusBadRequest, s.msg(config.TKeyErrNameReq, langs))
		return
	}

	reply := s.Checker.Check(r.Context(), name, langs...)
	if reply.Kind.Failed() {
		status := http.StatusBadGateway
		if reply.Kind == engine.KindUserNotFound {
			status = http.StatusNotFound
		}
		s.writeText(w, status, reply.Message)
		return
	}

	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)

	switch reply.Kind {
	case engine.KindImage:
		w.Header().Set(config.HeaderContentType, reply.Image.ContentType)
		w.WriteHeader(http.StatusOK)
		s.writeBody(w, r, reply.Image.Data)
	case engine.KindReport:
		data, err := json.Marshal(reply.Report)
		if err != nil {
			http.Error(w, config.HTTPMsgInternalErr, http.StatusInternalServerError)
			return
		}
		w.Header().Set(config.HeaderContentType, config.MimeJSON)
		w.WriteHeader(http.StatusOK)
		s.writeBody(w, r, data)
	}
}

// handleVtbList serves the cached vtb list with HTTP caching support.
func (s *CheckServer) handleVtbList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	item := s.cache.Load()
	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
				if !serverTime.After(clientTime) {
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
		}
	}

	s.writeBody(w, r, item.data)
}

// handleRefresh triggers a fetch-and-persist cycle outside the daily schedule.
func (s *CheckServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set(config.HeaderAllow, config.AllowedMethodsPost)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	res := s.Refresher.Refresh(r.Context())
	if !res.Ok() {
		s.writeText(w, http.StatusBadGateway, config.HTTPMsgRefreshFail)
		return
	}
	s.writeText(w, http.StatusOK, fmt.Sprintf("%s (%d)", config.HTTPMsgRefreshed, len(res.Value())))
}

func (s *CheckServer) msg(key string, langs []string) string {
	if s.Messages == nil {
		return key
	}
	return s.Messages.Msg(key, langs...)
}

func (s *CheckServer) writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set(config.HeaderContentType, config.MimeText)
	w.WriteHeader(status)
	if _, err := io.WriteString(w, msg); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}

func (s *CheckServer) writeBody(w http.ResponseWriter, r *http.Request, data []byte) {
	if r.Method != http.MethodGet {
		return
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}

// requestLanguages returns the explicit lang parameter first, then Accept-Language.
func requestLanguages(r *http.Request) []string {
	var langs []string
	if l := r.URL.Query().Get(config.QueryLang); l != "" {
		langs = append(langs, l)
	}
	if al := r.Header.Get(config.HeaderAcceptLanguage); al != "" {
		langs = append(langs, al)
	}
	return langs
}
