package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-DDCheck/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go DDCheck"
	AppID             = "com.github.tartampluch.go-ddcheck"
	KeyringService    = "com.github.tartampluch.go-ddcheck"
	KeyringCookieUser = "bilibili_cookie"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	EnvPrefix         = "DDCHECK_"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// FilePermShared represents -rw-r--r--. Used for the vtb list cache.
	FilePermShared fs.FileMode = 0644

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// DirPermShared represents drwxr-xr-x. Used for the data directory.
	DirPermShared fs.FileMode = 0755

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion         = "version"
	FlagDebug           = "debug"
	FlagConfig          = "config"
	FlagStoreCookie     = "store-cookie"
	FlagCheck           = "check"
	FlagOut             = "out"
	FlagLang            = "lang"
	FlagDescVersion     = "Show application version and exit"
	FlagDescDebug       = "Enable debug logging to stdout"
	FlagDescConfig      = "Path to the YAML settings file"
	FlagDescStoreCookie = "Save the given bilibili cookie to the OS keyring and exit"
	FlagDescCheck       = "Run a single lookup for the given uid or user name and exit"
	FlagDescOut         = "File to write the rendered image to (with -check)"
	FlagDescLang        = "Language of user-facing messages (zh, en)"
	MsgVersionOutput    = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Settings Keys (YAML / Environment)
// -----------------------------------------------------------------------------

const (
	EnvCookie    = EnvPrefix + "BILIBILI_COOKIE"
	EnvDataDir   = EnvPrefix + "DATA_DIR"
	EnvPort      = EnvPrefix + "PORT"
	EnvRenderURL = EnvPrefix + "RENDER_URL"
	EnvLanguage  = EnvPrefix + "LANGUAGE"
	EnvLogDir    = EnvPrefix + "LOG_DIR"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultPort         = "18081"
	DefaultSettingsFile = "ddcheck.yaml"
	DefaultLanguage     = "zh"
	DefaultDataDir      = "data/ddcheck"
	VtbListFileName     = "vtb_list.json"
	DefaultRefreshHour  = 3
	RenderTemplate      = "info.html"

	// NotFoundUID is returned by the resolver when no account matches.
	NotFoundUID int64 = 0

	// PageCapacity is the maximum number of matches shown on one page of the report.
	PageCapacity = 100

	// PercentFormat renders the match ratio, e.g. "12.50% (5/40)".
	PercentFormat = "%.2f%% (%d/%d)"

	// ColorFormat renders a 24-bit RGB integer as a CSS color.
	ColorFormat = "#%06X"

	// CacheJSONIndent mirrors the on-disk layout of the vtb list.
	CacheJSONIndent = "    "
)

// SupportedLanguages defines the list of available message languages.
var SupportedLanguages = []string{"zh", "en"}

// DefaultMirrors lists the vtb list mirrors in preference order.
var DefaultMirrors = []string{
	"https://api.vtbs.moe/v1/short",
	"https://api.tokyo.vtbs.moe/v1/short",
	"https://vtbs.musedash.moe/v1/short",
}

// -----------------------------------------------------------------------------
// Remote APIs
// -----------------------------------------------------------------------------

const (
	SearchURL  = "http://api.bilibili.com/x/web-interface/search/type"
	ProfileURL = "https://account.bilibili.com/api/member/getCardByMid"
	MedalURL   = "https://api.live.bilibili.com/xlive/web-ucenter/user/MedalWall"

	ParamSearchType   = "search_type"
	ParamKeyword      = "keyword"
	ParamMid          = "mid"
	ParamTargetID     = "target_id"
	SearchTypeBiliUsr = "bili_user"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	MirrorTimeout       = 20 * time.Second
	APITimeout          = 10 * time.Second
	RenderTimeout       = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 60 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	AllowedMethodsPost  = "POST"
	MaxHTTPResponseSize = 32 * 1024 * 1024 // 32MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteCheck          = "/ddcheck"
	RouteVtbs           = "/vtbs"
	RouteRefresh        = "/refresh"
	AddrSeparator       = ":"
	QueryName           = "name"
	QueryLang           = "lang"

	// APIRateLimit caps outbound bilibili API calls per second.
	APIRateLimit = 5
	APIRateBurst = 5
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderCookie          = "Cookie"
	HeaderAcceptLanguage  = "Accept-Language"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeJSON            = "application/json; charset=utf-8"
	MimeText            = "text/plain; charset=utf-8"
	MimePNG             = "image/png"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyErrUserInfo = "err_user_info"
	TKeyErrVtbList  = "err_vtb_list"
	TKeyErrRender   = "err_render"
	TKeyErrNameReq  = "err_name_required"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrServerStartup   = "server startup failed"
	ErrServerShutdown  = "server shutdown failed"
	ErrPortRequired    = "server port is required"
	ErrInvalidURL      = "invalid URL structure"
	ErrProtocol        = "unsupported protocol scheme (http/https only)"
	ErrStatus          = "server returned unexpected status"
	ErrDecode          = "failed to decode response body"
	ErrEncode          = "failed to encode payload"
	ErrRequest         = "failed to create request"
	ErrNetwork         = "network error during fetch"
	ErrCacheRead       = "failed to read vtb list cache"
	ErrCacheWrite      = "failed to write vtb list cache"
	ErrCacheRemove     = "failed to remove corrupted vtb list cache"
	ErrSettingsRead    = "failed to read settings file"
	ErrSettingsParse   = "failed to parse settings file"
	ErrScheduleRule    = "failed to build refresh schedule"
	ErrLogFile         = "failed to open log file"
	ErrCacheDir        = "could not determine user cache dir"
	ErrCreateDir       = "could not create app cache dir"
	ErrAppFailed       = "application failed unexpectedly"
	ErrWriteResp       = "failed to write response body"
	ErrLocalesAccess   = "failed to access embedded locales"
	ErrLocaleLoad      = "failed to load locale file"
	ErrKeyringSave     = "failed to save cookie to keyring"
	ErrRendererMissing = "render service is not configured"
	ErrEmptyResponse   = "empty response"
	ErrAllMirrors      = "all mirrors failed"
	ErrNoExactMatch    = "no exact user name match"
	ErrMissingCard     = "response has no card"
	ErrMissingMedals   = "response has no medal list"
	ErrMissingResults  = "response has no search results"
	ErrUIDOverflow     = "numeric identifier out of range"
	ErrSettingsLoad    = "failed to load settings"
	ErrWriteOutput     = "failed to write output file"
	ErrCheckFailed     = "lookup failed"
	ErrScheduler       = "refresh scheduler stopped"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Vtb list initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgInternalErr  = "Internal Server Error"
	HTTPMsgRefreshed    = "Vtb list refreshed"
	HTTPMsgRefreshFail  = "Vtb list refresh failed"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting     = "Starting application"
	MsgAppStop         = "Application stopped gracefully"
	MsgServerListen    = "HTTP server listening"
	MsgServerStop      = "Shutting down HTTP server..."
	MsgCacheUpdated    = "Vtb list snapshot updated"
	MsgCacheMiss       = "Vtb list cache missing, refreshing"
	MsgCacheCorrupt    = "Vtb list cache is corrupted and will be fetched again"
	MsgCacheSaved      = "Vtb list cache saved"
	MsgMirrorTimeout   = "Mirror timed out"
	MsgMirrorFailed    = "Mirror returned no usable data"
	MsgMirrorSuccess   = "Mirror returned vtb list"
	MsgRefreshStarted  = "Vtb list refresh started"
	MsgRefreshFailed   = "Vtb list refresh failed, keeping previous cache"
	MsgRefreshDone     = "Vtb list refresh finished"
	MsgResolveFailed   = "User name resolution failed"
	MsgProfileFailed   = "Profile lookup failed"
	MsgMedalsFailed    = "Medal lookup failed"
	MsgCheckStarted    = "Lookup started"
	MsgCheckDone       = "Lookup finished"
	MsgRenderFailed    = "Render service failed"
	MsgRenderDone      = "Image rendered"
	MsgFetchStart      = "Initiating download"
	MsgFetchStatus     = "Server returned error status"
	MsgWorkerStart     = "Daily refresh scheduler started"
	MsgWorkerStop      = "Scheduler stopping due to context cancellation"
	MsgWorkerNext      = "Next scheduled refresh"
	MsgLocaleSkip      = "Skipping non-locale file"
	MsgLocaleBadName   = "Skipping malformed locale filename"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgCookieMissing   = "No bilibili cookie configured, medal lookups may fail"
	MsgCookieStored    = "Cookie saved to keyring"
	MsgKeyringFail     = "Cookie retrieval from keyring failed (might be empty)"
	MsgSettingsDefault = "Settings file not found, using defaults"
	MsgLogWarning      = "Warning: %s at %s: %v\n"
	MsgCtxCancel       = "Context cancelled, stopping services"
	MsgWarmupDone      = "Vtb list warm-up finished"
	MsgRendererOff     = "No render service configured, lookups return the report as JSON"
	MsgImageWritten    = "Rendered image written"
	MsgLocalesReady    = "Message languages loaded"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyUID       = "uid"
	LogKeyName      = "name"
	LogKeyCount     = "count"
	LogKeyMatches   = "matches"
	LogKeyBadges    = "badges"
	LogKeyFollows   = "follows"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyNext      = "next_run"
	LogKeyHour      = "hour"
	LogKeyReason    = "reason"
	LogKeyDuration  = "duration_ms"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompEngine   = "engine"
	CompServer   = "server"
	CompFetcher  = "fetcher"
	CompCache    = "cache"
	CompBilibili = "bilibili"
	CompRender   = "render"
	CompWorker   = "worker"
	CompMain     = "main"
	CompI18n     = "i18n"
	CompConfig   = "config"
)

// -----------------------------------------------------------------------------
// Log Rotation
// -----------------------------------------------------------------------------

const (
	LogMaxSizeMB  = 10
	LogMaxBackups = 3
	LogMaxAgeDays = 28
)
