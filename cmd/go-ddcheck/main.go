package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tartampluch/go-ddcheck/internal/bilibili"
	"github.com/tartampluch/go-ddcheck/internal/config"
	"github.com/tartampluch/go-ddcheck/internal/engine"
	"github.com/tartampluch/go-ddcheck/internal/fetch"
	"github.com/tartampluch/go-ddcheck/internal/locale"
	"github.com/tartampluch/go-ddcheck/internal/render"
	"github.com/tartampluch/go-ddcheck/internal/server"
	"github.com/tartampluch/go-ddcheck/internal/vtb"
	"github.com/tartampluch/go-ddcheck/internal/worker"
)

// main is the application entry point.
// It delegates execution to runMain so deferred calls (like closing the log file)
// run before the process terminates.
func main() {
	os.Exit(runMain())
}

// options holds the parsed command line.
type options struct {
	debug       bool
	configPath  string
	storeCookie string
	check       string
	out         string
	lang        string
}

// runMain manages the application lifecycle, argument parsing, and exit codes.
func runMain() int {
	// -------------------------------------------------------------------------
	// 1. CLI Argument Parsing
	// -------------------------------------------------------------------------
	var opts options
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	flag.BoolVar(&opts.debug, config.FlagDebug, false, config.FlagDescDebug)
	flag.StringVar(&opts.configPath, config.FlagConfig, config.DefaultSettingsFile, config.FlagDescConfig)
	flag.StringVar(&opts.storeCookie, config.FlagStoreCookie, "", config.FlagDescStoreCookie)
	flag.StringVar(&opts.check, config.FlagCheck, "", config.FlagDescCheck)
	flag.StringVar(&opts.out, config.FlagOut, "", config.FlagDescOut)
	flag.StringVar(&opts.lang, config.FlagLang, "", config.FlagDescLang)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	// -------------------------------------------------------------------------
	// 2. Settings & Logging
	// -------------------------------------------------------------------------
	settings, err := config.LoadSettings(afero.NewOsFs(), opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrSettingsLoad, opts.configPath, err)
		return config.ExitCodeError
	}
	if opts.lang != "" {
		settings.Language = opts.lang
	}

	logCloser := setupLogging(opts.debug, settings.LogDir, consoleWriter(opts.check != ""))
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close()
		}()
	}

	if opts.storeCookie != "" {
		if err := config.StoreCookie(opts.storeCookie); err != nil {
			slog.Error(config.ErrKeyringSave,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyError, err,
			)
			return config.ExitCodeError
		}
		slog.Info(config.MsgCookieStored, config.LogKeyComponent, config.CompMain)
		return config.ExitCodeSuccess
	}

	// -------------------------------------------------------------------------
	// 3. Context & Signal Handling
	// -------------------------------------------------------------------------
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	// -------------------------------------------------------------------------
	// 4. Application Logic
	// -------------------------------------------------------------------------
	app := newApp(settings)

	if opts.check != "" {
		if err := app.checkOnce(ctx, opts.check, opts.out, os.Stdout); err != nil {
			slog.Error(config.ErrCheckFailed,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyError, err,
			)
			return config.ExitCodeError
		}
		return config.ExitCodeSuccess
	}

	if err := app.serve(ctx); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// application is the wired dependency graph.
type application struct {
	settings  config.Settings
	refresher *vtb.Refresher
	checker   *engine.Checker
	server    *server.CheckServer
}

// newApp wires every component from the settings.
func newApp(settings config.Settings) *application {
	fetcher := fetch.NewHTTPFetcher()

	refresher := &vtb.Refresher{
		Source: vtb.NewListFetcher(fetcher, settings.Mirrors),
		Store:  vtb.NewListCache(settings.CachePath()),
	}

	cookie := settings.ResolveCookie()
	if cookie == "" {
		slog.Warn(config.MsgCookieMissing, config.LogKeyComponent, config.CompMain)
	}

	messages := locale.NewTranslator(settings.Language)
	slog.Debug(config.MsgLocalesReady,
		config.LogKeyComponent, config.CompMain,
		config.LogKeyLang, messages.Languages(),
	)

	checker := &engine.Checker{
		Profiles: bilibili.NewClient(fetcher, cookie),
		Lists:    refresher,
		Messages: messages,
	}
	if settings.RenderURL != "" {
		checker.Renderer = render.NewHTTPRenderer(settings.RenderURL)
	} else {
		slog.Info(config.MsgRendererOff, config.LogKeyComponent, config.CompMain)
	}

	srv := server.NewCheckServer(settings.Port, checker, refresher, messages)
	refresher.OnUpdate = srv.Update

	return &application{
		settings:  settings,
		refresher: refresher,
		checker:   checker,
		server:    srv,
	}
}

// serve warms the vtb list, starts the daily refresh and blocks on the HTTP server.
func (a *application) serve(ctx context.Context) error {
	if list := a.refresher.GetOrRefresh(ctx); len(list) > 0 {
		a.server.Update(list)
	}
	slog.Info(config.MsgWarmupDone, config.LogKeyComponent, config.CompMain)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var schedErr error
	var wg conc.WaitGroup
	wg.Go(func() {
		scheduler := worker.NewDailyScheduler(a.settings.RefreshHour, a.refresher.ScheduledRefresh)
		if err := scheduler.Run(ctx); err != nil {
			schedErr = fmt.Errorf("%s: %w", config.ErrScheduler, err)
			cancel()
		}
	})

	srvErr := a.server.Start(ctx)
	slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
	cancel()
	wg.Wait()

	return errors.Join(srvErr, schedErr)
}

// checkOnce runs a single lookup. The image goes to outPath, the report to w.
func (a *application) checkOnce(ctx context.Context, identifier, outPath string, w io.Writer) error {
	reply := a.checker.Check(ctx, identifier, a.settings.Language)

	if reply.Kind.Failed() {
		return errors.New(reply.Message)
	}

	switch reply.Kind {
	case engine.KindImage:
		if outPath == "" {
			return writeReport(w, reply)
		}
		if err := os.WriteFile(outPath, reply.Image.Data, config.FilePermShared); err != nil {
			return fmt.Errorf("%s: %w", config.ErrWriteOutput, err)
		}
		slog.Info(config.MsgImageWritten,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyFile, outPath,
		)
		return nil
	default:
		return writeReport(w, reply)
	}
}

func writeReport(w io.Writer, reply engine.Reply) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", config.CacheJSONIndent)
	if err := enc.Encode(reply.Report); err != nil {
		return fmt.Errorf("%s: %w", config.ErrEncode, err)
	}
	return nil
}

// printVersion outputs the build information to stdout.
func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// consoleWriter returns the console log stream. A one-shot lookup owns stdout
// for its report, so its logs go to stderr.
func consoleWriter(oneShot bool) io.Writer {
	if oneShot {
		return os.Stderr
	}
	return os.Stdout
}

// setupLogging configures the default slog logger.
// Logs go to console and to a size-rotated file.
func setupLogging(debugMode bool, logDir string, console io.Writer) io.Closer {
	writers := []io.Writer{console}
	var rotator *lumberjack.Logger

	if logPath, err := getLogFilePath(logDir); err == nil {
		rotator = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    config.LogMaxSizeMB,
			MaxBackups: config.LogMaxBackups,
			MaxAge:     config.LogMaxAgeDays,
		}
		writers = append(writers, rotator)
	} else {
		fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logDir, err)
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), opts))
	slog.SetDefault(logger)

	if rotator == nil {
		return nil
	}
	return rotator
}

// getLogFilePath returns the log file location, defaulting to the user cache directory.
func getLogFilePath(logDir string) (string, error) {
	if logDir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
		}
		logDir = filepath.Join(cacheDir, config.AppID)
	}

	if err := os.MkdirAll(logDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(logDir, config.LogFileName), nil
}
