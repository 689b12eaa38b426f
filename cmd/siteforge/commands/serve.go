package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/siteforge/internal/config"
	"git.home.luguber.info/inful/siteforge/internal/eventstore"
	ferrors "git.home.luguber.info/inful/siteforge/internal/foundation/errors"
	"git.home.luguber.info/inful/siteforge/internal/ignore"
	"git.home.luguber.info/inful/siteforge/internal/livereload"
	"git.home.luguber.info/inful/siteforge/internal/logfields"
	"git.home.luguber.info/inful/siteforge/internal/metrics"
	"git.home.luguber.info/inful/siteforge/internal/notify"
	"git.home.luguber.info/inful/siteforge/internal/portscan"
	"git.home.luguber.info/inful/siteforge/internal/rebuild"
	"git.home.luguber.info/inful/siteforge/internal/server/httpserver"
	"git.home.luguber.info/inful/siteforge/internal/site"
	"git.home.luguber.info/inful/siteforge/internal/trigger"
	"git.home.luguber.info/inful/siteforge/internal/workspace"
)

// drainTimeout bounds how long shutdown waits for an in-flight build before
// removing a temporary output directory.
const drainTimeout = 30 * time.Second

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Input        string `short:"i" name:"input" help:"Input directory (default .)" env:"SITEFORGE_INPUT"`
	Output       string `short:"o" name:"output" help:"Output directory (default: temporary, removed on exit)" env:"SITEFORGE_OUTPUT"`
	Port         int    `short:"p" name:"port" help:"First port to try (default 3000)" env:"SITEFORGE_PORT"`
	MaxPort      int    `name:"max-port" help:"Last port to try (default 3100)" env:"SITEFORGE_MAX_PORT"`
	Debounce     *time.Duration `name:"debounce" help:"Quiet window before a change triggers a rebuild, e.g. 200ms" env:"SITEFORGE_DEBOUNCE"`
	PollInterval *time.Duration `name:"poll-interval" help:"Also rebuild on this interval, e.g. 5s" env:"SITEFORGE_POLL_INTERVAL"`
	NoLiveReload bool   `name:"no-live-reload" help:"Disable the live reload endpoint and script injection"`
	NoKeys       bool   `name:"no-keys" help:"Do not read key presses from the terminal"`
	MetricsAddr  string `name:"metrics-addr" help:"Serve /metrics, /healthz and the build API on this address" env:"SITEFORGE_METRICS_ADDR"`
	HistoryDB    string `name:"history-db" help:"Record builds in this SQLite database" env:"SITEFORGE_HISTORY_DB"`
	NATSURL      string `name:"nats-url" help:"Publish build events to this NATS server" env:"SITEFORGE_NATS_URL"`
	NATSSubject  string `name:"nats-subject" help:"Subject for build events (default siteforge.builds)" env:"SITEFORGE_NATS_SUBJECT"`
}

// overrides maps the flags onto config. Unset duration flags stay nil so
// file values apply.
func (s *ServeCmd) overrides() config.Overrides {
	return config.Overrides{
		Input:        s.Input,
		Output:       s.Output,
		Port:         s.Port,
		MaxPort:      s.MaxPort,
		Debounce:     s.Debounce,
		PollInterval: s.PollInterval,
		NoLiveReload: s.NoLiveReload,
		NoKeys:       s.NoKeys,
		MetricsAddr:  s.MetricsAddr,
		HistoryDB:    s.HistoryDB,
		NATSURL:      s.NATSURL,
		NATSSubject:  s.NATSSubject,
	}
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(s.overrides())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return Serve(ctx, cfg, ServeOptions{
		Logger:   logger(g),
		Out:      os.Stdout,
		Keys:     !cfg.DisableKeys && trigger.StdinIsTerminal(),
		KeyInput: os.Stdin,
	})
}

// ServeOptions carries the process-level collaborators of Serve.
type ServeOptions struct {
	Logger   *slog.Logger
	Out      io.Writer
	Keys     bool
	KeyInput io.Reader
	// Ready, when set, receives the server URL once serving has started.
	Ready func(url string)
}

// Serve runs the dev loop until ctx is done, a quit key is pressed, or the
// server fails. A temporary output directory is removed on every return path.
func Serve(ctx context.Context, cfg *config.Config, opts ServeOptions) (err error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ws := workspace.NewExplicitManager(cfg.Output)
	if cfg.Output == "" {
		ws = workspace.NewManager("")
	}
	if err := ws.Create(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to prepare output directory").Fatal().Build()
	}
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			log.Warn("Failed to remove temporary output", logfields.Error(cerr))
		}
	}()
	out := ws.GetPath()

	sess, err := newSession(ctx, cfg, out)
	if err != nil {
		return err
	}

	ln, err := portscan.Listen(ctx, cfg.Port, cfg.MaxPort)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryServer, "no free port").
			Fatal().
			WithContext("range", fmt.Sprintf("%d-%d", cfg.Port, cfg.MaxPort)).
			Build()
	}

	var (
		recorder  metrics.Recorder = metrics.NoopRecorder{}
		registry  *prometheus.Registry
		observers []rebuild.Observer
		cleanups  []func()
	)
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	if cfg.MetricsAddr != "" {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	var hub *livereload.Hub
	if !cfg.DisableLiveReload {
		hub = livereload.NewHub()
		observers = append(observers, hub)
	}

	if cfg.HistoryDB != "" {
		store, err := eventstore.NewSQLiteStore(cfg.HistoryDB)
		if err != nil {
			_ = ln.Close()
			return err
		}
		cleanups = append(cleanups, func() { _ = store.Close() })
		observers = append(observers, eventstore.NewRecorder(store, cfg.Input, out))
	}

	if cfg.NATS.URL != "" {
		conn, err := notify.Connect(cfg.NATS.URL)
		if err != nil {
			// Notifications are optional; the dev loop runs without them.
			log.Warn("Build notifications disabled", logfields.Error(err))
		} else {
			cleanups = append(cleanups, func() { drainNATS(conn, log) })
			observers = append(observers, notify.New(conn, cfg.NATS.Subject, cfg.Input, out))
		}
	}

	var coord *rebuild.Coordinator
	tracker := httpserver.NewStatusTracker(out, func() bool { return coord != nil && coord.Building() })
	observers = append(observers, tracker)

	coord = rebuild.New(ctx, site.NewBuilder(sess),
		rebuild.WithObservers(observers...),
		rebuild.WithRecorder(recorder),
	)
	cleanups = append(cleanups, func() {
		wctx, wcancel := context.WithTimeout(context.Background(), drainTimeout)
		defer wcancel()
		if err := coord.Wait(wctx); err != nil {
			log.Warn("Build still running at shutdown", logfields.Error(err))
		}
	})

	// Initial build; the server answers 404 until it lands.
	coord.RequestBuild()

	srvOpts := httpserver.Options{
		OutputRoot: out,
		Listener:   ln,
		Hooks:      sess.Hooks,
		Recorder:   recorder,
		Logger:     log,
	}
	if hub != nil {
		srvOpts.LiveReload = hub
	}
	handle, err := httpserver.Start(ctx, srvOpts)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() {
		if cerr := handle.Close(); cerr != nil {
			log.Warn("Dev server shutdown error", logfields.Error(cerr))
			if err == nil {
				err = cerr
			}
		}
	}()

	adminURL := ""
	if cfg.MetricsAddr != "" {
		aln, err := net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryServer, "failed to bind admin address").
				Fatal().
				WithContext("addr", cfg.MetricsAddr).
				Build()
		}
		admin, err := httpserver.StartAdmin(httpserver.AdminOptions{
			Listener: aln,
			Metrics:  metrics.HTTPHandler(registry),
			Status:   tracker,
			Trigger:  coord.RequestBuild,
			Logger:   log,
		})
		if err != nil {
			_ = aln.Close()
			return err
		}
		defer func() { _ = admin.Close() }()
		adminURL = "http://" + aln.Addr().String() + "/"
	}

	var requester trigger.Requester = coord
	if cfg.Debounce > 0 {
		d := trigger.NewDebouncer(coord, cfg.Debounce, 0)
		defer d.Stop()
		requester = d
	}

	watcher, err := trigger.NewWatcher(cfg.Input, out, ignore.DefaultPatterns, requester)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to watch input").Fatal().Build()
	}
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := watcher.Run(ctx); err != nil {
			log.Warn("Watcher stopped", logfields.Error(err))
		}
	}()

	if cfg.PollInterval > 0 {
		poller, err := trigger.NewPoller(requester, cfg.PollInterval)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid poll interval").Fatal().Build()
		}
		poller.Start()
		defer func() { _ = poller.Stop() }()
	}

	if opts.Keys {
		keys := trigger.NewKeys(coord, cancel, opts.KeyInput)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := keys.Run(ctx); err != nil {
				log.Warn("Key input stopped", logfields.Error(err))
			}
		}()
	}

	_, _ = fmt.Fprintln(opts.Out, Banner(BannerInfo{
		URL:       handle.URL(),
		Input:     cfg.Input,
		Output:    out,
		Temporary: ws.Generated(),
		AdminURL:  adminURL,
		Keys:      opts.Keys,
	}))
	if opts.Ready != nil {
		opts.Ready(handle.URL())
	}

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
		return nil
	case <-handle.Done():
		cancel()
		if serr := handle.Err(); serr != nil {
			return serr
		}
		return ferrors.ServerError("dev server stopped unexpectedly").Fatal().Build()
	}
}

func drainNATS(conn *nats.Conn, log *slog.Logger) {
	if err := conn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		log.Warn("NATS drain failed", logfields.Error(err))
		conn.Close()
	}
}
