package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/cadence"
	"github.com/aretw0/cadence/internal/config"
	"github.com/aretw0/cadence/internal/logging"
	"github.com/aretw0/cadence/internal/presentation/console"
	"github.com/aretw0/cadence/internal/runtime"
	httpadapter "github.com/aretw0/cadence/pkg/adapters/http"
	"github.com/aretw0/cadence/pkg/adapters/input"
	"github.com/aretw0/cadence/pkg/adapters/sqlite"
	"github.com/aretw0/cadence/pkg/adapters/tcp"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/ports"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/term"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	// ProcedurePath overrides the procedure file from the run settings.
	ProcedurePath string
	// StartIndex overrides the stored start index when not negative.
	StartIndex int
	Headless   bool
	Debug      bool
	Config     config.RunConfig

	Stdin  *os.File
	Stdout io.Writer
}

// Execute runs one procedure to the end, wiring every configured adapter.
// Interruption by signal is not an error.
func Execute(ctx context.Context, opts RunOptions) error {
	cfg := opts.Config
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	out := opts.Stdout
	logger := createLogger(opts.Debug)

	// 1. Run settings
	store, closeStore, err := OpenSettings(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	settings, err := ports.LoadRunSettings(ctx, store)
	if err != nil {
		return err
	}
	path := opts.ProcedurePath
	if path == "" {
		path = settings.ProcedureFile
	}
	if path == "" {
		return errors.New("no procedure file: pass one or store " + domain.SettingProcedureFile + " in the run settings")
	}
	startIndex := settings.StartIndex
	if opts.StartIndex >= 0 {
		startIndex = opts.StartIndex
	}

	// 2. Log streams and presentation
	logs, err := logging.NewRunLogs(cfg.LogDir, logger, cfg.Level())
	if err != nil {
		return err
	}
	defer logs.Close()

	interactive := !opts.Headless && term.IsTerminal(int(opts.Stdin.Fd()))
	var consoleOpts []console.Option
	if cfg.AssetDir != "" {
		consoleOpts = append(consoleOpts, console.WithAssetDir(cfg.AssetDir))
	}
	if interactive {
		consoleOpts = append(consoleOpts, console.WithRawMode())
	}
	con := console.New(out, consoleOpts...)

	vars := domain.NewVariables()
	if cfg.SeedVariables {
		settings.Seed(vars)
	}

	// 3. Procedure
	exp, err := cadence.Load(path,
		cadence.WithLogger(logs.Config),
		cadence.WithStimulusFactory(con.Stimuli()),
		cadence.WithNotifier(con),
		cadence.WithVariables(vars),
	)
	if err != nil {
		return err
	}
	logSettings(logs.Config, settings, startIndex)

	// 4. Driver collaborators
	runID := uuid.NewString()
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	driverOpts := []cadence.RunOption{
		runtime.WithLogger(logs.State),
		runtime.WithInputLogger(logs.Input),
		runtime.WithRunID(runID),
		runtime.WithMetrics(runtime.NewMetrics(reg)),
		runtime.WithControlKeys(cfg.PauseKey, cfg.QuitKey),
		cadence.WithPresenter(con),
		cadence.WithStartIndex(startIndex),
	}
	hooks := createStateHooks(logs.State)
	ifaces := exp.Config.Interfaces

	var tcpServer *tcp.Server
	if ifaces.Present(domain.InterfaceTCP) {
		tcpServer = tcp.NewServer(ifaces.TCPPort, tcp.WithLogger(logs.Input), tcp.WithMetrics(tcp.NewMetrics(reg)))
		if err := tcpServer.Start(ctx); err != nil {
			logs.Config.Error("TCP interface unavailable, no commands will arrive over TCP", "error", err)
		}
		defer func() {
			tcpServer.SafeShutdown()
			tcpServer.Wait()
		}()
		driverOpts = append(driverOpts,
			cadence.WithSource(domain.InterfaceTCP, input.NewTCPSource(tcpServer, ifaces.Maps[domain.InterfaceTCP])),
			cadence.WithTransport(tcpServer),
		)
	}

	var keys ports.KeyState = input.NoKeys{}
	if !opts.Headless {
		tk, err := input.OpenTerminal(ctx, opts.Stdin, input.WithHold(cfg.KeyHold), input.WithLogger(logger))
		if err != nil {
			return err
		}
		defer tk.Close()
		keys = tk
	}
	driverOpts = append(driverOpts, cadence.WithControls(keys))
	if m, ok := ifaces.Maps[domain.InterfaceKeyboard]; ok {
		driverOpts = append(driverOpts, cadence.WithSource(domain.InterfaceKeyboard, input.NewKeyMapSource(string(domain.InterfaceKeyboard), keys, m)))
	}
	if m, ok := ifaces.Maps[domain.InterfaceXBoxController]; ok {
		logs.Config.Warn("no gamepad backend, XBoxController commands will never be active")
		driverOpts = append(driverOpts, cadence.WithSource(domain.InterfaceXBoxController, input.NewKeyMapSource(string(domain.InterfaceXBoxController), input.NoKeys{}, m)))
	}

	if cfg.RecordPath != "" {
		rec, err := sqlite.Open(cfg.RecordPath)
		if err != nil {
			return err
		}
		defer rec.Close()
		hooks = hooks.Merge(runtime.RecorderHooks(rec, logs.State))
	}

	streams := httpadapter.NewStreamManager(logger)
	if cfg.HTTPAddr != "" {
		hooks = hooks.Merge(streams.Hooks())
	}

	driver := exp.NewDriver(append(driverOpts, cadence.WithLifecycleHooks(hooks))...)

	// 5. Status server
	if cfg.HTTPAddr != "" {
		srvOpts := []httpadapter.Option{
			httpadapter.WithStatus(func() any { return driver.Status() }),
			httpadapter.WithVariables(vars),
			httpadapter.WithGatherer(reg),
			httpadapter.WithStreams(streams),
			httpadapter.WithVersion(cadence.Version),
			httpadapter.WithLogger(logger),
		}
		if tcpServer != nil {
			srvOpts = append(srvOpts, httpadapter.WithCommandQueue(tcpServer))
		}
		stop := serveHTTP(cfg.HTTPAddr, httpadapter.NewHandler(srvOpts...), logger)
		defer stop()
	}

	// 6. Run
	if !opts.Headless {
		console.PrintBanner(out)
	}
	printSystemMessage(out, "Run %s: %s", runID, exp)
	printSystemMessage(out, "Logs in '%s'.", logs.Dir)

	err = driver.Run(ctx, cfg.TickInterval)
	if closer, ok := keys.(io.Closer); ok {
		_ = closer.Close()
	}

	var sig os.Signal
	if sc, ok := ctx.(*SignalContext); ok {
		sig = sc.Signal()
	}
	logCompletion(out, driver.Status(), err, sig)
	if isInterrupted(err) {
		return nil
	}
	return err
}

func logSettings(logger *slog.Logger, s domain.RunSettings, startIndex int) {
	attrs := []any{"start_index", startIndex}
	for k, v := range s.Map() {
		attrs = append(attrs, k, v)
	}
	logger.Info("run settings", attrs...)
}

// serveHTTP starts srv in the background and returns a function that stops it.
func serveHTTP(addr string, handler http.Handler, logger *slog.Logger) func() {
	base, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	go func() {
		logger.Info("Starting status server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Status server failed", "error", err)
		}
	}()
	return func() {
		// Ends open event streams before waiting on them.
		cancel()
		ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "error", err)
			_ = srv.Close()
		}
	}
}
