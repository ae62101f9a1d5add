package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fsru-tools/fleet-timeline/internal/config"
	"github.com/fsru-tools/fleet-timeline/internal/dispatcher"
	"github.com/fsru-tools/fleet-timeline/internal/influx"
	"github.com/fsru-tools/fleet-timeline/internal/logging"
	"github.com/fsru-tools/fleet-timeline/internal/monitor"
	intOtel "github.com/fsru-tools/fleet-timeline/internal/otel"
	"github.com/fsru-tools/fleet-timeline/internal/server"
	"github.com/fsru-tools/fleet-timeline/internal/timeline"
)

// Version and BuildDate can be set at build time via ldflags.
var (
	Version   string = "0.0.1"
	BuildDate string = "unknown"

	AppName string = "fleet-timeline"
)

var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	// InfluxManager handles render telemetry
	InfluxManager *influx.Manager

	logFile  *os.File
	otelFile *os.File
)

// setup loads config and initializes logging and telemetry. It returns a
// cleanup function that flushes and closes everything.
func setup(configDir string) (func(), error) {
	if err := config.Load(configDir); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating logs dir: %w", err)
	}

	startTime := time.Now()
	var err error
	logFile, err = os.OpenFile(
		logging.LogFilePath(logsDir, AppName, startTime),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644,
	)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	// OTel first so the slog bridge can attach to it.
	otelCfg := config.GetOTelConfig()
	providerCfg := intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	}
	if otelCfg.Enabled {
		otelFile, err = os.OpenFile(
			filepath.Join(logsDir, AppName+".otel.log"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644,
		)
		if err != nil {
			return nil, fmt.Errorf("opening otel log file: %w", err)
		}
		providerCfg.LogWriter = otelFile
	}
	OTelProvider, err = intOtel.New(providerCfg)
	if err != nil {
		return nil, fmt.Errorf("initializing otel: %w", err)
	}

	// Optional GELF target joins the multi-handler alongside file and stderr.
	var extraHandlers []slog.Handler
	graylogCfg := config.GetGraylogConfig()
	if graylogCfg.Enabled {
		gelfHandler, gerr := logging.NewGelfHandler(graylogCfg.Address, slog.LevelInfo)
		if gerr != nil {
			fmt.Fprintf(os.Stderr, "graylog disabled: %v\n", gerr)
		} else {
			extraHandlers = append(extraHandlers, gelfHandler)
		}
	}

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(logFile, config.GetString("logLevel"), OTelProvider.LoggerProvider(), extraHandlers...)
	Logger = SlogManager.Logger()
	slog.SetDefault(Logger)

	Logger.Info("starting up", "version", Version, "buildDate", BuildDate)

	// Influx is best-effort: a failed connection falls back to the gzip
	// backup file, a disabled config leaves the manager nil.
	influxCfg := config.GetInfluxConfig()
	if influxCfg.Enabled {
		zlog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		InfluxManager = influx.NewManager(zlog, influxCfg.BackupPath)
		if err := InfluxManager.Connect(); err != nil {
			Logger.Warn("influx telemetry unavailable", "error", err)
		}
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := SlogManager.Flush(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "log flush: %v\n", err)
		}
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "otel shutdown: %v\n", err)
		}
		if logFile != nil {
			logFile.Close()
		}
		if otelFile != nil {
			otelFile.Close()
		}
	}
	return cleanup, nil
}

func newEngine() (*timeline.Engine, error) {
	engineCfg, err := config.GetEngineConfig()
	if err != nil {
		return nil, err
	}
	return timeline.New(timeline.Config{
		Dir:            engineCfg.Dir,
		Prefix:         engineCfg.Prefix,
		Suffix:         engineCfg.Suffix,
		ThresholdMiles: engineCfg.ThresholdMiles,
	}, Logger), nil
}

// serve runs the HTTP/WebSocket shell until SIGINT or SIGTERM.
func serve() error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	serverCfg, err := config.GetServerConfig()
	if err != nil {
		return err
	}

	d, err := dispatcher.New(Logger)
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	srv := server.New(server.Config{
		Addr:             serverCfg.Addr,
		PlaybackInterval: serverCfg.PlaybackInterval,
	}, engine, d, Logger, InfluxManager)

	mon := monitor.NewService(monitor.Dependencies{
		Engine:   engine,
		Sessions: srv.Registry(),
		Logger:   Logger,
		Influx:   InfluxManager,
		Interval: config.GetDuration("monitor.statusInterval"),
	})
	mon.Start()
	defer mon.Stop()

	srv.Start()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	Logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func main() {
	configDir := flag.String("config", ".", "directory containing fleet_timeline.cfg.json")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (built %s)\n", AppName, Version, BuildDate)
		return
	}

	cleanup, err := setup(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	args := flag.Args()
	if len(args) > 0 && args[0] == "dump" {
		err = dumpFrame(args[1:])
	} else {
		err = serve()
	}
	if err != nil {
		Logger.Error("fatal", "error", err)
		cleanup()
		os.Exit(1)
	}
}
