package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rotorgo/internal/api"
	"rotorgo/pkg/beam"
	"rotorgo/pkg/config"
	"rotorgo/pkg/core"
	"rotorgo/pkg/db"
	"rotorgo/pkg/db/maintenance"
	"rotorgo/pkg/logging"
	"rotorgo/pkg/probe"
	"rotorgo/pkg/rotator"
	"rotorgo/pkg/rotator/mockrot"
	"rotorgo/pkg/store"
	"rotorgo/pkg/version"
	"rotorgo/pkg/watcher"
)

const defaultConfigPath = "configs/rotorgo.yaml"

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", defaultConfigPath, "Path to the config file")
	importADIF = flag.String("import-adif", "", "Import an ADIF log into the database and exit")
)

func main() {
	flag.Parse()

	// Station grid and callsign may come from .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	if *importADIF != "" {
		n, err := runImport(context.Background(), *configPath, *importADIF)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Imported %d new QSOs from %s\n", n, *importADIF)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("RotorGo Started", "version", version.Version, "callsign", appCfg.Station.Callsign)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := maintenance.Run(ctx, st, appCfg.DB.ADIFPath, time.Duration(appCfg.Ticker.HistoryMaxAge)); err != nil {
		slog.Error("Maintenance tasks failed", "error", err)
	}

	origin, err := appCfg.Station.Position()
	if err != nil {
		return err
	}
	slog.Info("Station position", "grid", appCfg.Station.Grid, "lat", origin.Lat, "lon", origin.Lon)

	client, err := initRotatorClient(appCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize rotator client: %w", err)
	}
	defer client.Close()

	if err := probe.AnalyzeResults(probe.Run(ctx, startupProbes(appCfg, st, client))); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	ctrl := rotator.NewController(rotator.ControllerConfig{
		InitialBearing: appCfg.Rotator.DefaultBearing,
		Thresholds:     thresholds(&appCfg.Rotator.Filter),
		CommandTimeout: time.Duration(appCfg.Rotator.CommandTimeout),
	}, client, st, slog.With("component", "rotator"))
	defer ctrl.Wait()

	// WebSocket hub and frame loop
	hub := api.NewHub(ctrl)
	go hub.Run(ctx)

	frames := core.NewFrameLoop(beam.NewRenderer(beamConfig(&appCfg.Beam)), ctrl, origin, hub, time.Duration(appCfg.Ticker.FrameRate))
	go frames.Start(ctx)

	// Telemetry Handler (must be created before scheduler to receive updates)
	telH := api.NewTelemetryHandler()

	sched := core.NewScheduler(appCfg, client, ctrl, telH)
	sched.AddJob(core.NewHistoryPruneJob(st, time.Duration(appCfg.Ticker.HistoryPrune), time.Duration(appCfg.Ticker.HistoryMaxAge)))
	sched.AddJob(core.NewHeadingLogJob(5))
	if appCfg.DB.ADIFPath != "" && appCfg.Ticker.LogWatch > 0 {
		w := watcher.NewService(appCfg.DB.ADIFPath)
		sched.AddJob(core.NewLogWatchJob(w, time.Duration(appCfg.Ticker.LogWatch), func(ctx context.Context, path string) {
			n, err := maintenance.SyncADIF(ctx, st, path)
			if err != nil {
				slog.Error("ADIF re-import failed", "path", path, "error", err)
				return
			}
			slog.Info("ADIF log re-imported", "path", path, "new_qsos", n)
		}))
	}
	go sched.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(appCfg.Server.Address, api.Handlers{
		Telemetry: telH,
		Rotator:   api.NewRotatorHandler(ctrl, st, st, origin),
		Beam:      api.NewBeamHandler(frames),
		QSO:       api.NewQSOHandler(st, origin),
		Hub:       hub,
		StaticDir: appCfg.Server.StaticDir,
	}, shutdownFunc)
	srv.Handler = loggingMiddleware(srv.Handler)

	err = runServerLifecycle(ctx, srv, quit)
	// Stop the loops before the deferred client and database closes
	cancel()
	return err
}

func runImport(ctx context.Context, configPath, path string) (int, error) {
	appCfg, err := config.Load(configPath)
	if err != nil {
		return 0, fmt.Errorf("failed to load config: %w", err)
	}
	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return 0, err
	}
	defer dbConn.Close()
	return maintenance.ImportADIF(ctx, st, path)
}

func initDB(appCfg *config.Config) (*db.DB, store.Store, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

func initRotatorClient(appCfg *config.Config) (rotator.Client, error) {
	switch appCfg.Rotator.Provider {
	case "mock", "":
		m := appCfg.Rotator.Mock
		slog.Info("Using mock rotator", "slew_rate", m.SlewRate, "spurious_zeros", m.SpuriousZeros)
		return mockrot.NewClient(mockrot.Config{
			StartAzimuth:  m.StartAzimuth,
			SlewRate:      m.SlewRate,
			TickRate:      time.Duration(m.TickRate),
			SpuriousZeros: m.SpuriousZeros,
		}), nil
	default:
		return nil, fmt.Errorf("unknown rotator provider: %q", appCfg.Rotator.Provider)
	}
}

func startupProbes(appCfg *config.Config, st store.Store, client rotator.Client) []probe.Probe {
	probes := []probe.Probe{
		{
			Name:     "Database",
			Critical: true,
			Check: func(ctx context.Context) error {
				_, err := st.CountQSOs(ctx)
				return err
			},
		},
		{
			Name: "Rotator",
			Check: func(context.Context) error {
				if client.GetState() != rotator.StateConnected {
					return rotator.ErrNotConnected
				}
				return nil
			},
		},
	}
	if path := appCfg.DB.ADIFPath; path != "" {
		probes = append(probes, probe.Probe{
			Name: "ADIF Log",
			Check: func(context.Context) error {
				_, err := os.Stat(path)
				return err
			},
		})
	}
	return probes
}

func thresholds(f *config.FilterConfig) rotator.Thresholds {
	return rotator.Thresholds{
		NearZeroLow:  f.NearZeroLow,
		NearZeroHigh: f.NearZeroHigh,
		TrustWindow:  time.Duration(f.TrustWindow),
		AcceptRadius: f.AcceptRadius,
	}
}

func beamConfig(b *config.BeamConfig) beam.Config {
	return beam.Config{
		MaxDistanceKm:  b.MaxDistance.Kilometers(),
		Segments:       b.Segments,
		HalfWidthStart: b.HalfWidthStart,
		HalfWidthEnd:   b.HalfWidthEnd,
		Altitude:       b.Altitude,
		Color:          b.Color,
		EdgeColor:      b.EdgeColor,
		Pulse: beam.PulseConfig{
			Period:  time.Duration(b.PulsePeriod),
			Min:     b.PulseMin,
			Max:     b.PulseMax,
			Damping: b.PulseDamping,
		},
	}
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
