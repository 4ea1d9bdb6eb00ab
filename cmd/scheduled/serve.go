package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scheduleall/internal/config"
	"scheduleall/internal/host/sim"
	"scheduleall/internal/messaging/inproc"
	"scheduleall/internal/session"
	sqlitestore "scheduleall/internal/store/sqlite"
)

var (
	addrFlag     string
	dbPathFlag   string
	savePathFlag string
	scenarioFlag string
	settingsFlag string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation and serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "http listen address override")
	serveCmd.Flags().StringVar(&dbPathFlag, "db", "", "sqlite database path override")
	serveCmd.Flags().StringVar(&savePathFlag, "save", "", "save file path override")
	serveCmd.Flags().StringVar(&scenarioFlag, "scenario", "", "scenario YAML used when no save exists")
	serveCmd.Flags().StringVar(&settingsFlag, "settings", "", "slot settings TOML override")
}

func runServe() error {
	rt := cfg.Runtime
	rt.Addr = firstNonEmpty(addrFlag, rt.Addr)
	rt.DBPath = firstNonEmpty(dbPathFlag, rt.DBPath)
	rt.SavePath = firstNonEmpty(savePathFlag, rt.SavePath)
	rt.ScenarioPath = firstNonEmpty(scenarioFlag, rt.ScenarioPath)
	rt.SettingsPath = firstNonEmpty(settingsFlag, rt.SettingsPath)
	rt = rt.WithDefaults()

	if err := os.MkdirAll(filepath.Dir(rt.DBPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	store, err := sqlitestore.Open(rt.DBPath)
	if err != nil {
		return fmt.Errorf("open sqlite store: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}

	colony, err := buildColony(rt.ScenarioPath)
	if err != nil {
		return err
	}
	settings, err := loadOrInitSettings(rt.SettingsPath)
	if err != nil {
		return err
	}

	bus := inproc.New(256)
	svc := session.New(colony, settings, store, bus, session.Config{
		StepInterval:     durationMS(rt.StepIntervalMS, 50*time.Millisecond),
		TicksPerStep:     rt.TicksPerStep,
		AutosaveInterval: durationMS(rt.AutosaveIntervalMS, time.Minute),
		PollInterval:     rt.PollIntervalTicks,
		SavePath:         rt.SavePath,
		SettingsPath:     rt.SettingsPath,
	}, logger)

	if _, err := os.Stat(rt.SavePath); err == nil {
		if _, err := svc.Load(rt.SavePath); err != nil {
			return fmt.Errorf("load save: %w", err)
		}
	}

	watcher, err := config.NewWatcher(rt.SettingsPath, svc.ApplySettings, logger)
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		logger.Warn("settings watcher disabled", zap.Error(err))
	}
	defer watcher.Stop()

	svc.Start(ctx)

	a := newApp(svc, bus, logger)
	server := &http.Server{
		Addr:              rt.Addr,
		Handler:           loggingMiddleware(logger, a.routes()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	server.RegisterOnShutdown(a.closeStreams)

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("scheduled started",
		zap.String("session", svc.ID()),
		zap.String("addr", rt.Addr),
		zap.String("db", rt.DBPath),
		zap.String("save", rt.SavePath),
		zap.String("settings", rt.SettingsPath),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		svc.Wait()
		return fmt.Errorf("http server failed: %w", err)
	}

	svc.Wait()
	if err := svc.Save(""); err != nil {
		logger.Warn("final save failed", zap.Error(err))
	}
	return nil
}

func buildColony(scenarioPath string) (*sim.Colony, error) {
	if scenarioPath == "" {
		return sim.DemoScenario().Build(), nil
	}
	sc, err := sim.LoadScenario(scenarioPath)
	if err != nil {
		return nil, err
	}
	return sc.Build(), nil
}

// loadOrInitSettings writes the default slot table on first run.
func loadOrInitSettings(path string) (*config.Settings, error) {
	s, err := config.LoadSettings(path)
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	s = config.DefaultSettings()
	if err := config.SaveSettings(path, s); err != nil {
		return nil, err
	}
	logger.Info("wrote default slot settings", zap.String("path", path))
	return &s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func durationMS(v int, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(v) * time.Millisecond
}
