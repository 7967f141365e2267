package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JStephens858/amperfyHack/internal/ble"
	"github.com/JStephens858/amperfyHack/internal/catalog"
	"github.com/JStephens858/amperfyHack/internal/config"
	"github.com/JStephens858/amperfyHack/internal/link"
	"github.com/JStephens858/amperfyHack/internal/player"
	"github.com/JStephens858/amperfyHack/internal/protocol"
	"github.com/JStephens858/amperfyHack/internal/session"
	"github.com/JStephens858/amperfyHack/internal/settings"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "path to config file (default: ~/.config/amperfy-link/config.yaml)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	setupLogging(cfg.LogLevel)
	printBanner(cfg)

	// Collaborators: the sample catalog and simulated player stand in for a
	// real music backend.
	library := catalog.Sample()
	sim := player.NewSimulated()
	sim.Start()
	defer sim.Close()

	store := settings.NewFileStore(cfg.SettingsPath)

	engine, err := link.New(link.Deps{
		Adapter: ble.NewSystemAdapter(),
		Library: library,
		Player:  sim,
		Store:   store,
	}, link.Options{
		Session: session.Options{
			DeviceName:        cfg.BLE.DeviceName,
			ScanTimeout:       cfg.BLE.ScanTimeout.Std(),
			ReconnectAttempts: cfg.BLE.Reconnect.MaxAttempts,
			ReconnectDelay:    cfg.BLE.Reconnect.Delay.Std(),
		},
		ProgressInterval: cfg.Protocol.ProgressInterval.Std(),
		PageDelay:        cfg.Protocol.PageDelay.Std(),
	})
	if err != nil {
		log.Fatalf("link: %v", err)
	}
	defer engine.Close()

	engine.OnStateChange(func(st session.State) {
		slog.Info("[Main] link state", "state", st)
	})
	engine.OnError(func(report protocol.ErrorReport) {
		slog.Warn("[Main] peer reported error", "code", report.Code, "message", report.Message)
	})

	if err := engine.Start(); err != nil {
		log.Fatalf("start: %v", err)
	}

	// Without a persisted peer the startup path stays idle; kick off a scan.
	st, err := store.Load()
	if err != nil || !st.AutoReconnect || st.PeerID == "" {
		slog.Info("[Main] scanning for a display")
		if err := engine.Connect(); err != nil {
			log.Fatalf("connect: %v", err)
		}
	}

	// Signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	slog.Info("[Main] shutting down", "signal", sig.String())
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	// Try default config path
	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	// No config file, use defaults
	log.Println("No config file found, using defaults")
	return config.Default(), nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	fmt.Println("=== amperfy-link ===")
	fmt.Printf("  Device:    %s\n", orAny(cfg.BLE.DeviceName))
	fmt.Printf("  Scan:      %s\n", cfg.BLE.ScanTimeout.Std())
	fmt.Printf("  Reconnect: %d attempt(s), %s apart\n", cfg.BLE.Reconnect.MaxAttempts, cfg.BLE.Reconnect.Delay.Std())
	fmt.Printf("  Progress:  every %s\n", cfg.Protocol.ProgressInterval.Std())
	fmt.Printf("  Settings:  %s\n", cfg.SettingsPath)
	fmt.Printf("  Log:       %s\n", cfg.LogLevel)
	fmt.Println("====================")
}

func orAny(name string) string {
	if name == "" {
		return "(any)"
	}
	return name
}
