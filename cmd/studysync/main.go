package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/studysync/internal/logger"
	"github.com/marmos91/studysync/pkg/config"
	"github.com/marmos91/studysync/pkg/metrics"
	"github.com/marmos91/studysync/pkg/remote"
	"github.com/marmos91/studysync/pkg/study"
	syncpkg "github.com/marmos91/studysync/pkg/sync"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	initConfig := flag.Bool("init-config", false, "Write an example config file to the default location and exit")
	studyID := flag.String("study", "", "Study identifier (overrides config)")
	serverURL := flag.String("server", "", "Session server base URL (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: DEBUG, INFO, WARN, ERROR (overrides config)")
	ephemeral := flag.Bool("ephemeral", false, "Use an in-memory keystore; nothing persists across runs")
	flag.Parse()

	if *initConfig {
		if err := writeExampleConfig(); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Wrote example config to %s\n", config.GetDefaultConfigPath())
		return
	}

	// CLI flags override file values by feeding viper's environment layer
	// before the config is loaded and validated
	if *studyID != "" {
		_ = os.Setenv("STUDYSYNC_STUDY_ID", *studyID)
	}
	if *serverURL != "" {
		_ = os.Setenv("STUDYSYNC_REMOTE_BASE_URL", *serverURL)
	}
	if *logLevel != "" {
		_ = os.Setenv("STUDYSYNC_LOGGING_LEVEL", strings.ToUpper(*logLevel))
	}
	if *ephemeral {
		_ = os.Setenv("STUDYSYNC_KEYSTORE_TYPE", "memory")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	defer func() { _ = logger.Close() }()

	if err := run(cfg); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id := study.ID(cfg.Study.ID)

	var syncMetrics metrics.SyncMetrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		syncMetrics = metrics.NewSyncMetrics()
		go serveMetrics(cfg.Metrics.ListenAddress)
	}

	store, err := config.CreateKeystore(ctx, &cfg.Keystore)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	prompter := newTerminalPrompter(os.Stdin, os.Stdout)
	strategy, err := config.CreateStrategy(ctx, &cfg.Storage, store, id, prompter, prompter)
	if err != nil {
		return err
	}

	client, err := remote.New(cfg.Remote)
	if err != nil {
		return err
	}

	manager, err := syncpkg.New(syncpkg.Config{
		StudyID:      id,
		BaseFilename: cfg.Study.BaseFilename,
		Strategy:     strategy,
		Client:       client,
		Notifier:     &terminalNotifier{out: os.Stdout},
		Metrics:      syncMetrics,
	})
	if err != nil {
		return err
	}

	logger.Info("Study %s, strategy %s, server %s", id, strategy.Name(), cfg.Remote.BaseURL)

	if err := manager.Init(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	go manager.Run(ctx, cfg.Sync.Interval)

	if cfg.Sync.Watch {
		go func() {
			if err := manager.Watch(ctx); err != nil {
				logger.Warn("Directory watcher unavailable: %v", err)
			}
		}()
	}

	// The command loop runs until stdin closes or the user quits. Each
	// typed command is the direct user gesture that makes prompting legal.
	done := make(chan struct{})
	go commandLoop(ctx, manager, done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received")
	case <-done:
	}

	cancel()

	// Best-effort close notification, bounded so shutdown never hangs
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	manager.Close(closeCtx)

	return nil
}

// commandLoop reads user commands from stdin until quit or EOF.
func commandLoop(ctx context.Context, manager *syncpkg.Manager, done chan<- struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(os.Stdin)
	printHelp()

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "status":
			badge := syncpkg.BadgeFor(manager.State())
			fmt.Printf("%s %s\n", badge.Icon, badge.Text)
		case "connect":
			if err := manager.ConnectStorage(ctx); err != nil {
				fmt.Printf("! connect failed: %v\n", err)
			}
		case "authorize":
			if err := manager.AuthorizeStorage(ctx); err != nil {
				fmt.Printf("! authorize failed: %v\n", err)
			}
		case "sync":
			if _, err := manager.SyncProjectState(ctx); err != nil {
				fmt.Printf("! sync finished with errors: %v\n", err)
			}
		case "push":
			if err := manager.HydrateServer(ctx); err != nil {
				fmt.Printf("! upload failed: %v\n", err)
			}
		case "pull":
			if len(fields) < 2 {
				fmt.Println("usage: pull <filename>")
				continue
			}
			if err := manager.PullFromServerAndSave(ctx, fields[1], false); err != nil {
				fmt.Printf("! pull failed: %v\n", err)
			}
		case "files":
			for _, name := range manager.Files().Names() {
				fmt.Println(name)
			}
		case "help":
			printHelp()
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q (try help)\n", fields[0])
		}
	}
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  status     show connection state")
	fmt.Println("  connect    choose a local directory for study files")
	fmt.Println("  authorize  grant write access to the connected directory")
	fmt.Println("  sync       download all tracked files from the session")
	fmt.Println("  push       upload local files to the session")
	fmt.Println("  pull <f>   download one file from the session")
	fmt.Println("  files      list tracked filenames")
	fmt.Println("  quit       close the session and exit")
}

// serveMetrics exposes /metrics on the configured address.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	logger.Info("Metrics listening on http://%s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("Metrics endpoint failed: %v", err)
	}
}

// writeExampleConfig writes a commented starting configuration to the
// default location, refusing to overwrite an existing file.
func writeExampleConfig() error {
	path := config.GetDefaultConfigPath()
	if config.ConfigExists() {
		return fmt.Errorf("config already exists at %s", path)
	}

	example := map[string]any{
		"logging": map[string]any{
			"level":  "INFO",
			"format": "text",
			"output": "stdout",
		},
		"study": map[string]any{
			"id":            "my-study",
			"base_filename": "data.csv",
		},
		"remote": map[string]any{
			"base_url":            "https://study.example.org",
			"timeout":             "30s",
			"requests_per_second": 10,
			"burst":               5,
		},
		"keystore": map[string]any{
			"type": "badger",
		},
		"storage": map[string]any{
			"type": "auto",
		},
		"sync": map[string]any{
			"interval": "60s",
			"watch":    false,
		},
		"metrics": map[string]any{
			"enabled": false,
		},
	}

	encoded, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to encode example config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
