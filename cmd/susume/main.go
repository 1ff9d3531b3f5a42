// Package main is the Susume CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/auth"
	"github.com/hyperjump/susume/internal/cli"
	"github.com/hyperjump/susume/internal/config"
	"github.com/hyperjump/susume/internal/freshness"
	"github.com/hyperjump/susume/internal/library"
	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/internal/poster"
	"github.com/hyperjump/susume/internal/recommend"
	"github.com/hyperjump/susume/internal/server"
	"github.com/hyperjump/susume/internal/storage"
	"github.com/hyperjump/susume/internal/titles"
	"github.com/hyperjump/susume/internal/watcher"
	"github.com/hyperjump/susume/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/susume/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "rebuild":
		runRebuild()
	case "recommend":
		runRecommend()
	case "status":
		runStatus()
	case "register":
		runRegister()
	case "version", "--version", "-v":
		fmt.Printf("susume version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: susume <command> [flags]

Commands:
  server     Start the recommendation web server
  rebuild    Rebuild the catalog and similarity matrix from the dataset
  recommend  Get recommendations for a movie title
  status     Show dataset and library status
  register   Register a user account
  version    Print version
  help       Show this help

Run 'susume <command> -h' for command flags.

recommend and status talk to a running server when -server is set
(the default); pass -server "" to work on the local data directly.
rebuild always works directly; stop the server first, or use the
server's refresh endpoint instead.`)
}

// components holds the shared pieces behind every command that touches the
// data directory.
type components struct {
	Users     *auth.Store
	Titles    *titles.Index
	Monitor   *freshness.Monitor
	Rebuilder *library.Rebuilder
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	users, err := auth.NewStore(cfg.Storage.DatabasePath, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	titleIndex, err := titles.Open(cfg.Storage.TitleIndexPath)
	if err != nil {
		_ = users.Close()
		return nil, fmt.Errorf("open title index: %w", err)
	}
	monitor := freshness.NewMonitor(cfg.Storage.DatasetPath, cfg.Storage.FreshnessPath)
	rebuilder, err := library.NewRebuilder(
		cfg.Storage.DatasetPath,
		cfg.Storage.CatalogPath,
		cfg.Storage.MatrixPath,
		library.WithLogger(logger),
		library.WithTitleIndex(titleIndex),
	)
	if err != nil {
		_ = titleIndex.Close()
		_ = users.Close()
		return nil, fmt.Errorf("create rebuilder: %w", err)
	}
	return &components{
		Users:     users,
		Titles:    titleIndex,
		Monitor:   monitor,
		Rebuilder: rebuilder,
	}, nil
}

func (c *components) Close() {
	_ = c.Titles.Close()
	_ = c.Users.Close()
}

// loadLibrary returns a library holding a snapshot that matches the current
// dataset: a rebuild when the dataset is new or changed, the persisted pair
// otherwise. Failure to produce a snapshot is fatal for the caller.
func loadLibrary(ctx context.Context, comps *components) (*library.Library, error) {
	stale, err := comps.Monitor.ShouldRebuild()
	if err != nil {
		return nil, err
	}
	if stale {
		current, err := comps.Monitor.CurrentModified()
		if err != nil {
			return nil, err
		}
		snap, err := comps.Rebuilder.Rebuild(ctx)
		if err != nil {
			return nil, fmt.Errorf("rebuild library: %w", err)
		}
		if err := comps.Monitor.MarkRebuilt(current); err != nil {
			return nil, fmt.Errorf("record rebuild: %w", err)
		}
		return library.New(snap), nil
	}
	snap, err := library.LoadSnapshot(
		comps.Rebuilder.CatalogPath(), comps.Rebuilder.MatrixPath())
	if err != nil {
		return nil, err
	}
	return library.New(snap), nil
}

func newEngine(cfg *config.Config, lib *library.Library, logger *zap.Logger) *recommend.Engine {
	opts := []recommend.Option{recommend.WithLogger(logger)}
	if cfg.Poster.APIKey != "" {
		resolver := poster.NewResolver(
			cfg.Poster.APIKey,
			cfg.Poster.BaseURL,
			cfg.Poster.ImageBaseURL,
			poster.WithClient(&http.Client{Timeout: cfg.Poster.Timeout()}),
			poster.WithLogger(logger),
		)
		opts = append(opts, recommend.WithPosters(resolver))
	}
	return recommend.NewEngine(lib, cfg.Recommend.TopN, opts...)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	lib, err := loadLibrary(context.Background(), comps)
	if err != nil {
		logger.Fatal("Failed to load library", zap.Error(err))
	}

	engine := newEngine(cfg, lib, logger)
	sessions := auth.NewSessions(cfg.Auth.SessionTTL())
	srv := server.NewServer(lib, engine, comps.Rebuilder, comps.Monitor,
		comps.Users, sessions, comps.Titles, cfg, logger)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.Enabled {
		watchOpts := []watcher.WatcherOption{watcher.WithDebounce(cfg.Watch.Debounce())}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.NewWatcher(cfg.Storage.DatasetPath, func() {
			if _, err := srv.EnsureFresh(context.Background()); err != nil {
				logger.Warn("watch refresh failed", zap.Error(err))
			}
		}, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runRebuild() {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	current, err := comps.Monitor.CurrentModified()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Rebuild failed: %v\n", err)
		os.Exit(1)
	}
	snap, err := comps.Rebuilder.Rebuild(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Rebuild failed: %v\n", err)
		os.Exit(1)
	}
	if err := comps.Monitor.MarkRebuilt(current); err != nil {
		fmt.Fprintf(os.Stderr, "Rebuild succeeded but recording it failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Rebuilt: %d movies, %dx%d matrix\n",
		snap.Catalog.Len(), snap.Matrix.Size(), snap.Matrix.Size())
}

// argsReorder moves any flags (and their values) that appear after the title
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runRecommend() {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use local data directly)")
	username := fs.String("username", "", "account username (server mode)")
	password := fs.String("password", "", "account password (server mode)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: susume recommend [flags] <title>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		fs.Usage()
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *serverURL != "" {
		client, err := loginClient(*serverURL, *username, *password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
			os.Exit(1)
		}
		response, err := recommendViaHTTP(client, *serverURL, title)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Recommend failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteRecommendations(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct access (when the server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	lib, err := loadLibrary(context.Background(), comps)
	if err != nil {
		logger.Fatal("Failed to load library", zap.Error(err))
	}
	engine := newEngine(cfg, lib, logger)

	start := time.Now()
	results, err := engine.Recommend(context.Background(), title)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recommend failed: %v\n", err)
		os.Exit(1)
	}
	response := &models.RecommendResponse{
		Title:   title,
		Results: results,
		TookMs:  time.Since(start).Milliseconds(),
	}
	if err := cli.WriteRecommendations(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use local data directly)")
	username := fs.String("username", "", "account username (server mode)")
	password := fs.String("password", "", "account password (server mode)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var status cli.DatasetStatus
	if *serverURL != "" {
		client, err := loginClient(*serverURL, *username, *password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
			os.Exit(1)
		}
		res, err := statusViaHTTP(client, *serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		comps, err := initializeComponents(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize components", zap.Error(err))
		}
		defer comps.Close()

		status.LastRebuilt = comps.Monitor.LastRebuilt()
		if stale, err := comps.Monitor.ShouldRebuild(); err == nil {
			status.Stale = stale
		}
		if n, err := comps.Titles.Count(); err == nil {
			status.IndexedTitles = n
		}
		if snap, err := library.LoadSnapshot(
			comps.Rebuilder.CatalogPath(), comps.Rebuilder.MatrixPath()); err == nil {
			status.Movies = snap.Catalog.Len()
			status.MatrixSize = snap.Matrix.Size()
		}
		if bytes, err := storage.UsageBytes(
			cfg.Storage.CatalogPath,
			cfg.Storage.MatrixPath,
			cfg.Storage.DatabasePath,
			cfg.Storage.TitleIndexPath,
		); err == nil {
			status.DiskUsageBytes = bytes
		}
	}
	if err := cli.WriteStatus(os.Stdout, &status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runRegister() {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	username := fs.String("username", "", "username to register")
	password := fs.String("password", "", "password")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if len(*username) < cfg.Auth.MinUsernameLen {
		fmt.Fprintf(os.Stderr, "Username must be at least %d characters\n", cfg.Auth.MinUsernameLen)
		os.Exit(1)
	}
	if len(*password) < cfg.Auth.MinPasswordLen {
		fmt.Fprintf(os.Stderr, "Password must be at least %d characters\n", cfg.Auth.MinPasswordLen)
		os.Exit(1)
	}

	users, err := auth.NewStore(cfg.Storage.DatabasePath, cfg.Auth.BcryptCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open credential store: %v\n", err)
		os.Exit(1)
	}
	defer users.Close()

	if err := users.Register(context.Background(), *username, *password); err != nil {
		fmt.Fprintf(os.Stderr, "Register failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Registered %s\n", *username)
}

// loginClient logs in against the server and returns a client carrying the
// session cookie.
func loginClient(serverURL, username, password string) (*http.Client, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("server mode needs -username and -password (or pass -server \"\" for direct access)")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Jar: jar, Timeout: 30 * time.Second}
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, err
	}
	resp, err := client.Post(serverURL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return client, nil
}

func recommendViaHTTP(client *http.Client, serverURL, title string) (*models.RecommendResponse, error) {
	body, err := json.Marshal(models.RecommendRequest{Title: title})
	if err != nil {
		return nil, err
	}
	resp, err := client.Post(serverURL+"/api/v1/recommendations", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.RecommendResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func statusViaHTTP(client *http.Client, serverURL string) (*cli.DatasetStatus, error) {
	resp, err := client.Get(serverURL + "/api/v1/dataset/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var status cli.DatasetStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &status, nil
}
