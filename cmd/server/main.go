// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/api/socket"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/api/web"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/filter"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/app/session"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/infra/config"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/infra/logger"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/infra/spotify"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/infra/store"
)

var (
	app        = kingpin.New("jukebox-server", "Multi-room Spotify jukebox server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Handle list-filters command
	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	// Override with command-line flags if specified
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logCloser.Close()

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	// Validate filter config
	if err := validateFilterConfig(cfg); err != nil {
		return errors.Wrap(err, "invalid filter config")
	}

	// Open snapshot store
	st, err := store.Open(ctx, cfg.Storage.URL)
	if err != nil {
		return errors.Wrap(err, "failed to open store")
	}

	// Create Spotify client
	spotifyClient, err := spotify.New(spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURL:  cfg.Spotify.RedirectURL,
	})
	if err != nil {
		_ = st.Close()
		return errors.Wrap(err, "failed to create Spotify client")
	}

	// Create session manager
	sessionMgr, err := session.NewManager(cfg, session.Dependencies{
		Store:   st,
		Spotify: spotifyClient,
	})
	if err != nil {
		_ = st.Close()
		return errors.Wrap(err, "failed to create session manager")
	}
	// The manager owns the store from here on and closes it on Stop
	if err := sessionMgr.Start(ctx); err != nil {
		_ = st.Close()
		return errors.Wrap(err, "failed to start session manager")
	}

	// Create HTTP router
	gin.SetMode(gin.ReleaseMode)
	socketServer := socket.New(sessionMgr)
	router := web.NewRouter(cfg, sessionMgr, socketServer)

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to capture server startup errors
	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	// Start server
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s public_url=%s", cfg.Server.Addr, cfg.Server.PublicURL)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for server to start listening
	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	// Execute startup hook if configured (after server is running)
	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		runErr = errors.Wrap(err, "server error")
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop the manager first: it persists a final snapshot and ends open streams
	if err := sessionMgr.Stop(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to stop session manager: %v", err)
	}
	if err := socketServer.Close(); err != nil {
		zlog.Error().Msgf("Failed to close socket server: %v", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	// Execute shutdown hook if configured
	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return runErr
}

// printFilters prints available filters.
func printFilters() {
	registered := filter.GetRegistered()

	fmt.Println("Available Filters:")
	for _, name := range filter.RegisteredNames() {
		f := registered[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		required := ""
		if filter.IsRequired(name) {
			required = " (always on)"
		}
		fmt.Printf("  %-30s - %s%s [codes: %s]\n", f.Name(), f.Description(), required, codes)
	}
}

// validateFilterConfig validates filter configurations.
func validateFilterConfig(cfg *config.Config) error {
	registry := filter.GetRegistered()

	for filterName, filterCfg := range cfg.Filters {
		if !filterCfg.Enabled {
			continue
		}

		factory, exists := registry[filterName]
		if !exists {
			return errors.Newf("unknown filter %q", filterName)
		}

		f := factory()
		if err := f.ValidateConfig(filterCfg.Settings); err != nil {
			return errors.Wrapf(err, "filter %s", filterName)
		}
	}

	return nil
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
