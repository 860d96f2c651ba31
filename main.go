// Command monopoly starts the Monopoly game server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket and an /mcp HTTP endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags (each also readable from the environment) control host and port,
// rules and session directories, Redis persistence, logging and optional
// ngrok tunneling. A .env file in the working directory is loaded first.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/monopoly-game/api"
	"github.com/wricardo/monopoly-game/game/config"
	"github.com/wricardo/monopoly-game/game/service"
	"github.com/wricardo/monopoly-game/game/session"
	"github.com/wricardo/monopoly-game/logging"
	"github.com/wricardo/monopoly-game/transport/mcp"
	"github.com/wricardo/monopoly-game/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Monopoly Game Server"
)

// settings is the resolved process configuration
type settings struct {
	Host           string
	Port           int
	ConfigDir      string
	SessionsDir    string
	RedisURL       string
	RedisPrefix    string
	RedisTTL       time.Duration
	SessionTTL     time.Duration
	AllowedOrigins []string
	ExternalAPI    string
	Log            logging.Config
	NgrokEnabled   bool
	NgrokAuthToken string
	NgrokDomain    string
}

func (s settings) addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// runtime holds the wired services of one process
type runtime struct {
	service  service.GameService
	sessions *session.Manager
	store    session.SessionPersistence
}

func appFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
		&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
		&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing rules presets", Sources: cli.EnvVars("CONFIG_DIR")},
		&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for session files (empty disables file persistence)", Sources: cli.EnvVars("SESSIONS_DIR")},
		&cli.StringFlag{Name: "redis-url", Usage: "Redis address or redis:// URL; replaces file persistence", Sources: cli.EnvVars("REDIS_URL")},
		&cli.StringFlag{Name: "redis-prefix", Value: "monopoly", Usage: "Key prefix for Redis persistence", Sources: cli.EnvVars("REDIS_PREFIX")},
		&cli.DurationFlag{Name: "redis-ttl", Usage: "Expiry of persisted sessions in Redis (0 keeps them)", Sources: cli.EnvVars("REDIS_TTL")},
		&cli.DurationFlag{Name: "session-ttl", Value: 24 * time.Hour, Usage: "Idle time after which sessions leave memory", Sources: cli.EnvVars("SESSION_TTL")},
		&cli.StringFlag{Name: "allowed-origins", Value: "*", Usage: "Comma separated CORS origins", Sources: cli.EnvVars("ALLOWED_ORIGINS")},
		&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "External API probed by the mcp command", Sources: cli.EnvVars("API_URL")},
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error", Sources: cli.EnvVars("LOG_LEVEL")},
		&cli.StringFlag{Name: "log-format", Value: "console", Usage: "console or json", Sources: cli.EnvVars("LOG_FORMAT")},
		&cli.StringFlag{Name: "log-file", Usage: "Also write rotated JSON logs to this file", Sources: cli.EnvVars("LOG_FILE")},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
	}
}

func settingsFromCommand(cmd *cli.Command) settings {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cmd.String("log-level")
	logCfg.Format = cmd.String("log-format")
	logCfg.File = cmd.String("log-file")

	var origins []string
	for _, origin := range strings.Split(cmd.String("allowed-origins"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	return settings{
		Host:           cmd.String("host"),
		Port:           int(cmd.Int("port")),
		ConfigDir:      cmd.String("config-dir"),
		SessionsDir:    cmd.String("sessions-dir"),
		RedisURL:       cmd.String("redis-url"),
		RedisPrefix:    cmd.String("redis-prefix"),
		RedisTTL:       cmd.Duration("redis-ttl"),
		SessionTTL:     cmd.Duration("session-ttl"),
		AllowedOrigins: origins,
		ExternalAPI:    cmd.String("api-url"),
		Log:            logCfg,
		NgrokEnabled:   cmd.Bool("ngrok"),
		NgrokAuthToken: cmd.String("ngrok-auth"),
		NgrokDomain:    cmd.String("ngrok-domain"),
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:           "monopoly",
		Usage:          AppName,
		Version:        Version,
		Flags:          appFlags(),
		DefaultCommand: "server",
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with REST API, WebSocket and MCP endpoint",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withRuntime(ctx, cmd, runHTTPServer)
				},
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server, starting an internal HTTP API when none is reachable",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withRuntime(ctx, cmd, runStdioMCP)
				},
			},
		},
	}
}

// main loads .env, then runs the selected command until a signal arrives
func main() {
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", envErr)
	}

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

// withRuntime builds the logger and services, runs fn and flushes sessions on the way out
func withRuntime(ctx context.Context, cmd *cli.Command, fn func(context.Context, settings, *runtime, *zap.Logger) error) error {
	cfg := settingsFromCommand(cmd)

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.String("app", AppName),
		zap.String("version", Version),
		zap.String("mode", cmd.Name))

	rt, err := initializeServices(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	runErr := fn(ctx, cfg, rt, logger)

	if err := rt.sessions.SaveAllSessions(); err != nil {
		logger.Warn("failed to flush sessions", zap.Error(err))
	}
	return runErr
}

// initializeServices wires config, persistence, session manager and the game
// service, and starts the background maintenance routines bound to ctx.
func initializeServices(ctx context.Context, cfg settings, logger *zap.Logger) (*runtime, error) {
	configManager, err := config.NewManager(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	store, err := newPersistence(cfg, configManager, logger)
	if err != nil {
		return nil, err
	}

	opts := []session.Option{session.WithLogger(logger.Named("session"))}
	if store != nil {
		opts = append(opts, session.WithPersistence(store))
	}
	sessionManager := session.NewManager(opts...)

	if err := sessionManager.LoadPersistedSessions(); err != nil {
		logger.Warn("failed to load persisted sessions", zap.Error(err))
	}

	gameService := service.NewGameService(sessionManager, configManager, logger.Named("service"))

	go sessionCleanupRoutine(ctx, sessionManager, cfg.SessionTTL, logger)
	if store != nil {
		go storageSyncRoutine(ctx, sessionManager, store, logger)
	}

	return &runtime{
		service:  gameService,
		sessions: sessionManager,
		store:    store,
	}, nil
}

// newPersistence prefers Redis when configured, then files; nil disables persistence
func newPersistence(cfg settings, configs service.ConfigManager, logger *zap.Logger) (session.SessionPersistence, error) {
	if cfg.RedisURL != "" {
		store, err := session.NewRedisPersistence(session.NewRedisPool(cfg.RedisURL), cfg.RedisPrefix, cfg.RedisTTL, configs)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis persistence: %w", err)
		}
		logger.Info("persisting sessions to redis", zap.String("prefix", cfg.RedisPrefix))
		return store, nil
	}

	if cfg.SessionsDir != "" {
		store, err := session.NewFilePersistence(cfg.SessionsDir, configs)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		logger.Info("persisting sessions to files", zap.String("dir", cfg.SessionsDir))
		return store, nil
	}

	logger.Info("session persistence disabled")
	return nil, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within ttl
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration, logger *zap.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				logger.Info("cleaned up expired sessions", zap.Int("count", removed))
			}
		}
	}
}

// storageSyncRoutine drops in-memory sessions whose stored copy was removed
// out of band (file deleted, Redis key expired)
func storageSyncRoutine(ctx context.Context, manager *session.Manager, store session.SessionPersistence, logger *zap.Logger) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned := pruneOrphanedSessions(manager, store)
			if pruned > 0 {
				logger.Info("pruned sessions missing from storage", zap.Int("count", pruned))
			}
		}
	}
}

func pruneOrphanedSessions(manager *session.Manager, store session.SessionPersistence) int {
	pruned := 0
	for _, sess := range manager.List() {
		if !store.Exists(sess.ID) {
			if err := manager.DeleteFromMemory(sess.ID); err == nil {
				pruned++
			}
		}
	}
	return pruned
}

// newRootHandler mounts the API and the JSON-RPC /mcp endpoint on one mux
func newRootHandler(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
	return mainRouter
}

// runHTTPServer serves the REST API, WebSocket hub and /mcp endpoint until ctx
// is cancelled. With ngrok enabled the same handler is also served through a
// public tunnel.
func runHTTPServer(ctx context.Context, cfg settings, rt *runtime, logger *zap.Logger) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()

	hub := websocket.NewHub(rt.service, logger.Named("websocket"))
	go hub.Run(hubCtx)

	apiServer := api.NewServer(rt.service, hub,
		api.WithLogger(logger.Named("api")),
		api.WithAllowedOrigins(cfg.AllowedOrigins...))

	addr := cfg.addr()
	handler := newRootHandler(apiServer, mcp.NewClient("http://"+addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", "http://"+addr+"/api"),
			zap.String("websocket", "ws://"+addr+"/ws?session=<session_id>&player=<player_id>"),
			zap.String("mcp", "http://"+addr+"/mcp"))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg, handler, logger.Named("ngrok"))
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-serveErr:
		logger.Error("HTTP server failed", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}
	stopHub()

	wg.Wait()
	logger.Info("server stopped")
	return runErr
}

func runNgrokTunnel(ctx context.Context, cfg settings, handler http.Handler, logger *zap.Logger) {
	if cfg.NgrokAuthToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuthToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	url := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("api", url+"/api"),
		zap.String("mcp", url+"/mcp"))

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Warn("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// runStdioMCP runs an MCP stdio server. It reuses an external API when one
// answers on cfg.ExternalAPI, otherwise it starts an internal HTTP API bound
// to a random loopback port. Logs go to stderr; stdout carries the protocol.
func runStdioMCP(ctx context.Context, cfg settings, rt *runtime, logger *zap.Logger) error {
	baseURL := cfg.ExternalAPI

	if !apiReachable(baseURL) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hubCtx, stopHub := context.WithCancel(ctx)
		defer stopHub()
		hub := websocket.NewHub(rt.service, logger.Named("websocket"))
		go hub.Run(hubCtx)

		httpServer := &http.Server{
			Handler: api.NewServer(rt.service, hub, api.WithLogger(logger.Named("api"))),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		logger.Info("started internal HTTP server for MCP stdio", zap.String("url", baseURL))
	} else {
		logger.Info("using external API server for MCP stdio", zap.String("url", baseURL))
	}

	mcpClient := mcp.NewClient(baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func apiReachable(baseURL string) bool {
	if baseURL == "" {
		return false
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(strings.TrimRight(baseURL, "/") + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
