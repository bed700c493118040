// Command padlink starts the PadLink relay server.
//
// The server pairs a browser "desktop" display with phone "controller"
// clients: a session is created over REST, both clients open WebSocket
// connections and join the session room, and the relay fans control and
// score events out to the other room members.
//
// Flags control the listen address, the display client port advertised to
// phones, debug logging, session expiry, and optional ngrok tunneling for
// easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/padlink/padlink/api"
	"github.com/padlink/padlink/relay"
	"github.com/padlink/padlink/session"
	mcpTransport "github.com/padlink/padlink/transport/mcp"
	wsTransport "github.com/padlink/padlink/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "PadLink Relay Server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load .env if present; a missing file is not an error.
	if err := godotenv.Load(); err == nil {
		logger.Info().Msg("loaded environment variables from .env file")
	}

	fs := pflag.NewFlagSet("padlink", pflag.ContinueOnError)
	var (
		listenAddr    = fs.StringP("listen-addr", "a", ":5002", "relay listen address")
		displayPort   = fs.IntP("display-port", "d", 5173, "port the desktop display client is served on")
		logLevel      = fs.StringP("log-level", "l", "info", "log level")
		sessionMaxAge = fs.Duration("session-max-age", 24*time.Hour, "idle time before a session is expired")
		showVersion   = fs.Bool("version", false, "show version information")
		ngrokEnabled  = fs.Bool("ngrok", false, "enable ngrok tunnel")
		ngrokAuth     = fs.String("ngrok-auth", "", "ngrok auth token (or use NGROK_AUTHTOKEN env var)")
		ngrokDomain   = fs.String("ngrok-domain", "", "custom ngrok domain (optional)")
	)
	if err := fs.Parse(os.Args[1:]); err != nil {
		logger.Fatal().Err(err).Msg("failed to parse command line arguments")
	}

	if *showVersion {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse log level")
	}
	logger = logger.Level(lvl)

	logger.Info().
		Str("version", Version).
		Str("addr", *listenAddr).
		Int("displayPort", *displayPort).
		Msg("starting relay server")

	// Wire registry -> hub -> engine -> API.
	registry := session.NewRegistry()
	hub := wsTransport.NewHub(&logger)
	engine := relay.NewEngine(relay.Config{
		Registry: registry,
		Rooms:    hub,
		Logger:   &logger,
	})
	hub.SetHandlers(engine.Dispatch, engine.HandleDisconnect)

	apiServer := api.NewServer(api.Config{
		Registry:    registry,
		Hub:         hub,
		DisplayPort: *displayPort,
		Logger:      &logger,
	})

	mcpClient := mcpTransport.NewClient(baseURL(*listenAddr))

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

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	httpServer := &http.Server{
		Addr:        *listenAddr,
		Handler:     mainRouter,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, registry, *sessionMaxAge, &logger)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info().Str("addr", *listenAddr).Msg("relay listening")
		logger.Info().Msgf("REST API: http://%s/api", hostAddr(*listenAddr))
		logger.Info().Msgf("WebSocket: ws://%s/ws", hostAddr(*listenAddr))
		logger.Info().Msgf("MCP endpoint: http://%s/mcp", hostAddr(*listenAddr))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Check if ngrok should be enabled (from flag or environment).
	ngrokShouldRun := *ngrokEnabled
	if !ngrokShouldRun {
		if envEnabled := os.Getenv("NGROK_ENABLED"); envEnabled == "true" || envEnabled == "1" {
			ngrokShouldRun = true
		}
	}

	if ngrokShouldRun {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, mainRouter, *ngrokAuth, *ngrokDomain, &logger)
		}()
	}

	sig := <-stop
	logger.Warn().Str("signal", sig.String()).Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}

	wg.Wait()
	logger.Info().Msg("server stopped")
}

// sessionCleanupRoutine periodically removes sessions that have not been
// touched within the retention window.
func sessionCleanupRoutine(ctx context.Context, registry *session.Registry, maxAge time.Duration, logger *zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := registry.CleanupExpired(maxAge); removed > 0 {
				logger.Info().Int("removed", removed).Msg("cleaned up expired sessions")
			}
		}
	}
}

// runNgrokTunnel provisions a public tunnel and serves the same router
// through it. Failures are logged; the local server keeps running.
func runNgrokTunnel(ctx context.Context, handler http.Handler, authToken, domain string, logger *zerolog.Logger) {
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
	}
	if authToken == "" {
		logger.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info().Str("domain", domain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}
	defer tun.Close()

	logger.Info().Str("url", tun.URL()).Msg("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("ngrok server error")
	}
}

// baseURL turns a listen address into a loopback URL the MCP proxy can
// call, e.g. ":5002" -> "http://127.0.0.1:5002".
func baseURL(listenAddr string) string {
	return "http://" + hostAddr(listenAddr)
}

// hostAddr fills in a loopback host when the listen address only names a
// port.
func hostAddr(listenAddr string) string {
	if strings.HasPrefix(listenAddr, ":") {
		return "127.0.0.1" + listenAddr
	}
	return listenAddr
}
