// Command landing-server runs the landing page API as a standalone HTTP
// server for local development and container deployments.
//
// Routes:
//   - POST /api/enhance: enhance an uploaded or remote photo with Gemini
//   - POST /api/contact: store a contact form submission
//   - GET  /api/health: liveness and build identity
//
// Without CONTACT_TABLE_NAME, contact submissions are kept in memory.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/ai-photo-landing/internal/api"
	"github.com/fpang/ai-photo-landing/internal/auth"
	"github.com/fpang/ai-photo-landing/internal/chat"
	"github.com/fpang/ai-photo-landing/internal/config"
	"github.com/fpang/ai-photo-landing/internal/lambdaboot"
	"github.com/fpang/ai-photo-landing/internal/logging"
)

// limiterSweepInterval is how often idle per-client limiters are dropped.
const limiterSweepInterval = time.Minute

// CLI flags not backed by config keys.
var (
	configFileFlag  string
	validateKeyFlag bool
	jsonLogsFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "landing-server",
	Short: "HTTP API for the AI photo landing page",
	Long: `Landing Server serves the photo enhancement and contact endpoints used by
the landing page. Configuration is read from config.yaml, environment
variables and flags, in increasing priority.

Examples:
  landing-server
  landing-server --port 9090 --log-level debug
  landing-server --gemini-model gemini-2.5-flash-image --validate-key
  GEMINI_API_KEY=... CONTACT_TABLE_NAME=contacts landing-server`,
	SilenceUsage: true,
	RunE:         runMain,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configFileFlag, "config", "", "Path to a config file (default: ./config.yaml if present)")
	f.BoolVar(&validateKeyFlag, "validate-key", false, "Validate the Gemini API key with a test request before serving")
	f.BoolVar(&jsonLogsFlag, "json-logs", false, "Write JSON logs to stdout instead of console output")

	f.Int(config.FlagName(config.KeyPort), config.DefaultPort, "Port to listen on")
	f.String(config.FlagName(config.KeyGeminiModel), config.DefaultModel, "Gemini model to use")
	f.Int32(config.FlagName(config.KeyMaxOutputTokens), config.DefaultMaxOutputTokens, "Maximum output tokens per enhancement")
	f.String(config.FlagName(config.KeyLogLevel), config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	f.String(config.FlagName(config.KeyContactTable), "", "DynamoDB table for contact submissions")
	f.String(config.FlagName(config.KeySSMAPIKeyParam), "", "SSM parameter holding the Gemini API key")
	f.Float64(config.FlagName(config.KeyRateLimitRPS), 0, "Per-client requests per second (0 disables)")
	f.Int(config.FlagName(config.KeyRateLimitBurst), config.DefaultRateLimitBurst, "Per-client burst size")
	f.Duration(config.FlagName(config.KeyEnhanceTimeout), config.DefaultTimeout, "Timeout for one Gemini call")
	f.Duration(config.FlagName(config.KeyFetchTimeout), config.DefaultTimeout, "Timeout for fetching a remote image")
	f.StringSlice(config.FlagName(config.KeyAllowedOrigins), nil, "Extra CORS origins to allow")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.Options{ConfigFile: configFileFlag, Flags: cmd.Flags()})
	if err != nil {
		return err
	}

	format := logging.DefaultFormat()
	if jsonLogsFlag {
		format = logging.FormatJSON
	}
	logging.Init(cfg.LogLevel, format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := lambdaboot.Bootstrap(ctx, cfg, lambdaboot.Options{
		Name:           "landing-server",
		Version:        api.VersionInfo{Version: version, Commit: commitHash, BuildTime: buildTime},
		MemoryFallback: true,
	})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	app.Startup.Config("port", fmt.Sprint(cfg.Port)).Log()

	if validateKeyFlag {
		if err := validateKey(ctx, cfg); err != nil {
			return err
		}
	}

	if app.RateLimiter != nil {
		go app.RateLimiter.Run(ctx, limiterSweepInterval)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      gzhttp.GzipHandler(app.Router(cfg, true)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Starting API server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// validateKey makes one small Gemini request so a bad key fails at startup
// rather than on the first upload.
func validateKey(ctx context.Context, cfg *config.Config) error {
	if cfg.GeminiAPIKey == "" {
		return errors.New("--validate-key requires GEMINI_API_KEY")
	}
	client, err := chat.NewGeminiClient(ctx, cfg.GeminiAPIKey, nil)
	if err != nil {
		return fmt.Errorf("create Gemini client: %w", err)
	}
	if err := auth.ValidateAPIKey(ctx, client.Models, cfg.GeminiModel); err != nil {
		return err
	}
	log.Info().Msg("API key validated")
	return nil
}
