// Package lambdaboot holds the shared cold-start bootstrap used by both the
// Lambda function and the standalone server: AWS config, the contact store,
// the Gemini key and the enhancement gateway, composed from configuration.
package lambdaboot

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-photo-landing/internal/api"
	"github.com/fpang/ai-photo-landing/internal/auth"
	"github.com/fpang/ai-photo-landing/internal/chat"
	"github.com/fpang/ai-photo-landing/internal/config"
	"github.com/fpang/ai-photo-landing/internal/contact"
	"github.com/fpang/ai-photo-landing/internal/enhance"
	"github.com/fpang/ai-photo-landing/internal/logging"
	"github.com/fpang/ai-photo-landing/internal/store"
)

// AWSClients holds the core AWS SDK clients.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS(ctx context.Context) (AWSClients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return AWSClients{}, fmt.Errorf("load AWS config: %w", err)
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}, nil
}

// InitDynamoOptional creates a DynamoDB contact store if tableName is set.
// Returns nil (with a warning) if not configured.
func InitDynamoOptional(cfg aws.Config, tableName string) *store.DynamoStore {
	if tableName == "" {
		log.Warn().Str("envVar", config.EnvName(config.KeyContactTable)).Msg("DynamoDB table not set — contact store disabled")
		return nil
	}
	return store.NewDynamoStore(dynamodb.NewFromConfig(cfg), tableName)
}

// Options tune Bootstrap for the calling binary.
type Options struct {
	// Name identifies the binary in the startup log.
	Name string
	// Version is reported by the health endpoint.
	Version api.VersionInfo
	// MemoryFallback selects an in-memory contact store when no table is
	// configured (local development). Without it contact submissions report
	// the service as initializing.
	MemoryFallback bool
	// HTTPClient is used for remote image fetches and Gemini calls.
	HTTPClient *http.Client
}

// App is the composed API.
type App struct {
	Handler     *api.Handler
	Gateway     *enhance.Gateway
	RateLimiter *api.RateLimiter
	Startup     *logging.StartupLogger
}

// Bootstrap wires config into the API handler. AWS is only contacted when a
// contact table or an SSM key parameter is configured. A missing Gemini key
// is not fatal: the enhancement route answers 500 until one is provided.
func Bootstrap(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	initStart := time.Now()
	startup := logging.NewStartupLogger(opts.Name).
		CommitHash(opts.Version.Commit).
		BuildTime(opts.Version.BuildTime)

	var clients *AWSClients
	needAWS := cfg.ContactTableName != "" || (cfg.GeminiAPIKey == "" && cfg.SSMAPIKeyParam != "")
	if needAWS {
		c, err := InitAWS(ctx)
		if err != nil {
			return nil, err
		}
		clients = &c
	}

	// Gemini key and enhancer.
	var ssmClient auth.ParameterGetter
	if clients != nil {
		ssmClient = clients.SSM
	}
	apiKey, source, err := auth.GetAPIKey(ctx, cfg.GeminiAPIKey, cfg.SSMAPIKeyParam, ssmClient)
	if err != nil {
		return nil, err
	}
	if source == auth.SourceSSM {
		startup.SSMParam("geminiApiKey", cfg.SSMAPIKeyParam)
	}

	var enhancer enhance.Enhancer
	if apiKey != "" {
		e, err := chat.NewImageEnhancer(ctx, apiKey, chat.EnhancerOptions{
			Model:           cfg.GeminiModel,
			Timeout:         cfg.EnhanceTimeout,
			MaxOutputTokens: cfg.MaxOutputTokens,
			HTTPClient:      opts.HTTPClient,
		})
		if err != nil {
			return nil, err
		}
		enhancer = e
		startup.Config("model", e.Model())
	}
	gateway := enhance.NewGateway(enhancer, enhance.Options{
		HTTPClient:   opts.HTTPClient,
		FetchTimeout: cfg.FetchTimeout,
	})

	// Contact store.
	var contactStore store.ContactStore
	if clients != nil && cfg.ContactTableName != "" {
		contactStore = InitDynamoOptional(clients.Config, cfg.ContactTableName)
		startup.DynamoTable("contacts", cfg.ContactTableName)
	} else if opts.MemoryFallback {
		log.Warn().Msg("CONTACT_TABLE_NAME not set — contact submissions are kept in memory")
		contactStore = store.NewMemoryStore()
	}
	var contactSvc *contact.Service
	if contactStore != nil {
		contactSvc = contact.NewService(contactStore)
	}

	limiter := api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	startup.
		Feature("geminiConfigured", gateway.Configured()).
		Feature("contactStore", contactSvc != nil).
		Feature("rateLimit", limiter != nil).
		Config("apiKeySource", string(source)).
		Config("enhanceTimeout", cfg.EnhanceTimeout.String()).
		Config("fetchTimeout", cfg.FetchTimeout.String()).
		Config("logLevel", cfg.LogLevel).
		InitDuration(time.Since(initStart))

	return &App{
		Handler:     api.NewHandler(gateway, contactSvc, opts.Version),
		Gateway:     gateway,
		RateLimiter: limiter,
		Startup:     startup,
	}, nil
}

// Router builds the API router for app using cfg's CORS settings.
func (a *App) Router(cfg *config.Config, allowLocalhost bool) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Handler:        a.Handler,
		RateLimiter:    a.RateLimiter,
		AllowedOrigins: cfg.AllowedOrigins,
		AllowLocalhost: allowLocalhost,
		EnvVars:        config.RequiredEnv,
	})
}
