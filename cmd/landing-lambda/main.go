// Package main provides the Lambda entry point for the landing page API,
// fronted by an API Gateway HTTP API (payload format 2.0).
//
// Routes:
//   - POST /api/enhance: Gemini photo enhancement
//   - POST /api/contact: contact form submission into DynamoDB
//   - GET  /api/health: liveness and build identity
//
// Configuration comes from the environment at cold start. The Gemini key is
// read from GEMINI_API_KEY, or from the SSM parameter named by
// SSM_API_KEY_PARAM. Without CONTACT_TABLE_NAME the contact route answers 503
// until the table is provisioned.
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-photo-landing/internal/api"
	"github.com/fpang/ai-photo-landing/internal/config"
	"github.com/fpang/ai-photo-landing/internal/lambdaboot"
	"github.com/fpang/ai-photo-landing/internal/logging"
)

var router http.Handler

func init() {
	logging.Init(config.DefaultLogLevel, logging.FormatJSON)

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Init(cfg.LogLevel, logging.FormatJSON)

	app, err := lambdaboot.Bootstrap(context.Background(), cfg, lambdaboot.Options{
		Name:    "landing-lambda",
		Version: api.VersionInfo{Version: version, Commit: commitHash, BuildTime: buildTime},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize API")
	}
	app.Startup.Log()

	// Limiter state is per execution environment. The sweeper is frozen
	// between invocations along with the rest of the process.
	if app.RateLimiter != nil {
		go app.RateLimiter.Run(context.Background(), time.Minute)
	}
	router = app.Router(cfg, false)
}

func main() {
	adapter := httpadapter.NewV2(router)
	lambda.Start(adapter.ProxyWithContext)
}
