// Package auth resolves the Gemini API key and optionally validates it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// DefaultSSMAPIKeyParam is the conventional parameter path for the key.
const DefaultSSMAPIKeyParam = "/ai-photo-landing/prod/gemini-api-key"

// Source describes where an API key came from.
type Source string

const (
	SourceNone   Source = "none"
	SourceConfig Source = "config"
	SourceSSM    Source = "ssm"
)

// ParameterGetter is the subset of *ssm.Client used to fetch the key.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// GetAPIKey returns the Gemini API key.
// Priority order:
//  1. configured (GEMINI_API_KEY environment variable, config file or flag)
//  2. SSM Parameter Store, when ssmParam is set and a client is given
//
// A missing key is not an error: the enhancement route reports it per
// request. Only a failed SSM read is.
func GetAPIKey(ctx context.Context, configured, ssmParam string, client ParameterGetter) (string, Source, error) {
	if key := strings.TrimSpace(configured); key != "" {
		log.Debug().Msg("Using API key from configuration")
		return key, SourceConfig, nil
	}
	if ssmParam == "" || client == nil {
		log.Warn().Msg("GEMINI_API_KEY is not set; image enhancement is disabled")
		return "", SourceNone, nil
	}

	key, err := LoadAPIKeyFromSSM(ctx, client, ssmParam)
	if err != nil {
		return "", SourceNone, err
	}
	return key, SourceSSM, nil
}

// LoadAPIKeyFromSSM reads a SecureString parameter.
func LoadAPIKeyFromSSM(ctx context.Context, client ParameterGetter, paramName string) (string, error) {
	start := time.Now()
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("read API key from SSM parameter %s: %w", paramName, err)
	}
	if result.Parameter == nil || strings.TrimSpace(aws.ToString(result.Parameter.Value)) == "" {
		return "", errors.New("SSM parameter " + paramName + " is empty")
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(start)).Msg("Gemini API key loaded from SSM")
	return strings.TrimSpace(aws.ToString(result.Parameter.Value)), nil
}
