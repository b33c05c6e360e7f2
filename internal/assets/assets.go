// Package assets provides embedded static assets for the application.
//
// Prompt text is stored under prompts/ and embedded at compile time so it can
// be edited without touching Go code.
package assets
