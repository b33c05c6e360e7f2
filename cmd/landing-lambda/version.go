package main

// Build-time version identity, injected via -ldflags:
//
//	go build -ldflags="-X main.version=${VERSION} -X main.commitHash=${COMMIT_HASH} -X main.buildTime=$(date -u +%Y%m%dT%H%M%SZ)"
//
// In development (go run), the defaults are used.
var (
	version    = "dev"
	commitHash = "dev"     // 7-char git commit hash
	buildTime  = "unknown" // UTC timestamp (YYYYMMDDTHHMMSSZ)
)
