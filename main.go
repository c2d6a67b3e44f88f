// Package main provides the entry point for the content upgrade application.
//
// contentupgrade migrates stored interactive content documents to the current
// schema version of their content type. It runs either as a CLI on single
// files or as an HTTP service accepting batches of upgrade tasks.
//
// Usage:
//
//	contentupgrade upgrade --in content.json
//	contentupgrade service [flags]
//
// Environment Variables:
//   - CONTENTUPGRADE_AUTH_MODE: none, apikey or jwt
//   - CONTENTUPGRADE_AUTH_API_KEY: API key accepted in the x-api-key header
//   - CONTENTUPGRADE_SERVER_PORT: HTTP server port (default: 8080)
package main

import (
	"os"

	"evalgo.org/contentupgrade/cmd"
)

// main is the application entry point that delegates to the cobra command structure.
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
