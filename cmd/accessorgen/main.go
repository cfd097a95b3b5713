// Command accessorgen generates the typed plugin and version catalog
// accessors of a registry file and caches them in a workspace.
//
// # Configuration
//
// Every flag can be set with an ACCESSORGEN_ environment variable, dashes
// replaced by underscores:
//
//	ACCESSORGEN_WORKSPACE       - workspace directory (default: ~/.cache/accessorgen)
//	ACCESSORGEN_REGISTRY        - registry YAML file
//	ACCESSORGEN_REDIS_URL       - Redis URL or address, enables the shared lock and index
//	ACCESSORGEN_MONGO_URI       - MongoDB URI, enables the MongoDB index
//	ACCESSORGEN_MONGO_DATABASE  - MongoDB database (default: "accessorgen")
//	ACCESSORGEN_MEMO_SIZE       - in-process result memo entries (default: 64)
//	ACCESSORGEN_LOCK_TTL        - Redis lock expiry (default: "2m")
//	ACCESSORGEN_DEBUG           - enable debug logs
//	ACCESSORGEN_FORMAT          - log format: terminal, json or text
//
// # Example
//
//	accessorgen generate --registry plugins.yaml
//	REDIS_URL=redis://localhost:6379 accessorgen cache list --redis-url $REDIS_URL
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
