package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"goa.design/clue/log"

	"goa.design/accessors/telemetry"
)

const envPrefix = "ACCESSORGEN"

// Configuration keys, also used as flag names.
const (
	keyWorkspace     = "workspace"
	keyRegistry      = "registry"
	keyRedisURL      = "redis-url"
	keyMongoURI      = "mongo-uri"
	keyMongoDatabase = "mongo-database"
	keyMemoSize      = "memo-size"
	keyLockTTL       = "lock-ttl"
	keyDebug         = "debug"
	keyFormat        = "format"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "accessorgen",
		Short: "Generate typed plugin and version catalog accessors",
		Long: `accessorgen turns a registry of plugin ids and version catalogs into
Kotlin accessor sources and the matching compiled class files.

Outputs are cached in the workspace by registry fingerprint, so running
generate twice on an unchanged registry reuses the first outputs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := telemetry.LogContext(cmd.Context(), v.GetString(keyFormat), v.GetBool(keyDebug))
			if err != nil {
				return err
			}
			// Logs go to stderr, stdout carries the command output.
			cmd.SetContext(log.Context(ctx, log.WithOutput(cmd.ErrOrStderr())))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String(keyWorkspace, defaultWorkspace(), "workspace directory holding generated outputs")
	flags.String(keyRegistry, "", "registry YAML file")
	flags.String(keyRedisURL, "", "Redis URL or address shared by cooperating processes")
	flags.String(keyMongoURI, "", "MongoDB URI of the cache index")
	flags.String(keyMongoDatabase, "accessorgen", "MongoDB database of the cache index")
	flags.Int(keyMemoSize, 64, "number of results memoized in process")
	flags.Duration(keyLockTTL, 2*time.Minute, "expiry of the Redis generation lock")
	flags.Bool(keyDebug, false, "enable debug logs")
	flags.String(keyFormat, "", "log format: terminal, json or text")
	_ = v.BindPFlags(flags)

	root.AddCommand(
		newGenerateCmd(v),
		newSourcesCmd(v),
		newCacheCmd(v),
	)
	return root
}

// defaultWorkspace returns $XDG_CACHE_HOME/accessorgen, falling back to
// ~/.cache/accessorgen.
func defaultWorkspace() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "accessorgen")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "accessorgen")
	}
	return filepath.Join(os.TempDir(), "accessorgen")
}
