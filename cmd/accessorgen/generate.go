package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"goa.design/accessors/cache"
	"goa.design/accessors/codegen/kotlin"
)

func newGenerateCmd(v *viper.Viper) *cobra.Command {
	var (
		kind     string
		internal bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate or reuse the accessors of a registry",
		Long: `Generate prints the directories holding the accessors of the registry.
With --kind all (the default) both kinds are generated and printed as a
class path, version catalogs first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			snap, err := loadRegistry(v)
			if err != nil {
				return err
			}
			b, err := connect(ctx, v)
			if err != nil {
				return err
			}
			defer b.Close()

			format := kotlin.Default
			if internal {
				format = kotlin.Internal
			}
			g, err := newGateway(v, b, format)
			if err != nil {
				return err
			}

			var out any
			switch strings.ToUpper(kind) {
			case "ALL":
				out, err = g.ClassPath(ctx, snap)
			case string(cache.KindPluginSpecs):
				out, err = g.Generate(ctx, cache.PluginSpecsWork{Snapshot: snap})
			case string(cache.KindVersionCatalogs):
				out, err = g.Generate(ctx, cache.VersionCatalogWork{Snapshot: snap})
			default:
				return fmt.Errorf("unknown kind %q, want all, PS or VC", kind)
			}
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "all", "accessors to generate: all, PS or VC")
	cmd.Flags().BoolVar(&internal, "internal", false, "declare generated sources internal")
	return cmd
}
