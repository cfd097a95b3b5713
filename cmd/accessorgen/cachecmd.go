package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"goa.design/accessors/cache"
	"goa.design/accessors/codegen/kotlin"
)

func newCacheCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the generation cache",
	}
	cmd.AddCommand(newCacheListCmd(v))
	return cmd
}

func newCacheListCmd(v *viper.Viper) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published generations recorded in the shared index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			k := cache.Kind(strings.ToUpper(kind))
			switch k {
			case "", cache.KindPluginSpecs, cache.KindVersionCatalogs:
			default:
				return fmt.Errorf("unknown kind %q, want PS or VC", kind)
			}
			b, err := connect(ctx, v)
			if err != nil {
				return err
			}
			defer b.Close()
			if b.index == nil {
				return errors.New("cache list needs a shared index, see --mongo-uri and --redis-url")
			}
			g, err := newGateway(v, b, kotlin.Default)
			if err != nil {
				return err
			}
			entries, err := g.Entries(ctx, k)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "IDENTITY\tKIND\tACCESSORS\tPUBLISHED\tCLASSES")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					e.Identity, e.Kind, e.Accessors, e.PublishedAt.Format(time.RFC3339), e.ClassesDir)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only list PS or VC generations")
	return cmd
}
