package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"goa.design/accessors/codegen/ir"
	"goa.design/accessors/codegen/kotlin"
)

func newSourcesCmd(v *viper.Viper) *cobra.Command {
	var (
		out         string
		packageName string
	)
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Write the plugin accessors as a single internal source file",
		Long: `Sources writes the plugin accessors of the registry to one source file of
internal declarations, for compilation alongside precompiled script
plugins. Nothing is cached and no class files are produced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				return errors.New("an output file is required, see --out")
			}
			snap, err := loadRegistry(v)
			if err != nil {
				return err
			}
			if err := kotlin.WritePluginSpecBuilders(snap.Plugins, out, packageName); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "source file to write")
	cmd.Flags().StringVar(&packageName, "package", ir.DSLPackageName, "package of the generated declarations")
	return cmd
}
