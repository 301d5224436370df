package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mjansen/strata/cmd/col"
	"github.com/mjansen/strata/cmd/kv"
	"github.com/mjansen/strata/cmd/serve"
	"github.com/mjansen/strata/cmd/util"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "strata",
		Short: "pluggable key-value and document storage",
		Long: fmt.Sprintf(`strata (v%s)

A key-value storage core with pluggable backends, a collection-oriented
document façade and an HTTP API.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of strata",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("strata v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(col.CollectionCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "backend"
	RootCmd.PersistentFlags().String(key, "memory", util.WrapString("backend to use (memory, badger)"))
	key = "data-dir"
	RootCmd.PersistentFlags().String(key, "data", util.WrapString("data directory for the badger backend"))
	key = "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("document serializer to use (json, yaml)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
