package kv

import (
	"github.com/spf13/cobra"

	"github.com/mjansen/strata/cmd/util"
	"github.com/mjansen/strata/lib/backend"
)

var (
	bk backend.Backend

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform primitive key-value, set and sorted-set operations",
		PersistentPreRunE: setupBackend,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if bk != nil {
				return bk.Close()
			}
			return nil
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(existsCmd)
	KeyValueCommands.AddCommand(saddCmd)
	KeyValueCommands.AddCommand(sremCmd)
	KeyValueCommands.AddCommand(smembersCmd)
	KeyValueCommands.AddCommand(scardCmd)
	KeyValueCommands.AddCommand(zaddCmd)
	KeyValueCommands.AddCommand(zremCmd)
	KeyValueCommands.AddCommand(zrangeCmd)
	KeyValueCommands.AddCommand(zrevrangeCmd)
	KeyValueCommands.AddCommand(zrangebyscoreCmd)
	KeyValueCommands.AddCommand(keysCmd)
	KeyValueCommands.AddCommand(pingCmd)
	KeyValueCommands.AddCommand(infoCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupBackend opens the configured backend for the duration of the command
func setupBackend(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	bk, err = util.GetBackend()
	return err
}
