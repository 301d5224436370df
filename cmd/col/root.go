package col

import (
	"github.com/spf13/cobra"

	"github.com/mjansen/strata/cmd/util"
	"github.com/mjansen/strata/lib/backend"
	"github.com/mjansen/strata/lib/facade"
)

var (
	bk    backend.Backend
	store *facade.Store

	// CollectionCommands represents the collection command group
	CollectionCommands = &cobra.Command{
		Use:               "col",
		Short:             "Perform collection-oriented document operations",
		PersistentPreRunE: setupStore,
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
	CollectionCommands.AddCommand(setCmd)
	CollectionCommands.AddCommand(getCmd)
	CollectionCommands.AddCommand(delCmd)
	CollectionCommands.AddCommand(allCmd)
	CollectionCommands.AddCommand(prefixCmd)
	CollectionCommands.AddCommand(queryCmd)
	CollectionCommands.AddCommand(healthCmd)
}

// setupStore opens the configured backend and builds the façade over it
func setupStore(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	bk, err = util.GetBackend()
	if err != nil {
		return err
	}

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	store = facade.NewStore(bk, s)
	return nil
}
