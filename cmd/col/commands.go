package col

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mjansen/strata/lib/facade"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [collection] [id] [document]",
		Short: "Stores a JSON document under (collection, id)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc facade.Document
			if err := json.Unmarshal([]byte(args[2]), &doc); err != nil {
				return fmt.Errorf("document must be a JSON object: %w", err)
			}
			return printResult(store.Set(args[0], args[1], doc))
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [collection] [id]",
		Short: "Reads the document stored under (collection, id)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(store.Get(args[0], args[1]))
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [collection] [id]",
		Short: "Deletes the document stored under (collection, id)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(store.Delete(args[0], args[1]))
		},
	}
	allCmd = &cobra.Command{
		Use:   "all [collection]",
		Short: "Lists every document in a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(store.GetAll(args[0]))
		},
	}
	prefixCmd = &cobra.Command{
		Use:   "prefix [collection] [prefix]",
		Short: "Lists the documents whose id starts with a prefix",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(store.GetByPrefix(args[0], args[1]))
		},
	}
	queryCmd = &cobra.Command{
		Use:   "query [collection] [query]",
		Short: "Runs a filter query over a collection",
		Long: `Runs a filter query over a collection. The query is a JSON object with
conjunctive filters and an optional limit, e.g.:

  strata col query products '{"filters":[{"field":"price","op":"gt","value":3}],"limit":10}'

Supported operators: eq, neq, gt, gte, lt, lte.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var q facade.Query
			if err := json.Unmarshal([]byte(args[1]), &q); err != nil {
				return fmt.Errorf("query must be a JSON object: %w", err)
			}
			return printResult(store.Query(args[0], q))
		},
	}
	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Probes the backend and prints its health status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := json.MarshalIndent(store.HealthCheck(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
)

// printResult writes a result in its JSON wire shape to stdout
func printResult[T any](res facade.Result[T]) error {
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
