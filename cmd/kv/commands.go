package kv

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mjansen/strata/lib/backend"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			if err := bk.Set(key, []byte(value)); err != nil {
				return err
			} else {
				fmt.Println("set successfully")
			}
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if resp, ok, err := bk.Get(key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, found=%v, value=%s\n", key, ok, resp)
			}
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key together with any set or sorted-set state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := bk.Delete(key); err != nil {
				return err
			} else {
				fmt.Println("delete successfully")
			}
			return nil
		},
	}
	existsCmd = &cobra.Command{
		Use:   "exists [key]",
		Short: "Checks if a key holds any state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if found, err := bk.Exists(key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, found=%t\n", key, found)
			}
			return nil
		},
	}
	saddCmd = &cobra.Command{
		Use:   "sadd [key] [member]",
		Short: "Adds a member to a set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bk.SetAdd(args[0], args[1]); err != nil {
				return err
			} else {
				fmt.Println("sadd successfully")
			}
			return nil
		},
	}
	sremCmd = &cobra.Command{
		Use:   "srem [key] [member]",
		Short: "Removes a member from a set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bk.SetRemove(args[0], args[1]); err != nil {
				return err
			} else {
				fmt.Println("srem successfully")
			}
			return nil
		},
	}
	smembersCmd = &cobra.Command{
		Use:   "smembers [key]",
		Short: "Lists all members of a set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := bk.SetMembers(args[0])
			if err != nil {
				return err
			}
			for _, member := range members {
				fmt.Println(member)
			}
			return nil
		},
	}
	scardCmd = &cobra.Command{
		Use:   "scard [key]",
		Short: "Prints the cardinality of a set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := bk.SetCard(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, card=%d\n", args[0], card)
			return nil
		},
	}
	zaddCmd = &cobra.Command{
		Use:   "zadd [key] [score] [member]",
		Short: "Adds a member with a score to a sorted set",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("score must be a number: %w", err)
			}
			if err := bk.SortedSetAdd(args[0], score, args[2]); err != nil {
				return err
			} else {
				fmt.Println("zadd successfully")
			}
			return nil
		},
	}
	zremCmd = &cobra.Command{
		Use:   "zrem [key] [member]",
		Short: "Removes a member from a sorted set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bk.SortedSetRemove(args[0], args[1]); err != nil {
				return err
			} else {
				fmt.Println("zrem successfully")
			}
			return nil
		},
	}
	zrangeCmd = &cobra.Command{
		Use:   "zrange [key] [start] [stop]",
		Short: "Lists sorted-set members by position, ascending (stop is inclusive, -1 means through the end)",
		Args:  cobra.ExactArgs(3),
		RunE:  rangeByPosition(func(key string, start, stop int) ([]string, error) { return bk.SortedSetRange(key, start, stop) }),
	}
	zrevrangeCmd = &cobra.Command{
		Use:   "zrevrange [key] [start] [stop]",
		Short: "Lists sorted-set members by position, descending",
		Args:  cobra.ExactArgs(3),
		RunE:  rangeByPosition(func(key string, start, stop int) ([]string, error) { return bk.SortedSetRevRange(key, start, stop) }),
	}
	zrangebyscoreCmd = &cobra.Command{
		Use:   "zrangebyscore [key] [min] [max]",
		Short: "Lists sorted-set members with a score in [min, max] (bounds accept -inf and +inf)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			min, err := backend.ParseScoreBound(args[1])
			if err != nil {
				return err
			}
			max, err := backend.ParseScoreBound(args[2])
			if err != nil {
				return err
			}
			members, err := bk.SortedSetRangeByScore(args[0], min, max)
			if err != nil {
				return err
			}
			for _, member := range members {
				fmt.Println(member)
			}
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys [pattern]",
		Short: "Lists all keys matching a glob pattern (* matches any run, ? one character, \\ escapes)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := bk.Keys(args[0])
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Println(key)
			}
			return nil
		},
	}
	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Probes the backend for liveness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bk.Ping()
			if err != nil {
				return err
			}
			fmt.Println(resp)
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints backend metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := json.MarshalIndent(bk.Info(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
)

// rangeByPosition builds a RunE for the positional range commands
func rangeByPosition(rangeFn func(key string, start, stop int) ([]string, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		start, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("start must be a number: %w", err)
		}
		stop, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("stop must be a number: %w", err)
		}
		members, err := rangeFn(args[0], start, stop)
		if err != nil {
			return err
		}
		for _, member := range members {
			fmt.Println(member)
		}
		return nil
	}
}
