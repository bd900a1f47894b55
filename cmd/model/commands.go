package model

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ValentinKolb/skv/cmd/util"
	"github.com/ValentinKolb/skv/lib/codec"
	"github.com/spf13/cobra"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [json]",
		Short: "Validates a JSON value and stores it under key (or a random key with --random-key)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			randomKey, _ := cmd.Flags().GetBool("random-key")
			if randomKey != (len(args) == 1) {
				return fmt.Errorf("expected either [key] [json] or --random-key [json]")
			}

			value, err := parseValue(args[len(args)-1])
			if err != nil {
				return err
			}

			var key string
			if randomKey {
				key, err = values.SetRandomKey(value)
			} else {
				key, err = values.Set(args[0], value)
			}
			if err != nil {
				return err
			}
			fmt.Printf("key=%s\n", key)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value of a key and prints it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			var (
				value any
				found = true
				err   error
			)
			if force {
				value, err = values.Require(args[0])
			} else {
				value, found, err = values.Get(args[0])
			}
			if err != nil {
				return err
			}
			if !found {
				fmt.Printf("key=%s, found=false\n", args[0])
				return nil
			}
			return printJSON(value)
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes the value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := values.Delete(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, deleted=%t\n", args[0], deleted)
			return nil
		},
	}
	expireCmd = &cobra.Command{
		Use:   "expire [key] [ttl]",
		Short: "Sets the deadline of a key to now + ttl (e.g. 30s, 5m)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, err := time.ParseDuration(args[1])
			if err != nil {
				return fmt.Errorf("ttl must be a duration: %w", err)
			}
			mode, err := util.ParseMode(cmd)
			if err != nil {
				return err
			}
			applied, err := values.Expire(args[0], ttl, mode)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, applied=%t\n", args[0], applied)
			return nil
		},
	}
	expireAtCmd = &cobra.Command{
		Use:   "expireat [key] [deadline]",
		Short: "Sets the deadline of a key (RFC 3339 time or unix seconds)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := util.ParseDeadline(args[1])
			if err != nil {
				return err
			}
			mode, err := util.ParseMode(cmd)
			if err != nil {
				return err
			}
			applied, err := values.ExpireAt(args[0], at, mode)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, applied=%t\n", args[0], applied)
			return nil
		},
	}
	ttlCmd = &cobra.Command{
		Use:   "ttl [key]",
		Short: "Prints the remaining time to live of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, ok, err := values.TTL(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%t, ttl=%s\n", args[0], ok, util.FormatTTL(ttl, ok))
			return nil
		},
	}
	namespaceCmd = &cobra.Command{
		Use:   "namespace",
		Short: "Prints the namespace of the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(values.Namespace())
			return nil
		},
	}
	schemaCmd = &cobra.Command{
		Use:   "schema",
		Short: "Prints the shape of the model and its normalized JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("shape: %s\n", values.Schema().Shape())
			return printJSON(values.JSONSchema())
		},
	}
)

// parseValue parses a JSON argument and validates it against the model schema
func parseValue(arg string) (any, error) {
	tree, err := codec.Parse([]byte(arg))
	if err != nil {
		return nil, fmt.Errorf("value must be valid JSON: %w", err)
	}
	return values.Schema().Decode(tree)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
