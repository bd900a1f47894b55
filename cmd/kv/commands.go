package kv

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/skv/cmd/util"
	"github.com/spf13/cobra"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key (without expiry)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcConn.Set(args[0], []byte(args[1])); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	setExCmd = &cobra.Command{
		Use:   "setex [key] [value] [ttl]",
		Short: "Sets the value for a key that expires after ttl (e.g. 30s, 5m)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, err := time.ParseDuration(args[2])
			if err != nil {
				return fmt.Errorf("ttl must be a duration: %w", err)
			}
			if err := rpcConn.SetEx(args[0], []byte(args[1]), ttl); err != nil {
				return err
			}
			fmt.Println("setex successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, ok, err := rpcConn.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%v, value=%s\n", args[0], ok, value)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := rpcConn.Delete(args[0])
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
			applied, err := rpcConn.Expire(args[0], ttl, mode)
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
			applied, err := rpcConn.ExpireAt(args[0], at, mode)
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
			ttl, ok, err := rpcConn.TTL(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%t, ttl=%s\n", args[0], ok, util.FormatTTL(ttl, ok))
			return nil
		},
	}
)
