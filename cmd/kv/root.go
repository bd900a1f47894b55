package kv

import (
	"github.com/ValentinKolb/skv/cmd/util"
	"github.com/ValentinKolb/skv/lib/conn"
	"github.com/spf13/cobra"
)

var (
	rpcConn *conn.Connection

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform raw key-value store operations",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRunE: teardownKVClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the KV command
	util.SetupRPCClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(setExCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(expireCmd)
	KeyValueCommands.AddCommand(expireAtCmd)
	KeyValueCommands.AddCommand(ttlCmd)

	expireCmd.Flags().String("mode", "always", util.WrapString("Condition for the new deadline (always, nx, xx, gt, lt)"))
	expireAtCmd.Flags().String("mode", "always", util.WrapString("Condition for the new deadline (always, nx, xx, gt, lt)"))
}

// setupKVClient connects to the configured shard
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	c, err := util.NewConnection()
	if err != nil {
		return err
	}
	c.Connect()
	<-c.Done()
	if err := c.Err(); err != nil {
		return err
	}

	rpcConn = c
	return nil
}

func teardownKVClient(_ *cobra.Command, _ []string) error {
	util.PrintStats()
	if rpcConn == nil {
		return nil
	}
	return rpcConn.Destroy()
}
