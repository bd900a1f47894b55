package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/skv/cmd/kv"
	"github.com/ValentinKolb/skv/cmd/model"
	"github.com/ValentinKolb/skv/cmd/serve"
	"github.com/ValentinKolb/skv/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "skv",
		Short: "schema-driven key-value store",
		Long: fmt.Sprintf(`sKV (v%s)

A key-value store with expiring entries and a typed model layer:
values are described by a schema, stored in a compact positional
encoding and namespaced by their shape.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of sKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sKV v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(model.ModelCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
