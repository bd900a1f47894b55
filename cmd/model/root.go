package model

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/skv/cmd/util"
	skvmodel "github.com/ValentinKolb/skv/lib/model"
	"github.com/ValentinKolb/skv/lib/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	client *skvmodel.Client
	values *skvmodel.Model[any]

	// ModelCommands represents the model command group
	ModelCommands = &cobra.Command{
		Use:   "model",
		Short: "Perform typed operations on values described by a JSON Schema",
		Long: `Perform typed operations on values described by a JSON Schema.

Values are validated against the schema and stored in the positional encoding
under a namespace derived from the schema and the model options (--ttl, --read-once),
unless --namespace is given. All clients using the same schema and options share
the same values.`,
		PersistentPreRunE:  setupModel,
		PersistentPostRunE: teardownModel,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the model command
	util.SetupRPCClientFlags(ModelCommands)

	key := "schema"
	ModelCommands.PersistentFlags().String(key, "", util.WrapString("Path of the JSON Schema file describing the values (required)"))

	key = "ttl"
	ModelCommands.PersistentFlags().Duration(key, 0, util.WrapString("Time to live of written values in whole seconds (e.g. 30s, 1h, 0 = no expiry)"))

	key = "read-once"
	ModelCommands.PersistentFlags().Bool(key, false, util.WrapString("Delete values after they were read"))

	key = "namespace"
	ModelCommands.PersistentFlags().String(key, "", util.WrapString("Explicit namespace (default: derived from schema and options)"))

	key = "random-key"
	setCmd.Flags().Bool(key, false, util.WrapString("Store the value under a new random key (the key argument is omitted)"))

	key = "force"
	getCmd.Flags().Bool(key, false, util.WrapString("Fail if the key does not exist"))

	key = "mode"
	expireCmd.Flags().String(key, "always", util.WrapString("Condition for the new deadline (always, nx, xx, gt, lt)"))
	expireAtCmd.Flags().String(key, "always", util.WrapString("Condition for the new deadline (always, nx, xx, gt, lt)"))

	// Add subcommands
	ModelCommands.AddCommand(setCmd)
	ModelCommands.AddCommand(getCmd)
	ModelCommands.AddCommand(delCmd)
	ModelCommands.AddCommand(expireCmd)
	ModelCommands.AddCommand(expireAtCmd)
	ModelCommands.AddCommand(ttlCmd)
	ModelCommands.AddCommand(namespaceCmd)
	ModelCommands.AddCommand(schemaCmd)
}

// setupModel loads the schema, creates the client and starts connecting
func setupModel(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	path := viper.GetString("schema")
	if path == "" {
		return fmt.Errorf("--schema is required")
	}
	doc, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	s, err := schema.FromJSONSchema(doc)
	if err != nil {
		return err
	}

	c, err := util.NewConnection()
	if err != nil {
		return err
	}
	client = skvmodel.NewClient(c, nil)

	values, err = skvmodel.New(client, s, skvmodel.Options{
		TTL:       viper.GetDuration("ttl"),
		ReadOnce:  viper.GetBool("read-once"),
		Namespace: viper.GetString("namespace"),
	})
	if err != nil {
		return err
	}

	client.Connect()
	return nil
}

func teardownModel(_ *cobra.Command, _ []string) error {
	util.PrintStats()
	if client == nil {
		return nil
	}
	return client.Destroy()
}
