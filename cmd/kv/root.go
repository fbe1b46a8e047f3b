package kv

import (
	"github.com/signalserve/skv/cmd/util"
	"github.com/signalserve/skv/lib/lookup"
	"github.com/signalserve/skv/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcLookup lookup.ILookup

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform lookup operations against a skv server",
		PersistentPreRunE: setupKVClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the KV command
	util.SetupRPCClientFlags(KeyValueCommands)

	// Set default shard ID for lookup operations
	KeyValueCommands.PersistentFlags().Int("shard", 100, util.WrapString("ID of the shard to connect to"))

	// Add subcommands
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(getSetCmd)
	KeyValueCommands.AddCommand(queryCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient initializes the RPC lookup client
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()
	shardId := util.GetShardID()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the lookup client
	rpcLookup, err = client.NewRPCLookup(
		shardId,
		*config,
		t,
		s,
	)

	return err
}
