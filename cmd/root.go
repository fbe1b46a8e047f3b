package cmd

import (
	"fmt"
	"os"

	"github.com/signalserve/skv/cmd/kv"
	"github.com/signalserve/skv/cmd/serve"
	"github.com/signalserve/skv/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "skv",
		Short: "read-optimized key-value serving engine",
		Long: fmt.Sprintf(`skv (v%s)

A low-latency key-value serving engine for real-time bidding signals,
with point lookups, value-set lookups and set-algebra queries over
in-memory shard caches.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of skv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("skv v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, binary)"))
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
