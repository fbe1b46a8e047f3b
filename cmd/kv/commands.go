package kv

import (
	"fmt"
	"strings"

	"github.com/signalserve/skv/lib/reqctx"
	"github.com/signalserve/skv/lib/telemetry"
	"github.com/spf13/cobra"
)

// newRequestContext creates a request context for a single CLI invocation
func newRequestContext() *reqctx.Context {
	return reqctx.New(telemetry.NewNoopRecorder())
}

var (
	getCmd = &cobra.Command{
		Use:   "get [key]...",
		Short: "Reads the values for one or more keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := rpcLookup.GetKeyValues(newRequestContext(), args)
			if err != nil {
				return err
			}
			for _, key := range args {
				result := resp.KVPairs[key]
				if result.NotFound {
					fmt.Printf("key=%s, found=false\n", key)
				} else {
					fmt.Printf("key=%s, found=true, value=%s\n", key, result.Value)
				}
			}
			return nil
		},
	}
	getSetCmd = &cobra.Command{
		Use:   "getset [key]...",
		Short: "Reads the value sets for one or more keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := rpcLookup.GetKeyValueSet(newRequestContext(), args)
			if err != nil {
				return err
			}
			for _, key := range args {
				result := resp.KVPairs[key]
				if result.NotFound {
					fmt.Printf("key=%s, found=false\n", key)
				} else {
					fmt.Printf("key=%s, found=true, values=[%s]\n", key, strings.Join(result.ValueSet, ", "))
				}
			}
			return nil
		},
	}
	queryCmd = &cobra.Command{
		Use:   "query [expression]",
		Short: "Evaluates a set-algebra query over value sets",
		Long: `Evaluates a set-algebra query over value sets.

The expression combines value-set keys with the operators UNION (|),
INTERSECTION (&) and DIFFERENCE (-), with parentheses for grouping.
Keys containing characters outside [A-Za-z0-9_:./] must be double-quoted,
otherwise a '-' inside a key is read as the difference operator.

Example:
  skv kv query "segment_a UNION segment_b"
  skv kv query '("segment-a" | "segment-b") - "segment-c"'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := rpcLookup.RunQuery(newRequestContext(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("elements=[%s]\n", strings.Join(resp.Elements, ", "))
			return nil
		},
	}
)
