package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/enginrect/ovs-bridge-agent/internal/app/runtime"
)

func newNameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "name",
		Short: "Interface name allocation",
	}

	var pair bool
	assign := &cobra.Command{
		Use:   "assign <prefix>",
		Short: "Print the first free interface name for prefix",
		Long: `Print prefix+N for the smallest N not used by any interface.

Nothing is reserved: create the interface before asking again.

  ovs-bridge-agent name assign vhost         # vhost3
  ovs-bridge-agent name assign veth --pair   # veth0 veth1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				if pair {
					first, second, err := rt.Allocator.AssignPair(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Println(first, second)
					return nil
				}
				name, err := rt.Allocator.Assign(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Println(name)
				return nil
			})
		},
	}
	assign.Flags().BoolVar(&pair, "pair", false, "assign two distinct names")

	cmd.AddCommand(assign)
	return cmd
}
