package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/enginrect/ovs-bridge-agent/internal/app/runtime"
	"github.com/enginrect/ovs-bridge-agent/internal/domain"
	"github.com/enginrect/ovs-bridge-agent/internal/usecase"
)

func newBridgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Create, configure and inspect OVS bridges",
	}
	cmd.AddCommand(
		newBridgeCreateCmd(),
		newBridgeDestroyCmd(),
		newBridgeSetCmd(),
		newBridgePortsCmd(),
		newBridgeResetFlowsCmd(),
		newBridgeUpCmd(),
		newBridgeModPortCmd(),
	)
	return cmd
}

func newBridgeCreateCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Start OVS and create a bridge",
		Long: `Start the OVS service if needed and create a bridge. Without a name the
first free t_ovsbrN is used.

  ovs-bridge-agent bridge create
  ovs-bridge-agent bridge create br-dpdk --set datapath_type=netdev`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := domain.ParseOptions(sets...)
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				b, err := usecase.NewBridge(ctx, rt.OVS, rt.Allocator, name)
				if err != nil {
					return err
				}
				if len(opts) > 0 {
					if err := b.SetBr(ctx, opts...); err != nil {
						return err
					}
				}
				fmt.Println(b.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "bridge column as key=value (repeatable)")
	return cmd
}

func newBridgeDestroyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <name>",
		Short: "Delete a bridge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				return usecase.OpenBridge(rt.OVS, args[0]).Destroy(ctx)
			})
		},
	}
}

func newBridgeSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <key=value>...",
		Short: "Set bridge columns",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := domain.ParseOptions(args[1:]...)
			if err != nil {
				return err
			}
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				return usecase.OpenBridge(rt.OVS, args[0]).SetBr(ctx, opts...)
			})
		},
	}
}

func newBridgePortsCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "ports <name>",
		Short: "Show externally visible ports by OpenFlow number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				ports, err := usecase.OpenBridge(rt.OVS, args[0]).Ports(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return json.NewEncoder(os.Stdout).Encode(ports)
				}
				printPorts(ports)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "JSON output")
	return cmd
}

func printPorts(ports map[int]domain.Port) {
	if len(ports) == 0 {
		fmt.Println("no external ports")
		return
	}
	numbers := lo.Keys(ports)
	slices.Sort(numbers)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OFPORT\tNAME\tATTRIBUTES")
	for _, n := range numbers {
		p := ports[n]
		fmt.Fprintf(w, "%d\t%s\t%s\n", n, p.Name, strings.Join(p.Attributes[1:], " "))
	}
	w.Flush()
}

func newBridgeResetFlowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-flows <name>",
		Short: "Replace all flows with a single NORMAL action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				return usecase.OpenBridge(rt.OVS, args[0]).ResetFlows(ctx)
			})
		},
	}
}

func newBridgeUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up <name>",
		Short: "Bring the bridge's kernel device up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				return usecase.OpenBridge(rt.OVS, args[0]).LinkUp(ctx, rt.Links)
			})
		},
	}
}

func newBridgeModPortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mod-port <name> <port> <action>",
		Short: "Change OpenFlow port config, e.g. up, down or no-flood",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				return usecase.OpenBridge(rt.OVS, args[0]).ModPort(ctx, args[1], args[2])
			})
		},
	}
}
