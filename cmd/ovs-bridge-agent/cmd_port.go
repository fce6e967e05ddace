package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/enginrect/ovs-bridge-agent/internal/app/runtime"
	"github.com/enginrect/ovs-bridge-agent/internal/domain"
	"github.com/enginrect/ovs-bridge-agent/internal/usecase"
)

func newPortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "port",
		Short: "Bridge ports",
	}

	var ifaceOpts []string
	add := &cobra.Command{
		Use:   "add <bridge> <port>",
		Short: "Attach a port, optionally setting its interface in the same transaction",
		Long: `Attach a port to a bridge.

  ovs-bridge-agent port add br0 vhost0 \
      --iface type=dpdkvhostuserclient --iface options=vhost-server-path=/tmp/vhost0`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := domain.ParseOptions(ifaceOpts...)
			if err != nil {
				return err
			}
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				tx := usecase.OpenBridge(rt.OVS, args[0]).AddPort(args[1])
				if len(opts) > 0 {
					tx.SetInterface(args[1], opts...)
				}
				_, err := tx.Execute(ctx)
				return err
			})
		},
	}
	add.Flags().StringArrayVar(&ifaceOpts, "iface", nil, "interface column as key=value (repeatable)")

	cmd.AddCommand(add)
	return cmd
}
