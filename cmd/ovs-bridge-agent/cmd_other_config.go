package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/enginrect/ovs-bridge-agent/internal/app/runtime"
	"github.com/enginrect/ovs-bridge-agent/internal/domain"
	"github.com/enginrect/ovs-bridge-agent/internal/usecase"
)

func newOtherConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "other-config",
		Short: "Open_vSwitch other_config",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key=value>...",
		Short: "Set other_config keys, e.g. dpdk-init=true before creating DPDK bridges",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := domain.ParseOptions(args...)
			if err != nil {
				return err
			}
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				return usecase.SetOtherConfig(ctx, rt.OVS, opts...)
			})
		},
	})
	return cmd
}
