package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/enginrect/ovs-bridge-agent/internal/app/runtime"
	"github.com/enginrect/ovs-bridge-agent/internal/domain"
	"github.com/enginrect/ovs-bridge-agent/internal/usecase"
)

func newBondCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bond",
		Short: "Bond ports",
	}

	var sets, ifaces []string
	add := &cobra.Command{
		Use:   "add <bridge> <bond> <device>...",
		Short: "Create a bond and configure its interfaces in one transaction",
		Long: `Create a bond over two or more devices. Bond columns and per-interface
settings go into the same ovs-vsctl invocation, so either all of it applies
or none does.

  ovs-bridge-agent bond add br0 bond0 dpdk0 dpdk1 \
      --set bond_mode=balance-tcp --set lacp=active \
      --iface dpdk0:type=dpdk,options=dpdk-devargs=0000:19:00.0 \
      --iface dpdk1:type=dpdk,options=dpdk-devargs=0000:19:00.1`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := domain.ParseOptions(sets...)
			if err != nil {
				return err
			}
			specs := make([]ifaceSpec, 0, len(ifaces))
			for _, raw := range ifaces {
				spec, err := parseIfaceSpec(raw)
				if err != nil {
					return err
				}
				specs = append(specs, spec)
			}
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				tx := usecase.OpenBridge(rt.OVS, args[0]).InitBond(args[1], args[2:]).SetOptions(opts...)
				for _, s := range specs {
					tx.SetInterface(s.name, s.opts...)
				}
				_, err := tx.Execute(ctx)
				return err
			})
		},
	}
	add.Flags().StringArrayVar(&sets, "set", nil, "bond port column as key=value (repeatable)")
	add.Flags().StringArrayVar(&ifaces, "iface", nil, "interface settings as name:key=value,key=value (repeatable)")

	cmd.AddCommand(add)
	return cmd
}

type ifaceSpec struct {
	name string
	opts []domain.Option
}

// parseIfaceSpec reads "name:key=value,key=value". The name ends at the first
// colon, so values may carry colons of their own.
func parseIfaceSpec(raw string) (ifaceSpec, error) {
	name, rest, ok := strings.Cut(raw, ":")
	if !ok || name == "" || rest == "" {
		return ifaceSpec{}, fmt.Errorf("%w: --iface %q is not name:key=value[,key=value]", domain.ErrInvalidOption, raw)
	}
	opts, err := domain.ParseOptions(strings.Split(rest, ",")...)
	if err != nil {
		return ifaceSpec{}, err
	}
	return ifaceSpec{name: name, opts: opts}, nil
}
