// ovs-bridge-agent drives the Open vSwitch control plane of one host for
// test orchestration: interface naming, bridges, bonds, ports and port state.
//
// Usage:
//
//	ovs-bridge-agent serve                         Run the HTTP agent
//	ovs-bridge-agent name assign <prefix>          Pick a free interface name
//	ovs-bridge-agent bridge create [name]          Start OVS and create a bridge
//	ovs-bridge-agent bridge ports <name>           Show externally visible ports
//	ovs-bridge-agent bond add <br> <bond> <dev...> Create a bond in one transaction
//	ovs-bridge-agent port add <br> <port>          Attach a port
//	ovs-bridge-agent other-config set k=v...       Set Open_vSwitch other_config
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/enginrect/ovs-bridge-agent/internal/app/runtime"
	"github.com/enginrect/ovs-bridge-agent/internal/config"
	"github.com/enginrect/ovs-bridge-agent/internal/infra/logging"
)

var (
	configPath string
	verbose    bool
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "ovs-bridge-agent",
	Short:             "Open vSwitch control plane agent",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		if err := logging.SetLogLevel(level); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
		if cfg.LogFormat == "json" {
			logging.SetJSONFormat()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/ovs-bridge-agent/config.yaml", "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		newServeCmd(),
		newNameCmd(),
		newBridgeCmd(),
		newBondCmd(),
		newPortCmd(),
		newOtherConfigCmd(),
	)
}

// withRuntime assembles the adapters for one command and releases them after.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime.Runtime) error) error {
	ctx := cmd.Context()
	rt, err := runtime.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}
