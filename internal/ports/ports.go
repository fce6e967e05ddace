package ports

import "context"

// OVSBridgePort is a hexagonal port for driving the Open vSwitch control plane
// (ovs-vsctl, ovs-ofctl and the service manager).
type OVSBridgePort interface {
	// StartService starts the OVS daemons; calling it while they run is a no-op.
	StartService(ctx context.Context) error
	Vsctl(ctx context.Context, args ...string) (string, error)
	Ofctl(ctx context.Context, args ...string) (string, error)
	// DumpPortsDesc returns `ovs-ofctl dump-ports-desc <bridge>` output.
	DumpPortsDesc(ctx context.Context, bridge string) (string, error)
	// Show returns `ovs-vsctl show` output.
	Show(ctx context.Context) (string, error)
}

// InterfaceNamePort answers whether a name is taken by any interface the
// control plane currently knows. Every call must observe live state.
type InterfaceNamePort interface {
	IsNameUsed(ctx context.Context, name string) (bool, error)
}

// LinkPort controls kernel link state of OVS-created devices.
type LinkPort interface {
	LinkSetUp(ctx context.Context, name string) error
}
