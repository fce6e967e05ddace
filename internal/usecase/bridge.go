package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	ovsAdapter "github.com/enginrect/ovs-bridge-agent/internal/adapters/ovs"
	"github.com/enginrect/ovs-bridge-agent/internal/domain"
	"github.com/enginrect/ovs-bridge-agent/internal/infra/logging"
	"github.com/enginrect/ovs-bridge-agent/internal/ports"
)

// Bridge is a handle on one OVS bridge. The control plane stays the system
// of record; the handle caches nothing and does not notice Destroy, so using
// it afterwards is a caller error.
type Bridge struct {
	Name string
	ovs  ports.OVSBridgePort
	log  *logrus.Entry
}

// NewBridge starts the OVS service, allocates a name when none is given and
// creates the bridge. On any failure no handle is returned.
func NewBridge(ctx context.Context, ovs ports.OVSBridgePort, alloc *NameAllocator, name string) (*Bridge, error) {
	if err := ovs.StartService(ctx); err != nil {
		return nil, fmt.Errorf("create bridge: %w", err)
	}
	if name == "" {
		if alloc == nil {
			return nil, errors.New("create bridge: no name given and no allocator")
		}
		assigned, err := alloc.Assign(ctx, domain.BridgeNameTemplate)
		if err != nil {
			return nil, fmt.Errorf("create bridge: %w", err)
		}
		name = assigned
	}
	if _, err := ovs.Vsctl(ctx, ovsAdapter.BuildAddBridgeCommand(name)...); err != nil {
		return nil, fmt.Errorf("create bridge %s: %w", name, err)
	}
	b := OpenBridge(ovs, name)
	b.log.Info("bridge created")
	return b, nil
}

// OpenBridge returns a handle on a bridge that already exists.
func OpenBridge(ovs ports.OVSBridgePort, name string) *Bridge {
	return &Bridge{Name: name, ovs: ovs, log: logging.WithBridge(name)}
}

func (b *Bridge) SetBr(ctx context.Context, opts ...domain.Option) error {
	if len(opts) == 0 {
		return fmt.Errorf("%w: set bridge %s needs at least one option", domain.ErrInvalidOption, b.Name)
	}
	if _, err := b.ovs.Vsctl(ctx, ovsAdapter.BuildSetBridgeCommand(b.Name, opts)...); err != nil {
		return fmt.Errorf("set bridge %s: %w", b.Name, err)
	}
	b.log.WithField("options", opts).Debug("bridge options set")
	return nil
}

// InitBond starts a transaction creating bond over devices on this bridge.
// The caller adds interface clauses and runs Execute.
func (b *Bridge) InitBond(bond string, devices []string) *Transaction {
	return NewTransaction(b.ovs, ovsAdapter.BuildAddBondCommand(b.Name, bond, devices)...)
}

// AddPort starts a transaction attaching port to this bridge.
func (b *Bridge) AddPort(port string) *Transaction {
	return NewTransaction(b.ovs, ovsAdapter.BuildAddPortCommand(b.Name, port)...)
}

func (b *Bridge) Destroy(ctx context.Context) error {
	if _, err := b.ovs.Vsctl(ctx, ovsAdapter.BuildDelBridgeCommand(b.Name)...); err != nil {
		return fmt.Errorf("destroy bridge %s: %w", b.Name, err)
	}
	b.log.Info("bridge destroyed")
	return nil
}

// Ports returns the externally visible ports of this bridge keyed by
// OpenFlow port number, read fresh from the control plane.
func (b *Bridge) Ports(ctx context.Context) (map[int]domain.Port, error) {
	return BridgePorts(ctx, b.ovs, b.Name)
}

// ResetFlows replaces every flow on the bridge with a single NORMAL action.
func (b *Bridge) ResetFlows(ctx context.Context) error {
	if _, err := b.ovs.Ofctl(ctx, "del-flows", b.Name); err != nil {
		return fmt.Errorf("delete flows on %s: %w", b.Name, err)
	}
	if _, err := b.ovs.Ofctl(ctx, "add-flow", b.Name, "actions=NORMAL"); err != nil {
		return fmt.Errorf("add normal flow on %s: %w", b.Name, err)
	}
	return nil
}

// ModPort changes OpenFlow port config, e.g. action "up" or "no-flood".
func (b *Bridge) ModPort(ctx context.Context, port, action string) error {
	if _, err := b.ovs.Ofctl(ctx, "mod-port", b.Name, port, action); err != nil {
		return fmt.Errorf("mod-port %s %s on %s: %w", port, action, b.Name, err)
	}
	return nil
}

// LinkUp brings the bridge's own kernel device up.
func (b *Bridge) LinkUp(ctx context.Context, links ports.LinkPort) error {
	if err := links.LinkSetUp(ctx, b.Name); err != nil {
		return fmt.Errorf("link up %s: %w", b.Name, err)
	}
	return nil
}

// SetOtherConfig writes Open_vSwitch other_config keys, e.g. the dpdk-*
// settings that must precede DPDK bridges.
func SetOtherConfig(ctx context.Context, ovs ports.OVSBridgePort, opts ...domain.Option) error {
	if len(opts) == 0 {
		return fmt.Errorf("%w: other_config needs at least one option", domain.ErrInvalidOption)
	}
	if _, err := ovs.Vsctl(ctx, ovsAdapter.BuildOtherConfigCommand(opts)...); err != nil {
		return fmt.Errorf("set other_config: %w", err)
	}
	return nil
}
