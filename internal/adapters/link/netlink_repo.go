package link

import (
	"context"
	"fmt"

	"github.com/vishvananda/netlink"

	"github.com/enginrect/ovs-bridge-agent/internal/infra/logging"
)

// NetlinkLinks sets link state through rtnetlink on the local host.
type NetlinkLinks struct{}

func (NetlinkLinks) LinkSetUp(_ context.Context, name string) error {
	l, err := netlink.LinkByName(name)
	if err != nil {
		return fmt.Errorf("find link %s: %w", name, err)
	}
	if err := netlink.LinkSetUp(l); err != nil {
		return fmt.Errorf("set link %s up: %w", name, err)
	}
	logging.WithField("link", name).Debug("link up")
	return nil
}
