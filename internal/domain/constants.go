package domain

import "time"

const (
	Vsctl   = "ovs-vsctl"
	Ofctl   = "ovs-ofctl"
	Systemd = "systemctl"

	// default systemd unit that runs ovsdb-server and ovs-vswitchd
	DefaultServiceUnit = "openvswitch.service"

	// default container names (Kolla)
	DefaultOVSContainer = "openvswitch_vswitchd"

	DefaultOVSDBEndpoint = "unix:/var/run/openvswitch/db.sock"

	BridgeNameTemplate = "t_ovsbr"

	DefaultNameSearchLimit = 1024

	// ovs-vsctl sub-command separator
	ClauseSeparator = "--"

	// markers delimiting per-port blocks in `ovs-vsctl show`
	PortMarker    = "Port"
	VersionMarker = "ovs_version"

	// ovs-vsctl renders this key as options:<value>
	NestedOptionsKey = "options"

	DefaultCommandTimeout = 10 * time.Second
	DefaultReadyTimeout   = 30 * time.Second
)
