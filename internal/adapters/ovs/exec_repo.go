package ovs

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"

	"github.com/enginrect/ovs-bridge-agent/internal/domain"
	"github.com/enginrect/ovs-bridge-agent/internal/infra/executor"
)

type ExecOVS struct {
	Exec         executor.Executor
	Container    string // docker container that has the OVS tools; empty runs them on the host
	Timeout      time.Duration
	ServiceUnit  string
	ReadyTimeout time.Duration
}

func NewExecOVS(exec executor.Executor, container string) *ExecOVS {
	return &ExecOVS{
		Exec:         exec,
		Container:    container,
		Timeout:      domain.DefaultCommandTimeout,
		ServiceUnit:  domain.DefaultServiceUnit,
		ReadyTimeout: domain.DefaultReadyTimeout,
	}
}

func (o *ExecOVS) run(ctx context.Context, argv []string) (string, error) {
	ctx, cancel := executor.WithTimeout(ctx, o.Timeout)
	defer cancel()
	if o.Container != "" {
		argv = append([]string{"docker", "exec", "-i", o.Container}, argv...)
	}
	return o.Exec.Run(ctx, argv)
}

func (o *ExecOVS) Vsctl(ctx context.Context, args ...string) (string, error) {
	return o.run(ctx, append([]string{domain.Vsctl}, args...))
}

func (o *ExecOVS) Ofctl(ctx context.Context, args ...string) (string, error) {
	return o.run(ctx, append([]string{domain.Ofctl}, args...))
}

func (o *ExecOVS) DumpPortsDesc(ctx context.Context, bridge string) (string, error) {
	return o.Ofctl(ctx, "dump-ports-desc", bridge)
}

func (o *ExecOVS) Show(ctx context.Context) (string, error) {
	return o.Vsctl(ctx, "show")
}

// StartService starts the OVS unit (skipped when the tools live in a
// container, whose runtime owns the daemons) and waits until ovsdb answers.
func (o *ExecOVS) StartService(ctx context.Context) error {
	if o.Container == "" {
		unit := o.ServiceUnit
		if unit == "" {
			unit = domain.DefaultServiceUnit
		}
		if _, err := o.run(ctx, []string{domain.Systemd, "start", unit}); err != nil {
			return fmt.Errorf("start %s: %w", unit, err)
		}
	}
	return o.waitReady(ctx)
}

func (o *ExecOVS) waitReady(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = o.ReadyTimeout
	if b.MaxElapsedTime <= 0 {
		b.MaxElapsedTime = domain.DefaultReadyTimeout
	}
	err := backoff.Retry(func() error {
		_, err := o.Show(ctx)
		return err
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return fmt.Errorf("ovsdb not ready: %w", err)
	}
	return nil
}

// InterfaceNames lists the name of every row in the Interface table.
func (o *ExecOVS) InterfaceNames(ctx context.Context) ([]string, error) {
	out, err := o.Vsctl(ctx, "--columns=name", "list", "Interface")
	if err != nil {
		return nil, err
	}
	return ParseColumnValues(out), nil
}

func (o *ExecOVS) IsNameUsed(ctx context.Context, name string) (bool, error) {
	names, err := o.InterfaceNames(ctx)
	if err != nil {
		return false, err
	}
	return lo.Contains(names, name), nil
}

// LinkSetUp is the remote-host fallback for bringing a device up; the local
// host uses netlink instead.
func (o *ExecOVS) LinkSetUp(ctx context.Context, name string) error {
	_, err := o.run(ctx, []string{"ip", "link", "set", "dev", name, "up"})
	return err
}

var columnValue = regexp.MustCompile(`^[^:]*:\s*"?(.*?)"?\s*$`)

// ParseColumnValues extracts values from `ovs-vsctl --columns=<c> list <table>`
// output, one "<column> : <value>" line per row. Newer OVS leaves simple
// strings unquoted, older releases quote everything.
func ParseColumnValues(out string) []string {
	values := []string{}
	for _, line := range strings.Split(out, "\n") {
		m := columnValue.FindStringSubmatch(line)
		if m == nil || m[1] == "" {
			continue
		}
		values = append(values, m[1])
	}
	return values
}

// BuildAddBridgeCommand builds the ovs-vsctl arguments creating a bridge.
func BuildAddBridgeCommand(bridge string) []string {
	return []string{"add-br", bridge}
}

func BuildDelBridgeCommand(bridge string) []string {
	return []string{"del-br", bridge}
}

func BuildSetBridgeCommand(bridge string, opts []domain.Option) []string {
	argv := []string{"set", "bridge", bridge}
	for _, o := range opts {
		argv = append(argv, o.String())
	}
	return argv
}

func BuildAddBondCommand(bridge, bond string, devices []string) []string {
	return append([]string{"add-bond", bridge, bond}, devices...)
}

func BuildAddPortCommand(bridge, port string) []string {
	return []string{"add-port", bridge, port}
}

// BuildOtherConfigCommand targets the single Open_vSwitch row; --no-wait
// lets it run before ovs-vswitchd has finished DPDK init.
func BuildOtherConfigCommand(opts []domain.Option) []string {
	argv := []string{"--no-wait", "set", "Open_vSwitch", "."}
	for _, o := range opts {
		argv = append(argv, "other_config:"+o.String())
	}
	return argv
}
