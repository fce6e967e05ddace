package runtime

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	ovsAdapter "github.com/enginrect/ovs-bridge-agent/internal/adapters/ovs"
	"github.com/enginrect/ovs-bridge-agent/internal/adapters/link"
	"github.com/enginrect/ovs-bridge-agent/internal/adapters/ovsdb"
	"github.com/enginrect/ovs-bridge-agent/internal/config"
	"github.com/enginrect/ovs-bridge-agent/internal/infra/executor"
	"github.com/enginrect/ovs-bridge-agent/internal/infra/logging"
	"github.com/enginrect/ovs-bridge-agent/internal/ports"
	"github.com/enginrect/ovs-bridge-agent/internal/usecase"
)

// Runtime holds the adapters shared by the CLI and the HTTP agent.
type Runtime struct {
	Config    *config.Config
	OVS       *ovsAdapter.ExecOVS
	Names     ports.InterfaceNamePort
	Links     ports.LinkPort
	Allocator *usecase.NameAllocator

	closers []io.Closer
}

// New dials the configured executor and assembles the adapters on top of it.
func New(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	if cfg.Executor.Mode != config.ExecutorSSH {
		return FromExecutor(ctx, cfg, executor.Metered{Next: executor.SubprocessExecutor{}})
	}
	ssh := cfg.Executor.SSH
	remote, err := executor.DialSSH(executor.SSHConfig{
		Host:     ssh.Host,
		Port:     ssh.Port,
		User:     ssh.User,
		Password: ssh.Password,
		KeyFile:  ssh.KeyFile,
		Timeout:  cfg.Executor.Timeout,
	})
	if err != nil {
		return nil, err
	}
	rt, err := FromExecutor(ctx, cfg, executor.Metered{Next: remote})
	if err != nil {
		remote.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, remote)
	return rt, nil
}

// FromExecutor assembles the adapters over exec. Kernel links are set through
// netlink only when commands run on this host.
func FromExecutor(ctx context.Context, cfg *config.Config, exec executor.Executor) (*Runtime, error) {
	o := ovsAdapter.NewExecOVS(exec, cfg.Executor.Container)
	o.Timeout = cfg.Executor.Timeout
	o.ServiceUnit = cfg.OVS.ServiceUnit
	o.ReadyTimeout = cfg.OVS.ReadyTimeout

	rt := &Runtime{Config: cfg, OVS: o, Names: o, Links: o}
	if cfg.Executor.Mode != config.ExecutorSSH {
		rt.Links = link.NetlinkLinks{}
	}
	if cfg.OVS.NameSource == config.NameSourceOVSDB {
		db, err := ovsdb.NewLibOVSDB(ctx, cfg.OVS.OVSDBEndpoint)
		if err != nil {
			return nil, err
		}
		rt.Names = db
		rt.closers = append(rt.closers, db)
	}
	rt.Allocator = usecase.NewNameAllocator(rt.Names, cfg.OVS.NameSearchLimit)

	logging.WithFields(logrus.Fields{
		"mode":        cfg.Executor.Mode,
		"container":   cfg.Executor.Container,
		"name_source": cfg.OVS.NameSource,
	}).Debug("runtime assembled")
	return rt, nil
}

func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}
