package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enginrect/ovs-bridge-agent/internal/adapters/link"
	"github.com/enginrect/ovs-bridge-agent/internal/config"
	"github.com/enginrect/ovs-bridge-agent/internal/infra/executor/fakeexec"
)

func TestFromExecutorLocal(t *testing.T) {
	cfg := config.Default()
	cfg.Executor.Container = "ovs"
	cfg.Executor.Timeout = 3 * time.Second
	cfg.OVS.NameSearchLimit = 8

	rt, err := FromExecutor(context.Background(), cfg, fakeexec.New())
	require.NoError(t, err)
	defer rt.Close()

	assert.Equal(t, "ovs", rt.OVS.Container)
	assert.Equal(t, 3*time.Second, rt.OVS.Timeout)
	assert.Same(t, rt.OVS, rt.Names)
	assert.Equal(t, link.NetlinkLinks{}, rt.Links)
	assert.Equal(t, 8, rt.Allocator.Limit)
}

func TestFromExecutorRemoteLinksUseCommands(t *testing.T) {
	cfg := config.Default()
	cfg.Executor.Mode = config.ExecutorSSH

	fx := fakeexec.New().On("ip link set", "")
	rt, err := FromExecutor(context.Background(), cfg, fx)
	require.NoError(t, err)

	require.NoError(t, rt.Links.LinkSetUp(context.Background(), "t_ovsbr0"))
	assert.Equal(t, []string{"ip link set dev t_ovsbr0 up"}, fx.Commands())
	assert.NoError(t, rt.Close())
}
