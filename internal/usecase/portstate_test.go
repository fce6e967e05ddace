package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/enginrect/ovs-bridge-agent/internal/domain"
)

const dumpPortsDesc = `OFPST_PORT_DESC reply (xid=0x2):
 3(dpdk0): addr:b8:59:9f:aa:bb:cc
     config:     0
     state:      LIVE
 5(vhost0): addr:00:00:00:00:00:00
     config:     0
     state:      LIVE
 LOCAL(t_ovsbr0): addr:b8:59:9f:aa:bb:cc
     config:     0
`

const showReport = `3b4f1c2e-9a0d-4d7e-8c1f-0a1b2c3d4e5f
    Bridge t_ovsbr0
        datapath_type: netdev
        Port "dpdk0"
            tag: 0
            Interface "dpdk0"
        Port "vhost0"
            Interface "vhost0"
                type: internal
    ovs_version: "2.17.9"
`

func TestExtractPortsCorrelation(t *testing.T) {
	got := ExtractPorts("3(dpdk0) 5(vhost0)", showReport)

	require.Len(t, got, 1)
	require.Contains(t, got, 3)
	assert.NotContains(t, got, 5)

	p := got[3]
	assert.Equal(t, 3, p.Number)
	assert.Equal(t, "dpdk0", p.Name)
	assert.Equal(t, `Port="dpdk0", tag=0, Interface="dpdk0"`, p.Line)
	assert.Equal(t, []string{`Port="dpdk0"`, "tag=0", `Interface="dpdk0"`}, p.Attributes)
}

func TestExtractPortsFromFullDump(t *testing.T) {
	got := ExtractPorts(dumpPortsDesc, showReport)
	assert.Equal(t, []int{3}, keys(got))
}

func TestExtractPortsUnresolvableBlock(t *testing.T) {
	topology := `    Bridge br0
        Port ghost
            Interface ghost
    ovs_version: "3.1.0"
`
	assert.Empty(t, ExtractPorts("3(dpdk0)", topology))
}

func TestExtractPortsUnquotedNames(t *testing.T) {
	topology := `    Bridge br0
        Port dpdk1
            Interface dpdk1
                error: "could not open network device dpdk1"
    ovs_version: "3.1.0"
`
	got := ExtractPorts("1(dpdk1)", topology)
	require.Contains(t, got, 1)
	assert.Equal(t, "dpdk1", got[1].Name)
}

func TestExtractPortsRoundTrip(t *testing.T) {
	const n = 16
	var numbering, topology strings.Builder
	topology.WriteString("    Bridge br0\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&numbering, " %d(p%d): addr:00:00:00:00:00:%02x\n", i+1, i, i)
		fmt.Fprintf(&topology, "        Port \"p%d\"\n            Interface \"p%d\"\n", i, i)
	}
	topology.WriteString("    ovs_version: \"3.1.0\"\n")

	got := ExtractPorts(numbering.String(), topology.String())
	require.Len(t, got, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, fmt.Sprintf("p%d", i), got[i+1].Name)
	}
}

func TestExtractPortsListValues(t *testing.T) {
	topology := `    Bridge br0
        Port eth1
            trunks: [10, 20]
            Interface eth1
    ovs_version: "3.1.0"
`
	got := ExtractPorts(" 1(eth1): addr:aa:bb:cc:dd:ee:01\n", topology)
	require.Contains(t, got, 1)

	p := got[1]
	assert.Equal(t, "Port=eth1, trunks=[10, 20], Interface=eth1", p.Line)
	assert.Equal(t, []string{"Port=eth1", "trunks=[10, 20]", "Interface=eth1"}, p.Attributes)
	for _, attr := range p.Attributes {
		assert.Contains(t, attr, "=")
	}
}

func TestSplitAttributes(t *testing.T) {
	assert.Equal(t, []string{`Port="dpdk0"`, "tag=0"}, SplitAttributes(`Port="dpdk0", tag=0`))
	assert.Equal(t,
		[]string{`Interface="dpdk0"`, `options={dpdk-devargs="0000:19:00.0", n_rxq="2"}`},
		SplitAttributes(`Interface="dpdk0", options={dpdk-devargs="0000:19:00.0", n_rxq="2"}`))
	assert.Equal(t, []string{`error="a, b"`, "x=1"}, SplitAttributes(`error="a, b", x=1`))
	assert.Equal(t, []string{"Port=p0"}, SplitAttributes("Port=p0"))
}

func TestParsePortNumbersLastWins(t *testing.T) {
	got := ParsePortNumbers("3(dpdk0) 7(dpdk0) 5(vhost0)")
	assert.Equal(t, map[string]int{"dpdk0": 7, "vhost0": 5}, got)
}

func TestParsePortNumbersSkipsLocal(t *testing.T) {
	got := ParsePortNumbers(dumpPortsDesc)
	assert.Equal(t, map[string]int{"dpdk0": 3, "vhost0": 5}, got)
}

func TestSplitPortBlocks(t *testing.T) {
	blocks := SplitPortBlocks(showReport)
	require.Len(t, blocks, 2)
	assert.True(t, strings.HasPrefix(blocks[0], `Port "dpdk0"`))
	assert.True(t, strings.HasPrefix(blocks[1], `Port "vhost0"`))
	assert.NotContains(t, blocks[1], "ovs_version")

	// no terminating marker, no block
	assert.Empty(t, SplitPortBlocks("Port \"dpdk0\"\n    Interface \"dpdk0\"\n"))
}

func TestNormalizeStages(t *testing.T) {
	assert.Equal(t, "tag 0", StripColons("tag: 0"))
	assert.Equal(t, `Port="a"    tag=0`, PairTokens(`Port "a"    tag 0`))
	assert.Equal(t, "a, b", CollapseGaps("a   b"))
	assert.Equal(t, "a", TrimTrailing("a \t\n"))
}

func TestPairTokensRules(t *testing.T) {
	// single character keys never pair
	assert.Equal(t, "x 1", PairTokens("x 1"))
	// a wide gap separates fields
	assert.Equal(t, "tag  0", PairTokens("tag  0"))
	// a token ending in a comma is a finished field
	assert.Equal(t, "tag=0, next", PairTokens("tag=0, next"))
	// the value is consumed and does not start a new pair
	assert.Equal(t, "Interface=dpdk0 type", PairTokens("Interface dpdk0 type"))
}

func TestNormalizeBlockIdempotent(t *testing.T) {
	for _, block := range SplitPortBlocks(showReport) {
		once := NormalizeBlock(block)
		assert.Equal(t, once, NormalizeBlock(once))
	}
	line := `Port="dpdk0", tag=0, Interface="dpdk0"`
	assert.Equal(t, line, NormalizeBlock(line))
}

func TestBridgePorts(t *testing.T) {
	m := &mockOVS{}
	m.On("DumpPortsDesc", mock.Anything, "t_ovsbr0").Return(dumpPortsDesc, nil)
	m.On("Show", mock.Anything).Return(showReport, nil)

	got, err := BridgePorts(context.Background(), m, "t_ovsbr0")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, keys(got))
	m.AssertExpectations(t)
}

func TestBridgePortsQueryFailure(t *testing.T) {
	boom := errors.New("ofctl exploded")

	m := &mockOVS{}
	m.On("DumpPortsDesc", mock.Anything, "br0").Return("", boom)
	_, err := BridgePorts(context.Background(), m, "br0")
	assert.ErrorIs(t, err, boom)
	m.AssertNotCalled(t, "Show", mock.Anything)

	m = &mockOVS{}
	m.On("DumpPortsDesc", mock.Anything, "br0").Return(dumpPortsDesc, nil)
	m.On("Show", mock.Anything).Return("", boom)
	_, err = BridgePorts(context.Background(), m, "br0")
	assert.ErrorIs(t, err, boom)
}

func TestBridgePortsMissingVersionMarker(t *testing.T) {
	m := &mockOVS{}
	m.On("DumpPortsDesc", mock.Anything, "br0").Return(dumpPortsDesc, nil)
	m.On("Show", mock.Anything).Return("    Bridge br0\n        Port \"dpdk0\"\n", nil)

	_, err := BridgePorts(context.Background(), m, "br0")
	assert.ErrorIs(t, err, domain.ErrParse)
}

func keys(m map[int]domain.Port) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
