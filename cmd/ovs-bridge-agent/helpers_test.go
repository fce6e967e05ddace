package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enginrect/ovs-bridge-agent/internal/domain"
)

func TestParseIfaceSpec(t *testing.T) {
	spec, err := parseIfaceSpec("dpdk0:type=dpdk,options=dpdk-devargs=0000:19:00.0")
	require.NoError(t, err)
	assert.Equal(t, "dpdk0", spec.name)
	assert.Equal(t, []domain.Option{
		domain.Opt("type", "dpdk"),
		domain.Opt("options", "dpdk-devargs=0000:19:00.0"),
	}, spec.opts)
}

func TestParseIfaceSpecErrors(t *testing.T) {
	for _, raw := range []string{"dpdk0", ":type=dpdk", "dpdk0:", "dpdk0:type"} {
		_, err := parseIfaceSpec(raw)
		assert.ErrorIs(t, err, domain.ErrInvalidOption, raw)
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"serve"},
		{"name", "assign"},
		{"bridge", "create"},
		{"bridge", "destroy"},
		{"bridge", "set"},
		{"bridge", "ports"},
		{"bridge", "reset-flows"},
		{"bridge", "up"},
		{"bridge", "mod-port"},
		{"bond", "add"},
		{"port", "add"},
		{"other-config", "set"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
