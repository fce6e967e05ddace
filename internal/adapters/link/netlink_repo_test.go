package link

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkSetUpUnknownLink(t *testing.T) {
	err := NetlinkLinks{}.LinkSetUp(context.Background(), "nosuchlink0")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nosuchlink0")
}
