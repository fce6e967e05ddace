package usecase

import (
	"context"
	"slices"

	"github.com/enginrect/ovs-bridge-agent/internal/domain"
	"github.com/enginrect/ovs-bridge-agent/internal/ports"
)

// Transaction buffers ovs-vsctl clauses and sends them as one invocation,
// which ovs-vsctl applies atomically. Nothing reaches the control plane
// before Execute, and Execute runs at most once.
type Transaction struct {
	ovs  ports.OVSBridgePort
	args []string
	done bool
}

func NewTransaction(ovs ports.OVSBridgePort, base ...string) *Transaction {
	return &Transaction{ovs: ovs, args: slices.Clone(base)}
}

// SetInterface appends `-- set Interface <iface> ...`. The key "options"
// renders as options:<value>, every other key as key=value.
func (t *Transaction) SetInterface(iface string, opts ...domain.Option) *Transaction {
	t.args = append(t.args, domain.ClauseSeparator, "set", "Interface", iface)
	for _, o := range opts {
		t.args = append(t.args, renderInterfaceOption(o))
	}
	return t
}

// SetOptions appends key=value pairs to the object the base command targets.
func (t *Transaction) SetOptions(opts ...domain.Option) *Transaction {
	for _, o := range opts {
		t.args = append(t.args, o.String())
	}
	return t
}

// Args returns the composed ovs-vsctl arguments.
func (t *Transaction) Args() []string {
	return slices.Clone(t.args)
}

func (t *Transaction) Execute(ctx context.Context) (string, error) {
	if t.done {
		return "", domain.ErrTransactionDone
	}
	t.done = true
	return t.ovs.Vsctl(ctx, t.args...)
}

func renderInterfaceOption(o domain.Option) string {
	if o.Key == domain.NestedOptionsKey {
		return o.Key + ":" + o.Value
	}
	return o.String()
}
