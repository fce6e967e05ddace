package domain

import (
	"fmt"
	"strings"
)

// Option is one key/value attribute handed to ovs-vsctl. Options are kept as
// an ordered slice so composed commands are deterministic.
type Option struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

func Opt(key, value string) Option { return Option{Key: key, Value: value} }

func (o Option) String() string { return o.Key + "=" + o.Value }

// ParseOptions turns "key=value" tokens into Options. Only the first '=' splits,
// so values such as dpdk-devargs=0000:19:00.0 survive intact.
func ParseOptions(tokens ...string) ([]Option, error) {
	out := make([]Option, 0, len(tokens))
	for _, t := range tokens {
		k, v, ok := strings.Cut(t, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q is not key=value", ErrInvalidOption, t)
		}
		out = append(out, Option{Key: k, Value: v})
	}
	return out, nil
}

// Port is one externally visible bridge port as reported by the control plane.
type Port struct {
	Number     int      `json:"number"`
	Name       string   `json:"name"`
	Attributes []string `json:"attributes"` // normalized key=value tokens, in report order
	Line       string   `json:"line"`       // full normalized block
}
