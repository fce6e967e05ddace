package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/enginrect/ovs-bridge-agent/internal/domain"
	"github.com/enginrect/ovs-bridge-agent/internal/ports"
)

// the whitespace set matched by \s in RE2
const asciiSpace = " \t\n\f\r"

var (
	portNumberPattern = regexp.MustCompile(`(\w+)\((\w*)\)`)
	blockMarker       = regexp.MustCompile(domain.PortMarker + "|" + domain.VersionMarker)
	tokenOrGap        = regexp.MustCompile(`\s+|\S+`)
	fieldGap          = regexp.MustCompile(`\s{2,}(\S)`)
	portNamePattern   = regexp.MustCompile(`^Port=(?:"(\w+)"|(\w+))(?:,|$)`)
)

// BridgePorts queries both control plane reports for bridge and merges them.
// Either query failing fails the whole call.
func BridgePorts(ctx context.Context, ovs ports.OVSBridgePort, bridge string) (map[int]domain.Port, error) {
	numbering, err := ovs.DumpPortsDesc(ctx, bridge)
	if err != nil {
		return nil, fmt.Errorf("dump ports of %s: %w", bridge, err)
	}
	topology, err := ovs.Show(ctx)
	if err != nil {
		return nil, fmt.Errorf("show topology: %w", err)
	}
	if !strings.Contains(topology, domain.VersionMarker) {
		return nil, fmt.Errorf("%w: topology report has no %s marker", domain.ErrParse, domain.VersionMarker)
	}
	return ExtractPorts(numbering, topology), nil
}

// ExtractPorts correlates `ovs-ofctl dump-ports-desc` with `ovs-vsctl show`.
// Blocks carrying a type= attribute and blocks whose port has no number are
// left out.
func ExtractPorts(numbering, topology string) map[int]domain.Port {
	index := ParsePortNumbers(numbering)

	lines := lo.Map(SplitPortBlocks(topology), func(block string, _ int) string {
		return NormalizeBlock(block)
	})
	lines = lo.Reject(lines, func(line string, _ int) bool {
		return strings.Contains(line, "type=")
	})

	result := make(map[int]domain.Port, len(lines))
	for _, line := range lines {
		name, ok := blockPortName(line)
		if !ok {
			continue
		}
		number, ok := index[name]
		if !ok {
			continue
		}
		result[number] = domain.Port{
			Number:     number,
			Name:       name,
			Attributes: SplitAttributes(line),
			Line:       line,
		}
	}
	return result
}

// ParsePortNumbers maps interface name to OpenFlow port number from
// `<number>(<name>)` tokens. A name seen twice keeps its last number.
// Non-numeric ports such as LOCAL are skipped.
func ParsePortNumbers(report string) map[string]int {
	index := make(map[string]int)
	for _, m := range portNumberPattern.FindAllStringSubmatch(report, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		index[m[2]] = n
	}
	return index
}

// SplitPortBlocks cuts the topology report into one block per Port marker,
// each running up to the next Port or ovs_version marker. A trailing block
// with no marker after it is not a block.
func SplitPortBlocks(report string) []string {
	locs := blockMarker.FindAllStringIndex(report, -1)
	var blocks []string
	for i, loc := range locs {
		if i+1 == len(locs) || report[loc[0]:loc[1]] != domain.PortMarker {
			continue
		}
		blocks = append(blocks, report[loc[0]:locs[i+1][0]])
	}
	return blocks
}

// NormalizeStage is one pure step of block normalization.
type NormalizeStage func(string) string

// NormalizeStages run in this order; each relies on the one before it.
var NormalizeStages = []NormalizeStage{StripColons, PairTokens, CollapseGaps, TrimTrailing}

// NormalizeBlock flattens a multi-line block into `k=v, k=v` form.
func NormalizeBlock(block string) string {
	line := strings.ReplaceAll(block, "\n", " ")
	for _, stage := range NormalizeStages {
		line = stage(line)
	}
	return line
}

func StripColons(s string) string {
	return strings.ReplaceAll(s, ":", "")
}

// PairTokens joins two tokens separated by exactly one whitespace character
// into key=value. The key must be at least two characters, must not end in a
// comma, and must not already hold a '='; the value is consumed by the pair.
// Wider gaps separate fields and never pair.
func PairTokens(s string) string {
	parts := tokenOrGap.FindAllString(s, -1)
	var b strings.Builder
	last := ""
	for i := 0; i < len(parts); i++ {
		p := parts[i]
		if isGap(p) {
			if utf8.RuneCountInString(p) == 1 && i+1 < len(parts) && pairableKey(last) {
				last += "=" + parts[i+1]
				b.WriteString("=" + parts[i+1])
				i++
				continue
			}
			b.WriteString(p)
			continue
		}
		last = p
		b.WriteString(p)
	}
	return b.String()
}

func CollapseGaps(s string) string {
	return fieldGap.ReplaceAllString(s, ", ${1}")
}

func TrimTrailing(s string) string {
	return strings.TrimRight(s, asciiSpace)
}

// SplitAttributes cuts a normalized line at each ", " that sits outside
// brackets, braces and quotes, so list and map values such as
// trunks=[10, 20] stay in one attribute.
func SplitAttributes(line string) []string {
	var out []string
	depth, quoted, start := 0, false, 0
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			depth = max(depth-1, 0)
		case c == ',' && depth == 0 && strings.HasPrefix(line[i+1:], " "):
			out = append(out, line[start:i])
			start = i + 2
			i++
		}
	}
	return append(out, line[start:])
}

func isGap(part string) bool {
	return part != "" && strings.IndexByte(asciiSpace, part[0]) >= 0
}

func pairableKey(tok string) bool {
	return utf8.RuneCountInString(tok) >= 2 &&
		!strings.HasSuffix(tok, ",") &&
		!strings.Contains(tok, "=")
}

func blockPortName(line string) (string, bool) {
	m := portNamePattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}
