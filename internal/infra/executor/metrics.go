package executor

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/enginrect/ovs-bridge-agent/internal/infra/logging"
)

var commandLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ovs_agent_command_latency_milliseconds",
		Help:    "Latency of control plane commands run by the agent.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	},
	[]string{"binary", "method", "code"},
)

func init() {
	prometheus.MustRegister(commandLatency)
}

const defaultSlowThreshold = 500 * time.Millisecond

// Metered records latency and outcome of every command run by Next.
type Metered struct {
	Next          Executor
	SlowThreshold time.Duration
}

func (m Metered) Run(ctx context.Context, argv []string) (string, error) {
	start := time.Now()
	out, err := m.Next.Run(ctx, argv)
	elapsed := time.Since(start)

	binary, method := commandIdentity(argv)
	code := "0"
	log := logging.WithFields(logrus.Fields{
		"cmd":        strings.Join(argv, " "),
		"elapsed_ms": elapsed.Milliseconds(),
	})

	slow := m.SlowThreshold
	if slow == 0 {
		slow = defaultSlowThreshold
	}
	switch {
	case err != nil:
		code = "1"
		var ce *CommandError
		if errors.As(err, &ce) {
			code = strconv.Itoa(ce.ExitCode)
			log = log.WithField("stderr", strings.TrimSpace(ce.Stderr))
		}
		log.WithError(err).Warn("command failed")
	case elapsed > slow:
		log.Warn("command took too long")
	default:
		log.Debug("command done")
	}

	commandLatency.WithLabelValues(binary, method, code).Observe(float64(elapsed) / float64(time.Millisecond))
	return out, err
}

// commandIdentity names the binary and its first sub-command, looking
// through a `docker exec -i <container>` prefix.
func commandIdentity(argv []string) (binary, method string) {
	if len(argv) >= 4 && filepath.Base(argv[0]) == "docker" && argv[1] == "exec" {
		argv = argv[4:]
	}
	if len(argv) == 0 {
		return "", ""
	}
	binary = filepath.Base(argv[0])
	for _, arg := range argv[1:] {
		if !strings.HasPrefix(arg, "-") {
			method = arg
			break
		}
	}
	return binary, method
}
