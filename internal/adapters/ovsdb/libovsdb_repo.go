package ovsdb

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/ovn-kubernetes/libovsdb/client"
	"github.com/ovn-kubernetes/libovsdb/model"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/enginrect/ovs-bridge-agent/internal/domain"
	"github.com/enginrect/ovs-bridge-agent/internal/infra/logging"
)

const (
	DatabaseName   = "Open_vSwitch"
	InterfaceTable = "Interface"
)

// Interface is the slice of the Interface table the agent reads.
type Interface struct {
	UUID string `ovsdb:"_uuid"`
	Name string `ovsdb:"name"`
	Type string `ovsdb:"type"`
}

func DatabaseModel() (model.ClientDBModel, error) {
	return model.NewClientDBModel(DatabaseName, map[string]model.Model{
		InterfaceTable: &Interface{},
	})
}

// LibOVSDB answers name queries from a monitored ovsdb cache instead of
// spawning ovs-vsctl per candidate. The cache is kept current by the monitor,
// so each lookup still reflects live control plane state.
type LibOVSDB struct {
	cli  client.Client
	logw *io.PipeWriter
}

func NewLibOVSDB(ctx context.Context, endpoint string) (*LibOVSDB, error) {
	if endpoint == "" {
		endpoint = domain.DefaultOVSDBEndpoint
	}
	dbModel, err := DatabaseModel()
	if err != nil {
		return nil, fmt.Errorf("build %s model: %w", DatabaseName, err)
	}

	logger, logw := newLogger()
	cli, err := client.NewOVSDBClient(dbModel, client.WithEndpoint(endpoint), client.WithLogger(&logger))
	if err != nil {
		logw.Close()
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := cli.Connect(ctx); err != nil {
		logw.Close()
		return nil, fmt.Errorf("connect %s: %w", endpoint, err)
	}
	if _, err := cli.MonitorAll(ctx); err != nil {
		cli.Disconnect()
		logw.Close()
		return nil, fmt.Errorf("monitor %s: %w", DatabaseName, err)
	}
	logging.WithField("endpoint", endpoint).Info("connected to ovsdb")
	return &LibOVSDB{cli: cli, logw: logw}, nil
}

// newLogger routes libovsdb logging into logrus at debug level. The returned
// writer must be closed to stop the goroutine draining it.
func newLogger() (logr.Logger, *io.PipeWriter) {
	w := logging.Writer(logrus.DebugLevel)
	return stdr.New(log.New(w, "", 0)).WithName("libovsdb"), w
}

func (s *LibOVSDB) InterfaceNames(ctx context.Context) ([]string, error) {
	var ifaces []Interface
	if err := s.cli.List(ctx, &ifaces); err != nil {
		return nil, err
	}
	return lo.Map(ifaces, func(i Interface, _ int) string { return i.Name }), nil
}

func (s *LibOVSDB) IsNameUsed(ctx context.Context, name string) (bool, error) {
	var ifaces []Interface
	if err := s.cli.WhereCache(func(i *Interface) bool { return i.Name == name }).List(ctx, &ifaces); err != nil {
		return false, fmt.Errorf("query interface %s: %w", name, err)
	}
	return len(ifaces) > 0, nil
}

func (s *LibOVSDB) Close() error {
	s.cli.Disconnect()
	return s.logw.Close()
}
