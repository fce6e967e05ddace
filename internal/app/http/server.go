package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/enginrect/ovs-bridge-agent/internal/app/runtime"
	"github.com/enginrect/ovs-bridge-agent/internal/domain"
	"github.com/enginrect/ovs-bridge-agent/internal/infra/logging"
	"github.com/enginrect/ovs-bridge-agent/internal/usecase"
)

type Server struct {
	e  *echo.Echo
	rt *runtime.Runtime
}

func NewServer(rt *runtime.Runtime) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := logging.WithFields(logrus.Fields{
				"request_id": v.RequestID,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency,
			})
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Debug("request")
			return nil
		},
	}))
	s := &Server{e: e, rt: rt}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.e.POST("/names", s.handleAssignNames)
	s.e.PUT("/other-config", s.handleOtherConfig)

	br := s.e.Group("/bridges")
	br.POST("", s.handleCreateBridge)
	br.DELETE("/:name", s.handleDestroyBridge)
	br.PATCH("/:name", s.handleSetBridge)
	br.GET("/:name/ports", s.handlePorts)
	br.POST("/:name/bonds", s.handleAddBond)
	br.POST("/:name/ports", s.handleAddPort)
	br.POST("/:name/flows/reset", s.handleResetFlows)
	br.POST("/:name/link/up", s.handleLinkUp)
}

func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	logging.WithField("addr", addr).Info("listening")
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

type namesReq struct {
	Prefix string `json:"prefix"`
	Pair   bool   `json:"pair"`
}

type bridgeReq struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

type ifaceReq struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

type bondReq struct {
	Name       string     `json:"name"`
	Devices    []string   `json:"devices"`
	Options    []string   `json:"options"`
	Interfaces []ifaceReq `json:"interfaces"`
}

type portReq struct {
	Name             string   `json:"name"`
	InterfaceOptions []string `json:"interface_options"`
}

type optionsReq struct {
	Options []string `json:"options"`
}

func (s *Server) handleAssignNames(c echo.Context) error {
	var req namesReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}
	if req.Prefix == "" {
		return badRequest(c, "prefix is required")
	}
	ctx := c.Request().Context()
	if req.Pair {
		first, second, err := s.rt.Allocator.AssignPair(ctx, req.Prefix)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusOK, map[string][]string{"names": {first, second}})
	}
	name, err := s.rt.Allocator.Assign(ctx, req.Prefix)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string][]string{"names": {name}})
}

func (s *Server) handleCreateBridge(c echo.Context) error {
	var req bridgeReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}
	opts, err := domain.ParseOptions(req.Options...)
	if err != nil {
		return fail(c, err)
	}
	ctx := c.Request().Context()
	b, err := usecase.NewBridge(ctx, s.rt.OVS, s.rt.Allocator, req.Name)
	if err != nil {
		return fail(c, err)
	}
	if len(opts) > 0 {
		if err := b.SetBr(ctx, opts...); err != nil {
			// drop the half-configured bridge
			if derr := b.Destroy(ctx); derr != nil {
				logging.WithBridge(b.Name).WithError(derr).Warn("remove bridge after failed set")
			}
			return c.JSON(statusFor(err), map[string]string{"error": err.Error(), "name": b.Name})
		}
	}
	return c.JSON(http.StatusCreated, map[string]string{"name": b.Name})
}

func (s *Server) handleDestroyBridge(c echo.Context) error {
	b := usecase.OpenBridge(s.rt.OVS, c.Param("name"))
	if err := b.Destroy(c.Request().Context()); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSetBridge(c echo.Context) error {
	var req optionsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}
	opts, err := domain.ParseOptions(req.Options...)
	if err != nil {
		return fail(c, err)
	}
	b := usecase.OpenBridge(s.rt.OVS, c.Param("name"))
	if err := b.SetBr(c.Request().Context(), opts...); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handlePorts(c echo.Context) error {
	b := usecase.OpenBridge(s.rt.OVS, c.Param("name"))
	ports, err := b.Ports(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ports)
}

func (s *Server) handleAddBond(c echo.Context) error {
	var req bondReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}
	if req.Name == "" || len(req.Devices) == 0 {
		return badRequest(c, "name and devices are required")
	}
	opts, err := domain.ParseOptions(req.Options...)
	if err != nil {
		return fail(c, err)
	}
	tx := usecase.OpenBridge(s.rt.OVS, c.Param("name")).InitBond(req.Name, req.Devices).SetOptions(opts...)
	for _, iface := range req.Interfaces {
		ifaceOpts, err := domain.ParseOptions(iface.Options...)
		if err != nil {
			return fail(c, err)
		}
		tx.SetInterface(iface.Name, ifaceOpts...)
	}
	if _, err := tx.Execute(c.Request().Context()); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"name": req.Name})
}

func (s *Server) handleAddPort(c echo.Context) error {
	var req portReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}
	if req.Name == "" {
		return badRequest(c, "name is required")
	}
	opts, err := domain.ParseOptions(req.InterfaceOptions...)
	if err != nil {
		return fail(c, err)
	}
	tx := usecase.OpenBridge(s.rt.OVS, c.Param("name")).AddPort(req.Name)
	if len(opts) > 0 {
		tx.SetInterface(req.Name, opts...)
	}
	if _, err := tx.Execute(c.Request().Context()); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"name": req.Name})
}

func (s *Server) handleResetFlows(c echo.Context) error {
	b := usecase.OpenBridge(s.rt.OVS, c.Param("name"))
	if err := b.ResetFlows(c.Request().Context()); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleLinkUp(c echo.Context) error {
	b := usecase.OpenBridge(s.rt.OVS, c.Param("name"))
	if err := b.LinkUp(c.Request().Context(), s.rt.Links); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleOtherConfig(c echo.Context) error {
	var req optionsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}
	opts, err := domain.ParseOptions(req.Options...)
	if err != nil {
		return fail(c, err)
	}
	if err := usecase.SetOtherConfig(c.Request().Context(), s.rt.OVS, opts...); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

func fail(c echo.Context, err error) error {
	return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidOption):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNameExhausted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCommandFailure), errors.Is(err, domain.ErrParse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
