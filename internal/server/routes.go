package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/berfenger/pi30bridge/internal/core/domain"
	"github.com/berfenger/pi30bridge/internal/core/service"
	"github.com/berfenger/pi30bridge/internal/metrics"
	"github.com/berfenger/pi30bridge/pkg/pi30"

	"github.com/carlmjohnson/versioninfo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type sendCommandBody struct {
	Command string      `json:"command"`
	Ip      string      `json:"ip"`
	Port    commandPort `json:"port"`
}

// commandPort accepts the port as a JSON number or a string.
type commandPort struct {
	Value   int
	Invalid bool
}

func (p *commandPort) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		p.Value = n
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 || n > 65535 {
		p.Invalid = true
		return nil
	}
	p.Value = n
	return nil
}

type statusResponse struct {
	Status string `json:"status"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{echo.HeaderContentType},
	}))

	e.GET("/healthcheck", s.HealthCheckHandler)

	api := e.Group("/api")
	api.POST("/send-command", s.SendCommandHandler)
	api.GET("/device-state", s.DeviceStateHandler)
	api.GET("/commands", s.CommandsHandler)
	api.GET("/version", s.VersionHandler)

	if s.registry != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(s.registry)))
	}

	e.PUT("/config/:file", s.SaveConfigHandler)
	e.Static("/config", s.configDir)
	e.Static("/", s.wwwDir)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) SendCommandHandler(c echo.Context) error {
	var body sendCommandBody
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}
	if body.Command == "" {
		return c.String(http.StatusBadRequest, service.ErrCommandMissing.Error())
	}
	if body.Port.Invalid {
		s.logger.Warn("send-command: invalid port", zap.String("command", body.Command))
		return c.JSON(http.StatusOK, statusResponse{Status: service.StatusMessage(pi30.CommunicationError)})
	}

	req := domain.SendCommandRequest{
		Command: body.Command,
		Host:    body.Ip,
		Port:    body.Port.Value,
	}
	res, err := s.rootContext.RequestFuture(s.masterActor, req, s.commandTimeout).Result()
	if err != nil {
		s.logger.Warn("send-command: no response", zap.String("command", body.Command), zap.Error(err))
		return c.JSON(http.StatusOK, statusResponse{Status: service.StatusMessage(pi30.CommunicationError)})
	}
	resp, ok := res.(domain.SendCommandResponse)
	if !ok {
		return c.String(http.StatusInternalServerError, "Unexpected response")
	}
	if errors.Is(resp.GetResponseError(), service.ErrCommandMissing) {
		return c.String(http.StatusBadRequest, service.ErrCommandMissing.Error())
	}
	return c.JSON(http.StatusOK, statusResponse{Status: service.StatusMessage(resp.Outcome)})
}

func (s *Server) DeviceStateHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetDeviceStateRequest{}, 5*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, err.Error())
	}
	resp, ok := res.(domain.GetDeviceStateResponse)
	if !ok {
		return c.String(http.StatusInternalServerError, "Unexpected response")
	}
	return c.JSON(http.StatusOK, resp.State)
}

func (s *Server) CommandsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, pi30.CommandNames())
}

func (s *Server) VersionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"version":  versioninfo.Short(),
		"revision": versioninfo.Revision,
	})
}

// SaveConfigHandler stores a JSON document under the config dir, pretty printed.
func (s *Server) SaveConfigHandler(c echo.Context) error {
	name := filepath.Base(c.Param("file"))
	if !strings.HasSuffix(name, ".json") {
		return c.String(http.StatusForbidden, "Forbidden")
	}

	var raw json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
		return c.String(http.StatusInternalServerError, "Error saving config")
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return c.String(http.StatusInternalServerError, "Error saving config")
	}

	if err := os.MkdirAll(s.configDir, 0o755); err != nil {
		s.logger.Error("config: mkdir failed", zap.Error(err))
		return c.String(http.StatusInternalServerError, "Error saving config")
	}
	if err := os.WriteFile(filepath.Join(s.configDir, name), pretty.Bytes(), 0o644); err != nil {
		s.logger.Error("config: write failed", zap.String("file", name), zap.Error(err))
		return c.String(http.StatusInternalServerError, "Error saving config")
	}
	s.logger.Info("config saved", zap.String("file", name))
	return c.String(http.StatusOK, "OK")
}
