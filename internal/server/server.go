package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/berfenger/pi30bridge/internal/config"

	"github.com/asynkron/protoactor-go/actor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Server struct {
	port           uint
	httpLog        bool
	wwwDir         string
	configDir      string
	commandTimeout time.Duration
	rootContext    *actor.RootContext
	masterActor    *actor.PID
	registry       *prometheus.Registry
	logger         *zap.Logger
}

func NewServer(cfg config.Config, rootContext *actor.RootContext, masterActor *actor.PID, commandTimeout time.Duration,
	registry *prometheus.Registry, logger *zap.Logger) *http.Server {
	NewServer := &Server{
		port:           cfg.Port,
		httpLog:        cfg.HttpLog,
		wwwDir:         cfg.WWWDir,
		configDir:      cfg.ConfigDir,
		commandTimeout: commandTimeout,
		rootContext:    rootContext,
		masterActor:    masterActor,
		registry:       registry,
		logger:         logger.With(zap.String("component", "http")),
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: commandTimeout + 10*time.Second,
	}

	return server
}
