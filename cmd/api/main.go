package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	adactor "github.com/berfenger/pi30bridge/internal/adapter/actor"
	"github.com/berfenger/pi30bridge/internal/config"
	"github.com/berfenger/pi30bridge/internal/core/actor"
	"github.com/berfenger/pi30bridge/internal/core/service"
	"github.com/berfenger/pi30bridge/internal/logging"
	"github.com/berfenger/pi30bridge/internal/metrics"
	"github.com/berfenger/pi30bridge/internal/server"
	"github.com/berfenger/pi30bridge/internal/util/actorutil"
	"github.com/berfenger/pi30bridge/pkg/pi30"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	slog.Info("pi30bridge", "version", versioninfo.Short())

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}
	safePrintConfig(*cfg)

	// zap logger
	logger := logging.NewLogger(*cfg)
	defer logger.Sync()

	// metrics
	registry := metrics.NewRegistry()
	txMetrics := metrics.NewTransactionMetrics(registry)

	// inverter client
	client := pi30.NewClient(pi30.ClientOptions{
		Timeout:        cfg.Inverter.Timeout(),
		ReadTimeout:    cfg.Inverter.ReadTimeout(),
		ReadBufferSize: cfg.Inverter.ReadBufferSize,
	}, logger, txMetrics.Instrument())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, inverterActorProvider(cfg, client, logger), mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		logger.Error("cannot spawn master actor", zap.Error(err))
		return
	}

	server := server.NewServer(*cfg, ctx, pid, actor.CommandTimeout(*cfg), registry, logger)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	logger.Info("http server listening", zap.String("addr", server.Addr))
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => PI30BRIDGE_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("PI30BRIDGE_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("pi30bridge")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func inverterActorProvider(cfg *config.Config, client *pi30.Client, logger *zap.Logger) actor.InverterActorProvider {
	defaults := service.CommandDefaults{
		Host: cfg.Inverter.Host,
		Port: int(cfg.Inverter.Port),
	}
	return func() pactor.Actor {
		return adactor.NewInverterActor(client, defaults, client.MaxDuration()+time.Second, logger)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) pactor.Actor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_format", "json")
	viper.SetDefault("log_file.filename", "")
	viper.SetDefault("log_file.max_size_mb", 10)
	viper.SetDefault("log_file.max_backups", 3)
	viper.SetDefault("log_file.max_age_days", 28)
	viper.SetDefault("log_file.compress", false)
	viper.SetDefault("port", 60606)
	viper.SetDefault("http_log", false)
	viper.SetDefault("www_dir", "./www")
	viper.SetDefault("config_dir", "./config")
	viper.SetDefault("inverter.host", "127.0.0.1")
	viper.SetDefault("inverter.port", 26)
	viper.SetDefault("inverter.timeout_millis", 2000)
	viper.SetDefault("inverter.read_timeout_millis", 0)
	viper.SetDefault("inverter.read_buffer_size", 1024)
	viper.SetDefault("monitor.enable", false)
	viper.SetDefault("monitor.probe_command", "QPI")
	viper.SetDefault("monitor.poll_interval_millis", 30000)
	viper.SetDefault("mqtt.enable", false)
	viper.SetDefault("mqtt.host", "localhost")
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("mqtt.base_topic", "pi30bridge")
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
