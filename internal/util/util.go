package util

import (
	"github.com/berfenger/pi30bridge/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Inverter: config.InverterConfig{
			Host:           "127.0.0.1",
			Port:           26,
			TimeoutMillis:  500,
			ReadBufferSize: 1024,
		},
		MQTT: config.MQTTConfig{
			Enable:           false,
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "pi30bridge",
			HADiscoveryTopic: "homeassistant",
		},
		MonitorConfig: config.MonitorConfig{
			Enable:             false,
			ProbeCommand:       "QPI",
			PollIntervalMillis: 1000,
		},
		Port:      8080,
		WWWDir:    "./www",
		ConfigDir: "./config",
	}
}
