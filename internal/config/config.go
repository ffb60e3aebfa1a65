package config

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel      zapcore.Level
	LogFormat     string         `mapstructure:"log_format"`
	LogFile       LogFileConfig  `mapstructure:"log_file"`
	Inverter      InverterConfig `mapstructure:"inverter"`
	MQTT          MQTTConfig     `mapstructure:"mqtt"`
	MonitorConfig MonitorConfig  `mapstructure:"monitor"`
	Port          uint           `mapstructure:"port"`
	HttpLog       bool           `mapstructure:"http_log"`
	WWWDir        string         `mapstructure:"www_dir"`
	ConfigDir     string         `mapstructure:"config_dir"`
}

type LogFileConfig struct {
	Filename   string
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

type InverterConfig struct {
	Host              string
	Port              uint
	TimeoutMillis     uint32 `mapstructure:"timeout_millis"`
	ReadTimeoutMillis uint32 `mapstructure:"read_timeout_millis"`
	ReadBufferSize    int    `mapstructure:"read_buffer_size"`
}

type MonitorConfig struct {
	Enable             bool
	ProbeCommand       string `mapstructure:"probe_command"`
	PollIntervalMillis uint32 `mapstructure:"poll_interval_millis"`
}

type MQTTConfig struct {
	Enable            bool
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func (c InverterConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

func (c InverterConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMillis) * time.Millisecond
}

func (c MonitorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// Validate checks bounds that viper defaults cannot enforce.
func (c *Config) Validate() error {
	if c.Inverter.TimeoutMillis < 100 {
		return errors.New("config param inverter.timeout_millis should be >= 100")
	}
	if c.Inverter.Port == 0 || c.Inverter.Port > 65535 {
		return errors.New("config param inverter.port should be in 1..65535")
	}
	if c.MonitorConfig.Enable {
		if c.MonitorConfig.PollIntervalMillis < 1000 {
			return errors.New("config param monitor.poll_interval_millis should be >= 1000")
		}
		if strings.TrimSpace(c.MonitorConfig.ProbeCommand) == "" {
			return errors.New("config param monitor.probe_command must not be empty")
		}
	}
	if c.MQTT.Enable {
		baseTopic, err := CheckMQTTTopic(c.MQTT.BaseTopic)
		if err != nil {
			return errors.New("invalid base topic. can only contain letters, numbers and underscores")
		}
		c.MQTT.BaseTopic = baseTopic

		hadBaseTopic, err := CheckMQTTTopic(c.MQTT.HADiscoveryTopic)
		if err != nil {
			return errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
		}
		c.MQTT.HADiscoveryTopic = hadBaseTopic
	}
	return nil
}
