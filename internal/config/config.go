package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the logger reads at startup.
type Config struct {
	Device    DeviceConfig    `mapstructure:"device"`
	Loop      LoopConfig      `mapstructure:"loop"`
	Store     StoreConfig     `mapstructure:"store"`
	Transport TransportConfig `mapstructure:"transport"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
}

type DeviceConfig struct {
	ID      string `mapstructure:"id"`
	Release string `mapstructure:"release"`
}

type LoopConfig struct {
	Tick             time.Duration `mapstructure:"tick"`
	SamplingInterval time.Duration `mapstructure:"sampling_interval"` // wall-clock boundary
	AckWait          time.Duration `mapstructure:"ack_wait"`
	ResetWait        time.Duration `mapstructure:"reset_wait"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"` // bootstrap only
	WatchdogPeriod   time.Duration `mapstructure:"watchdog_period"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // sqlite | memory
	Path   string `mapstructure:"path"`
}

type TransportConfig struct {
	ReportEvent string `mapstructure:"report_event"`
	QueueSize   int    `mapstructure:"queue_size"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type AuthConfig struct {
	SigningKey       string        `mapstructure:"signing_key"`
	TokenTTL         time.Duration `mapstructure:"token_ttl"`
	OperatorUser     string        `mapstructure:"operator_user"` // seeded at startup when set
	OperatorPassword string        `mapstructure:"operator_password"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SimulatorConfig struct {
	BaseTempC    float64 `mapstructure:"base_temp_c"`
	BaseHumidity float64 `mapstructure:"base_humidity"`
	FailProbe    bool    `mapstructure:"fail_probe"`
}

const (
	StoreDriverSQLite = "sqlite"
	StoreDriverMemory = "memory"
)

// Load reads configs/config.yml (optional) layered over defaults and
// COLDCHAIN_* environment variables.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COLDCHAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("device.id", "coldchain-0001")
	v.SetDefault("device.release", "15.00")

	v.SetDefault("loop.tick", "100ms")
	v.SetDefault("loop.sampling_interval", "20m")
	v.SetDefault("loop.ack_wait", "45s")
	v.SetDefault("loop.reset_wait", "5m")
	v.SetDefault("loop.connect_timeout", "90s")
	v.SetDefault("loop.watchdog_period", "60s")

	v.SetDefault("store.driver", StoreDriverSQLite)
	v.SetDefault("store.path", "coldchain.db")

	v.SetDefault("transport.report_event", "storage-facility-hook")
	v.SetDefault("transport.queue_size", 64)

	v.SetDefault("server.port", "8080")

	v.SetDefault("auth.token_ttl", "1h")
	v.SetDefault("auth.operator_user", "operator")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("simulator.base_temp_c", 5.0)
	v.SetDefault("simulator.base_humidity", 45.0)
}

// Validate rejects settings the control loop cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Device.ID) == "" {
		return errors.New("device.id is required")
	}
	if c.Loop.SamplingInterval < time.Second || c.Loop.SamplingInterval%time.Second != 0 {
		return fmt.Errorf("loop.sampling_interval must be a whole number of seconds, got %s", c.Loop.SamplingInterval)
	}
	if c.Loop.Tick <= 0 || c.Loop.Tick >= time.Second {
		// a tick of a second or more can skip a whole boundary second
		return fmt.Errorf("loop.tick must be in (0, 1s), got %s", c.Loop.Tick)
	}
	if c.Loop.AckWait <= 0 || c.Loop.ResetWait <= 0 {
		return errors.New("loop.ack_wait and loop.reset_wait must be positive")
	}
	switch c.Store.Driver {
	case StoreDriverSQLite:
		if c.Store.Path == "" {
			return errors.New("store.path is required for the sqlite driver")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Transport.QueueSize <= 0 {
		return errors.New("transport.queue_size must be positive")
	}
	if c.Auth.SigningKey == "" {
		return errors.New("auth.signing_key is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	return nil
}
