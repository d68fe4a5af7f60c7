package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	session "github.com/koscakluka/signspell/core"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SIGNSPELL"

// Config holds the client configuration.
type Config struct {
	URL                string          `mapstructure:"url"`
	Pacing             int             `mapstructure:"pacing"`
	Capacity           int             `mapstructure:"capacity"`
	CapacityPolicy     string          `mapstructure:"capacity_policy"`
	SerializedRequests bool            `mapstructure:"serialized_requests"`
	PollInterval       time.Duration   `mapstructure:"poll_interval"`
	ReconnectDelay     time.Duration   `mapstructure:"reconnect_delay"`
	Log                LogConfig       `mapstructure:"log"`
	DevServer          DevServerConfig `mapstructure:"devserver"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Debug bool   `mapstructure:"debug"`
}

// DevServerConfig configures the local translator stub.
type DevServerConfig struct {
	Addr       string        `mapstructure:"addr"`
	ChunkSize  int           `mapstructure:"chunk_size"`
	BatchDelay time.Duration `mapstructure:"batch_delay"`
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"url":      "url",
	"pacing":   "pacing",
	"debug":    "log.debug",
	"log-file": "log.file",
	"addr":     "devserver.addr",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("url", "ws://localhost:8080/")
	v.SetDefault("pacing", int(session.DefaultPacing))
	v.SetDefault("capacity", session.DefaultCapacity)
	v.SetDefault("capacity_policy", session.DefaultCapacityPolicy.String())
	v.SetDefault("serialized_requests", false)
	v.SetDefault("poll_interval", session.DefaultPollInterval)
	v.SetDefault("reconnect_delay", 2*time.Second)
	v.SetDefault("log.file", "")
	v.SetDefault("log.debug", false)
	v.SetDefault("devserver.addr", "localhost:8080")
	v.SetDefault("devserver.chunk_size", 4)
	v.SetDefault("devserver.batch_delay", 150*time.Millisecond)
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	v := viper.New()
	setDefaults(v)

	var c Config
	_ = v.Unmarshal(&c)
	return c
}

// Load reads configuration from the file at path, the environment and flags,
// later sources overriding earlier ones. Env var overrides use prefix
// SIGNSPELL_. With an empty path the user config directory is searched and a
// missing file is not an error.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "signspell"))
		}
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return Config{}, fmt.Errorf("failed to bind flag %q: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return errors.New("translator url is empty")
	}
	if _, err := session.ParseCapacityPolicy(c.CapacityPolicy); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	return nil
}

// SessionOptions turns the configuration into session options. The channel
// is left to the caller.
func (c Config) SessionOptions() []session.SessionOption {
	policy, _ := session.ParseCapacityPolicy(c.CapacityPolicy)
	opts := []session.SessionOption{
		session.WithCapacity(c.Capacity, policy),
		session.WithPacing(session.Pacing(c.Pacing)),
	}
	if c.SerializedRequests {
		opts = append(opts, session.WithSerializedRequests())
	}
	return opts
}

type fileConfig struct {
	URL                string        `yaml:"url"`
	Pacing             int           `yaml:"pacing"`
	Capacity           int           `yaml:"capacity"`
	CapacityPolicy     string        `yaml:"capacity_policy"`
	SerializedRequests bool          `yaml:"serialized_requests"`
	PollInterval       string        `yaml:"poll_interval"`
	ReconnectDelay     string        `yaml:"reconnect_delay"`
	Log                fileLogConfig `yaml:"log"`
	DevServer          fileDevServer `yaml:"devserver"`
}

type fileLogConfig struct {
	File  string `yaml:"file,omitempty"`
	Debug bool   `yaml:"debug"`
}

type fileDevServer struct {
	Addr       string `yaml:"addr"`
	ChunkSize  int    `yaml:"chunk_size"`
	BatchDelay string `yaml:"batch_delay"`
}

// Write encodes c as a YAML config file.
func Write(w io.Writer, c Config) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	err := encoder.Encode(fileConfig{
		URL:                c.URL,
		Pacing:             c.Pacing,
		Capacity:           c.Capacity,
		CapacityPolicy:     c.CapacityPolicy,
		SerializedRequests: c.SerializedRequests,
		PollInterval:       c.PollInterval.String(),
		ReconnectDelay:     c.ReconnectDelay.String(),
		Log:                fileLogConfig{File: c.Log.File, Debug: c.Log.Debug},
		DevServer: fileDevServer{
			Addr:       c.DevServer.Addr,
			ChunkSize:  c.DevServer.ChunkSize,
			BatchDelay: c.DevServer.BatchDelay.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return encoder.Close()
}

// Save writes c to path, creating the parent directory if needed.
func Save(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if err := Write(f, c); err != nil {
		return errors.Join(err, f.Close())
	}
	return f.Close()
}

// DefaultPath is where Load looks for the config file when none is given.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config dir: %w", err)
	}
	return filepath.Join(dir, "signspell", "config.yaml"), nil
}
