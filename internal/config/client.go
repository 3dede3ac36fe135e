package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"focusflow/internal/engine"
	"focusflow/internal/log"
	"focusflow/internal/model"
	"focusflow/internal/tracing"
)

const (
	EnvPrefix       = "FOCUSFLOW"
	localConfigPath = ".focusflow/config.yaml"
	localDBName     = "local.db"
)

// TimerConfig holds the default cycle used until a user saves their own settings.
type TimerConfig struct {
	FocusTime    time.Duration `mapstructure:"focus_time"`
	ShortBreak   time.Duration `mapstructure:"short_break"`
	LongBreak    time.Duration `mapstructure:"long_break"`
	SessionCycle int           `mapstructure:"session_cycle"`
}

func (t TimerConfig) CycleConfig() model.CycleConfig {
	return model.CycleConfigFromDurations(t.FocusTime, t.ShortBreak, t.LongBreak, t.SessionCycle)
}

type ClientConfig struct {
	APIURL       string         `mapstructure:"api_url"`
	DataDir      string         `mapstructure:"data_dir"`
	LogFile      string         `mapstructure:"log_file"`
	LogLevel     string         `mapstructure:"log_level"`
	DrainTimeout time.Duration  `mapstructure:"drain_timeout"`
	Timer        TimerConfig    `mapstructure:"timer"`
	Tracing      tracing.Config `mapstructure:"tracing"`
}

func (c ClientConfig) DBPath() string {
	return filepath.Join(c.DataDir, localDBName)
}

func DefaultClient() ClientConfig {
	dataDir := ".focusflow"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".local", "share", "focusflow")
	}
	cycle := model.DefaultCycleConfig()
	return ClientConfig{
		APIURL:       "http://localhost:8080/api",
		DataDir:      dataDir,
		LogLevel:     "info",
		DrainTimeout: engine.DefaultDrainTimeout,
		Timer: TimerConfig{
			FocusTime:    time.Duration(cycle.FocusTime) * time.Second,
			ShortBreak:   time.Duration(cycle.ShortBreak) * time.Second,
			LongBreak:    time.Duration(cycle.LongBreak) * time.Second,
			SessionCycle: cycle.SessionCycle,
		},
		Tracing: tracing.DefaultConfig(),
	}
}

func setClientDefaults(v *viper.Viper) {
	d := DefaultClient()
	v.SetDefault("api_url", d.APIURL)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("drain_timeout", d.DrainTimeout)
	v.SetDefault("timer.focus_time", d.Timer.FocusTime)
	v.SetDefault("timer.short_break", d.Timer.ShortBreak)
	v.SetDefault("timer.long_break", d.Timer.LongBreak)
	v.SetDefault("timer.session_cycle", d.Timer.SessionCycle)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

// LoadClient reads the client configuration into v. cfgFile wins when set;
// otherwise ./.focusflow/config.yaml, then ~/.config/focusflow/config.yaml.
// A missing file is not an error. FOCUSFLOW_* variables override the file.
func LoadClient(v *viper.Viper, cfgFile string) (ClientConfig, error) {
	setClientDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if _, err := os.Stat(localConfigPath); err == nil {
		v.SetConfigFile(localConfigPath)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "focusflow"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return ClientConfig{}, fmt.Errorf("read config: %w", err)
		}
		log.Debug(log.CatConfig, "no config file, using defaults")
	}

	return decodeClient(v)
}

func Reload(v *viper.Viper) (ClientConfig, error) {
	if err := v.ReadInConfig(); err != nil {
		return ClientConfig{}, fmt.Errorf("reread config: %w", err)
	}
	return decodeClient(v)
}

func decodeClient(v *viper.Viper) (ClientConfig, error) {
	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = engine.DefaultDrainTimeout
	}
	return cfg, nil
}

// DefaultClientPath is where `config init` writes when no path is given.
func DefaultClientPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return localConfigPath
	}
	return filepath.Join(home, ".config", "focusflow", "config.yaml")
}

// fileTimer mirrors TimerConfig with durations spelled as strings, the form viper parses back.
type fileTimer struct {
	FocusTime    string `yaml:"focus_time"`
	ShortBreak   string `yaml:"short_break"`
	LongBreak    string `yaml:"long_break"`
	SessionCycle int    `yaml:"session_cycle"`
}

type fileConfig struct {
	APIURL       string         `yaml:"api_url"`
	DataDir      string         `yaml:"data_dir"`
	LogFile      string         `yaml:"log_file"`
	LogLevel     string         `yaml:"log_level"`
	DrainTimeout string         `yaml:"drain_timeout"`
	Timer        fileTimer      `yaml:"timer"`
	Tracing      tracing.Config `yaml:"tracing"`
}

const fileHeader = `# FocusFlow client configuration.
# Every key can be overridden with a FOCUSFLOW_ variable, e.g. FOCUSFLOW_API_URL
# or FOCUSFLOW_TIMER_FOCUS_TIME=25m. Timer values are defaults; settings saved
# with "focusflow settings set" take precedence for that user.
`

// WriteDefaultClient writes cfg as YAML to path. An existing file is kept
// unless overwrite is set.
func WriteDefaultClient(path string, cfg ClientConfig, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}

	out, err := yaml.Marshal(fileConfig{
		APIURL:       cfg.APIURL,
		DataDir:      cfg.DataDir,
		LogFile:      cfg.LogFile,
		LogLevel:     cfg.LogLevel,
		DrainTimeout: cfg.DrainTimeout.String(),
		Timer: fileTimer{
			FocusTime:    cfg.Timer.FocusTime.String(),
			ShortBreak:   cfg.Timer.ShortBreak.String(),
			LongBreak:    cfg.Timer.LongBreak.String(),
			SessionCycle: cfg.Timer.SessionCycle,
		},
		Tracing: cfg.Tracing,
	})
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(fileHeader), out...), 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	log.Info(log.CatConfig, "wrote config", "path", path)
	return nil
}
