// Package config resolves runtime settings from flags, PROTASK_* environment variables
// and an optional config.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"protask/internal/format"
	"protask/internal/store"
)

const (
	EnvPrefix      = "PROTASK"
	ConfigDirEnv   = "PROTASK_CONFIG_DIR"
	ConfigFileName = "config"
	ConfigFileType = "yaml"
	DefaultDirName = ".protask"

	KeyDataDir = "data_dir"
	KeyBackend = "backend"
	KeyKey     = "key"
	KeyFormat  = "format"
	KeyPretty  = "pretty"
)

// FlagKeys maps CLI flag names to config keys.
var FlagKeys = map[string]string{
	"dir":     KeyDataDir,
	"backend": KeyBackend,
	"key":     KeyKey,
	"format":  KeyFormat,
	"pretty":  KeyPretty,
}

type Config struct {
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
	Backend string `json:"backend" mapstructure:"backend"`
	Key     string `json:"key" mapstructure:"key"`
	Format  string `json:"format" mapstructure:"format"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
	// ConfigFile is the file that was read, or "" when none was found.
	ConfigFile string `json:"config_file" mapstructure:"-"`
}

// Error marks a bad configuration value or an unreadable config file.
type Error struct {
	Key    string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("config: %s", e.Reason)
	}
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

type Options struct {
	// ConfigFile overrides the config.yaml search.
	ConfigFile string
	// Flags are bound by name through FlagKeys; only flags that were set take effect.
	Flags *pflag.FlagSet
	// Getenv defaults to os.Getenv and is only used to locate the config dir.
	Getenv func(string) string
	// Home defaults to os.UserHomeDir.
	Home func() (string, error)
}

// DefaultDir is ~/.protask, or .protask in the working directory when there is no home.
func DefaultDir(home func() (string, error)) string {
	if home == nil {
		home = os.UserHomeDir
	}
	h, err := home()
	if err != nil || strings.TrimSpace(h) == "" {
		return DefaultDirName
	}
	return filepath.Join(h, DefaultDirName)
}

func Load(opts Options) (Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	defaultDir := DefaultDir(opts.Home)

	v := viper.New()
	v.SetDefault(KeyDataDir, defaultDir)
	v.SetDefault(KeyBackend, string(store.BackendSQLite))
	v.SetDefault(KeyKey, store.DefaultKey)
	v.SetDefault(KeyFormat, string(format.JSON))
	v.SetDefault(KeyPretty, false)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		dir := strings.TrimSpace(getenv(ConfigDirEnv))
		if dir == "" {
			dir = defaultDir
		}
		v.AddConfigPath(dir)
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileType)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, &Error{Key: key, Reason: err.Error(), Err: err}
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || opts.ConfigFile != "" {
			return Config{}, &Error{Reason: "read " + describeFile(v, opts.ConfigFile) + ": " + err.Error(), Err: err}
		}
	}

	cfg := Config{
		DataDir:    expandHome(v.GetString(KeyDataDir), opts.Home),
		Backend:    strings.ToLower(strings.TrimSpace(v.GetString(KeyBackend))),
		Key:        strings.TrimSpace(v.GetString(KeyKey)),
		Format:     strings.ToLower(strings.TrimSpace(v.GetString(KeyFormat))),
		Pretty:     v.GetBool(KeyPretty),
		ConfigFile: v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch store.BackendKind(c.Backend) {
	case store.BackendSQLite, store.BackendFile, store.BackendMemory:
	default:
		return &Error{Key: KeyBackend, Reason: fmt.Sprintf("unknown backend %q (want sqlite, file or memory)", c.Backend)}
	}
	if c.Key == "" {
		return &Error{Key: KeyKey, Reason: "must not be empty"}
	}
	if strings.TrimSpace(c.DataDir) == "" && store.BackendKind(c.Backend) != store.BackendMemory {
		return &Error{Key: KeyDataDir, Reason: "must not be empty"}
	}
	if _, err := format.Parse(c.Format); err != nil {
		return &Error{Key: KeyFormat, Reason: err.Error(), Err: err}
	}
	return nil
}

func describeFile(v *viper.Viper, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if used := v.ConfigFileUsed(); used != "" {
		return used
	}
	return "config file"
}

func expandHome(p string, home func() (string, error)) string {
	p = strings.TrimSpace(p)
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	if home == nil {
		home = os.UserHomeDir
	}
	h, err := home()
	if err != nil {
		return p
	}
	return filepath.Join(h, strings.TrimPrefix(p, "~"))
}
