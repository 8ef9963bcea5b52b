package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/dmitrijs2005/authdesk/internal/filex"
)

// Config holds runtime settings for the authdesk client.
type Config struct {
	// ServerURL is the origin of the auth service; API calls go to ServerURL + "/auth".
	ServerURL      string        `koanf:"server_url"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// DataDir holds the credential database.
	DataDir    string `koanf:"data_dir"`
	ListenAddr string `koanf:"listen_addr"`
	LogFormat  string `koanf:"log_format"`
	LogLevel   string `koanf:"log_level"`
	// Ephemeral keeps credentials in memory only.
	Ephemeral bool `koanf:"ephemeral"`
}

const storeFileName = "session.db"

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8080"
	c.RequestTimeout = 10 * time.Second
	c.DataDir = filex.DataDir()
	c.ListenAddr = "127.0.0.1:3000"
	c.LogFormat = "text"
	c.LogLevel = "info"
	c.Ephemeral = false
}

// StorePath is the SQLite file that persists the credential pair.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, storeFileName)
}

// Validate reports settings the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return oops.In("config").With("server_url", c.ServerURL).Wrapf(err, "parse server url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return oops.In("config").With("server_url", c.ServerURL).Errorf("server url must be http or https")
	}
	if u.Host == "" {
		return oops.In("config").With("server_url", c.ServerURL).Errorf("server url has no host")
	}
	if c.RequestTimeout <= 0 {
		return oops.In("config").With("request_timeout", c.RequestTimeout).Errorf("request timeout must be positive")
	}
	return nil
}

// RegisterFlags defines the client flags on fs with defaults taken from
// (*Config).LoadDefaults.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP("config", "c", "", "path to config file (YAML or JSON)")
	fs.StringP("server-url", "a", d.ServerURL, "base URL of the auth service")
	fs.Duration("request-timeout", d.RequestTimeout, "timeout for each request to the auth service")
	fs.String("data-dir", d.DataDir, "directory holding the local credential store")
	fs.String("listen-addr", d.ListenAddr, "address the web front end listens on")
	fs.String("log-format", d.LogFormat, "log format: text or json")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	fs.Bool("ephemeral", d.Ephemeral, "keep credentials in memory only")
}

// LoadConfig builds a Config from defaults, the optional config file named
// by the "config" flag, and the flags in fs. Later sources take precedence.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	k := koanf.New(".")

	path, _ := fs.GetString("config")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.In("config").With("path", path).Wrapf(err, "load config file")
		}
	}

	flags := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
		if f.Name == "config" {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
	})
	if err := k.Load(flags, nil); err != nil {
		return nil, oops.In("config").Wrapf(err, "load flags")
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.In("config").Wrapf(err, "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
