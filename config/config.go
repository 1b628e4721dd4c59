// Package config assembles the process configuration once at startup from
// defaults, an optional TOML file, a .env file, the environment and flags.
package config

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	BackendLocal = "local"
	BackendSFTP  = "sftp"
)

// fontFamilyUnsafe are the characters that would let FONT_FAMILY end the
// CSS declaration it is rendered into.
const fontFamilyUnsafe = ";{}<>\\\n\r"

// Duration is a time.Duration read from strings such as "90s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type SFTPConfig struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	User       string `toml:"user"`
	Password   string `toml:"password"`
	KnownHosts string `toml:"known_hosts"`
}

// Config is built once and shared read-only for the life of the process.
type Config struct {
	Root         string     `toml:"root"`
	IgnoreFiles  []string   `toml:"ignore_files"`
	Favicon      string     `toml:"favicon"`
	FontFamily   string     `toml:"font_family"`
	ThemeColor   string     `toml:"theme_color"`
	DefaultLang  string     `toml:"default_lang"`
	LanguagesDir string     `toml:"languages_dir"`
	ErrorPageURL string     `toml:"error_page_url"`
	Host         string     `toml:"host"`
	Port         int        `toml:"port"`
	Debug        bool       `toml:"debug"`
	IdleTimeout  Duration   `toml:"idle_timeout"`
	Backend      string     `toml:"backend"`
	SFTP         SFTPConfig `toml:"sftp"`
	Log          LogConfig  `toml:"log"`

	warnings []string
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Root:        ".",
		FontFamily:  "system-ui, -apple-system, sans-serif",
		ThemeColor:  "#2b6cb0",
		DefaultLang: "en",
		Host:        "localhost",
		Port:        8080,
		IdleTimeout: Duration(time.Minute),
		Backend:     BackendLocal,
		SFTP:        SFTPConfig{Port: 22},
		Log:         LogConfig{Level: "info", Format: "json"},
	}
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Warnings lists values that were ignored while loading, for logging once
// the logger exists.
func (c *Config) Warnings() []string {
	return c.warnings
}

// Load reads file (TOML, optional) and envFile (dotenv, optional; a missing
// file is not an error), then applies the environment and finally
// overrides, keyed by environment variable name.
func Load(file, envFile string, overrides map[string]string) (*Config, error) {
	dotenv := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, iofs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		if m != nil {
			dotenv = m
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := overrides[key]; ok {
			return v, true
		}
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	return load(file, lookup)
}

func load(file string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", file, err)
		}
	}

	e := &env{lookup: lookup, cfg: cfg}
	e.str(&cfg.Root, "ROOT_DIR")
	e.list(&cfg.IgnoreFiles, "IGNORE_FILES", "ignore_files")
	e.str(&cfg.Favicon, "FAVICON", "favicon")
	e.str(&cfg.FontFamily, "FONT_FAMILY")
	e.str(&cfg.ThemeColor, "THEME_COLOR")
	e.str(&cfg.DefaultLang, "DEFAULT_LANG")
	e.str(&cfg.LanguagesDir, "LANGUAGES_DIR")
	e.str(&cfg.ErrorPageURL, "ERROR_PAGE_URL")
	e.str(&cfg.Host, "HOST")
	e.boolean(&cfg.Debug, "DEBUG")
	e.duration(&cfg.IdleTimeout, "IDLE_TIMEOUT")
	e.str(&cfg.Backend, "BACKEND")
	e.str(&cfg.SFTP.Host, "SFTP_HOST")
	e.str(&cfg.SFTP.User, "SFTP_USER")
	e.str(&cfg.SFTP.Password, "SFTP_PASSWORD")
	e.str(&cfg.SFTP.KnownHosts, "SFTP_KNOWN_HOSTS")
	e.str(&cfg.Log.Level, "LOG_LEVEL")
	e.str(&cfg.Log.Format, "LOG_FORMAT")
	if err := e.port(&cfg.Port, "PORT"); err != nil {
		return nil, err
	}
	if err := e.port(&cfg.SFTP.Port, "SFTP_PORT"); err != nil {
		return nil, err
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d out of range", cfg.Port)
	}
	cfg.Backend = strings.ToLower(cfg.Backend)
	if cfg.Backend != BackendLocal && cfg.Backend != BackendSFTP {
		return nil, fmt.Errorf("unknown BACKEND: %s", cfg.Backend)
	}
	if strings.ContainsAny(cfg.FontFamily, fontFamilyUnsafe) {
		e.warn("$FONT_FAMILY (%s) is not a valid font list, default to %s", cfg.FontFamily, Default().FontFamily)
		cfg.FontFamily = Default().FontFamily
	}
	cfg.IgnoreFiles = cleanList(cfg.IgnoreFiles)
	if cfg.DefaultLang == "" {
		cfg.DefaultLang = "en"
	}
	return cfg, nil
}

// env applies environment values onto a Config. The first key found wins,
// so legacy spellings can follow the canonical one.
type env struct {
	lookup func(string) (string, bool)
	cfg    *Config
}

func (e *env) get(keys ...string) (string, string, bool) {
	for _, key := range keys {
		if v, ok := e.lookup(key); ok {
			return key, v, true
		}
	}
	return "", "", false
}

func (e *env) warn(format string, args ...any) {
	e.cfg.warnings = append(e.cfg.warnings, fmt.Sprintf(format, args...))
}

func (e *env) str(dst *string, keys ...string) {
	if _, v, ok := e.get(keys...); ok {
		*dst = strings.TrimSpace(v)
	}
}

func (e *env) list(dst *[]string, keys ...string) {
	if _, v, ok := e.get(keys...); ok {
		*dst = strings.Split(v, ",")
	}
}

func (e *env) boolean(dst *bool, keys ...string) {
	key, v, ok := e.get(keys...)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.warn("$%s (%s) is not a valid boolean, default to %t", key, v, *dst)
		return
	}
	*dst = b
}

func (e *env) duration(dst *Duration, keys ...string) {
	key, v, ok := e.get(keys...)
	if !ok || v == "" {
		return
	}
	var d Duration
	if err := d.UnmarshalText([]byte(v)); err != nil || d <= 0 {
		e.warn("$%s (%s) is not a valid duration, default to %s", key, v, time.Duration(*dst))
		return
	}
	*dst = d
}

func (e *env) port(dst *int, keys ...string) error {
	key, v, ok := e.get(keys...)
	if !ok || v == "" {
		return nil
	}
	p, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", key, err)
	}
	*dst = p
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
