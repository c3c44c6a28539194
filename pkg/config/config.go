// Package config loads comictools settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/comictools/config.toml (falling back
// to ~/.config/comictools/config.toml) unless a path is given explicitly.
// Every key is optional; missing keys keep their defaults:
//
//	[tools]
//	tesseract   = "/usr/bin/tesseract"
//	realesrgan  = "/opt/realesrgan/realesrgan-ncnn-vulkan"
//
//	[bleed]
//	left = 43
//	right = 43
//	top = 43
//	bottom = 43
//
//	[ocr]
//	font = "Go Bold"
//	group = "OCR"
//	languages = ["eng"]
//
//	[upscale]
//	scale = 4
//	model = "realesr-animevideov3"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ocr_ttl = "720h"
//
//	[server]
//	addr = ":8080"
//
// Command-line flags override values from the file.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/comictools/pkg/bleed"
	"github.com/matzehuels/comictools/pkg/cache"
	"github.com/matzehuels/comictools/pkg/errors"
)

const appName = "comictools"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the full set of settings.
type Config struct {
	Tools   Tools         `toml:"tools"`
	Bleed   bleed.Margins `toml:"bleed"`
	OCR     OCR           `toml:"ocr"`
	Upscale Upscale       `toml:"upscale"`
	Cache   Cache         `toml:"cache"`
	Server  Server        `toml:"server"`
}

// Tools holds paths (or PATH-resolved names) of the external binaries.
type Tools struct {
	Tesseract   string `toml:"tesseract"`
	RealESRGAN  string `toml:"realesrgan"`
	RSVGConvert string `toml:"rsvg_convert"`
}

// OCR holds defaults for the ocr command.
type OCR struct {
	Engine     string   `toml:"engine"`
	Mode       string   `toml:"mode"`
	Font       string   `toml:"font"`
	Group      string   `toml:"group"`
	Languages  []string `toml:"languages"`
	LineByLine bool     `toml:"line_by_line"`
}

// Upscale holds defaults for the upscale command.
type Upscale struct {
	Scale  int    `toml:"scale"`
	Engine string `toml:"engine"`
	Model  string `toml:"model"`
}

// Cache selects and configures the result cache.
type Cache struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	Prefix        string        `toml:"prefix"`
	OCRTTL        time.Duration `toml:"ocr_ttl"`
	UpscaleTTL    time.Duration `toml:"upscale_ttl"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string `toml:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Tools: Tools{
			Tesseract:   "tesseract",
			RealESRGAN:  "realesrgan-ncnn-vulkan",
			RSVGConvert: "rsvg-convert",
		},
		Bleed: bleed.Uniform(bleed.DefaultMargin),
		OCR: OCR{
			Engine:    "tesseract",
			Font:      "Go",
			Group:     "OCR",
			Languages: []string{"eng"},
		},
		Upscale: Upscale{
			Scale:  errors.MaxScale,
			Engine: "realesrgan",
		},
		Cache: Cache{
			Backend:    BackendFile,
			OCRTTL:     cache.TTLOCR,
			UpscaleTTL: cache.TTLUpscale,
		},
		Server: Server{
			Addr:         ":8080",
			MaxBodyBytes: 256 << 20,
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// DefaultCacheDir returns the per-user cache directory.
func DefaultCacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads the config file at path over the defaults. An empty path means
// [DefaultPath], which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err := Decode(string(data), &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	return cfg, nil
}

// Decode parses TOML into cfg, keeping fields the document does not set.
// Unknown keys are an error.
func Decode(data string, cfg *Config) error {
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if err := c.Bleed.Validate(); err != nil {
		return err
	}
	if err := errors.ValidateScale(c.Upscale.Scale); err != nil {
		return err
	}
	switch c.Upscale.Engine {
	case "realesrgan", "builtin":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown upscale engine %q", c.Upscale.Engine)
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "cache backend redis needs redis_addr")
	}
	return nil
}

// Write encodes cfg as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
