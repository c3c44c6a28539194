package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/comictools/pkg/bleed"
	"github.com/matzehuels/comictools/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Bleed != bleed.Uniform(43) {
		t.Errorf("default margins = %+v", cfg.Bleed)
	}
	if cfg.Upscale.Scale != 4 {
		t.Errorf("default scale = %d, want 4", cfg.Upscale.Scale)
	}
}

func TestDecodeOverlaysDefaults(t *testing.T) {
	cfg := Default()
	err := Decode(`
[bleed]
left = 10

[ocr]
font = "Go Bold"
languages = ["eng", "deu"]

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ocr_ttl = "1h30m"
`, &cfg)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Bleed.Left != 10 || cfg.Bleed.Right != 43 {
		t.Errorf("bleed = %+v, want left 10 and defaults elsewhere", cfg.Bleed)
	}
	if cfg.OCR.Font != "Go Bold" || cfg.OCR.Group != "OCR" || len(cfg.OCR.Languages) != 2 {
		t.Errorf("ocr = %+v", cfg.OCR)
	}
	if cfg.Cache.OCRTTL != 90*time.Minute {
		t.Errorf("ocr ttl = %v", cfg.Cache.OCRTTL)
	}
	if cfg.Tools.Tesseract != "tesseract" {
		t.Errorf("tools overwritten: %+v", cfg.Tools)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
		code errors.Code
	}{
		{"syntax", "[bleed\nleft=1", "", ""},
		{"unknown key", "[bleed]\nmiddle = 3", "unknown keys: bleed.middle", ""},
		{"negative margin", "[bleed]\ntop = -1", "", errors.ErrCodeInvalidMargins},
		{"scale", "[upscale]\nscale = 8", "", errors.ErrCodeInvalidScale},
		{"engine", "[upscale]\nengine = \"waifu\"", "unknown upscale engine", ""},
		{"backend", "[cache]\nbackend = \"s3\"", "unknown cache backend", ""},
		{"redis addr", "[cache]\nbackend = \"redis\"", "needs redis_addr", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := Decode(tt.toml, &cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
			if tt.code != "" && !errors.Is(err, tt.code) {
				t.Errorf("error %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	// No file at the default location: defaults.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load default: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}

	path, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "comictools", "config.toml") {
		t.Errorf("DefaultPath = %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[server]\naddr = \":9000\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("server addr = %q, want :9000", cfg.Server.Addr)
	}

	_, err = Load(filepath.Join(dir, "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file: %v", err)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.OCR.Font = "Go Mono"

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	back := Default()
	if err := Decode(buf.String(), &back); err != nil {
		t.Fatalf("Decode written config: %v\n%s", err, buf.String())
	}
	if back.OCR.Font != "Go Mono" || back.Cache.UpscaleTTL != cfg.Cache.UpscaleTTL {
		t.Errorf("round trip lost values: %+v", back)
	}
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultCacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/tmp/xdg/comictools" {
		t.Errorf("DefaultCacheDir = %s", dir)
	}
}
