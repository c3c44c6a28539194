package pipeline

import (
	"testing"

	"github.com/matzehuels/comictools/pkg/bleed"
	"github.com/matzehuels/comictools/pkg/errors"
	pkgio "github.com/matzehuels/comictools/pkg/io"
	"github.com/matzehuels/comictools/pkg/upscale"
)

func TestValidateOperation(t *testing.T) {
	tests := []struct {
		op      string
		wantErr bool
	}{
		{"bleed", false},
		{"ocr", false},
		{"upscale", false},
		{"BLEED", true}, // case-sensitive
		{"trim", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateOperation(tt.op)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateOperation(%q) error = %v, wantErr %v", tt.op, err, tt.wantErr)
		}
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  pkgio.Format
		wantErr bool
	}{
		{"", false},
		{"json", false},
		{"png", false},
		{"svg", true},
		{"PNG", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateTreeFormats(t *testing.T) {
	if err := ValidateTreeFormats([]string{"svg", "dot"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateTreeFormats([]string{"svg", "json"}); err == nil {
		t.Error("Invalid format should fail")
	}
	// Empty slice is valid
	if err := ValidateTreeFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in      string
		want    Region
		wantErr bool
	}{
		{"10,20,30,40", Region{10, 20, 30, 40}, false},
		{" 0, 0, 5 ,5 ", Region{0, 0, 5, 5}, false},
		{"-5,-5,10,10", Region{-5, -5, 10, 10}, false},
		{"1,2,3", Region{}, true},
		{"1,2,0,4", Region{}, true},
		{"a,b,c,d", Region{}, true},
		{"", Region{}, true},
	}
	for _, tt := range tests {
		got, err := ParseRegion(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRegion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRegion(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if err == nil && got.String() != "" {
			if back, _ := ParseRegion(got.String()); back != got {
				t.Errorf("String() = %q does not parse back", got.String())
			}
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Operation: OpUpscale}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Valid options should pass: %v", err)
	}
	if opts.Scale != upscale.DefaultScale {
		t.Errorf("Scale should be %d, got %d", upscale.DefaultScale, opts.Scale)
	}
	if opts.Logger == nil {
		t.Error("Logger should be set")
	}

	opts = Options{Operation: OpOCR}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Valid OCR options should pass: %v", err)
	}
	if opts.Group != "OCR" {
		t.Errorf("Group should default to OCR, got %q", opts.Group)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"negative margin", Options{Operation: OpBleed, Margins: bleed.Margins{Left: -1}}, errors.ErrCodeInvalidMargins},
		{"scale", Options{Operation: OpUpscale, Scale: 5}, errors.ErrCodeInvalidScale},
		{"mode", Options{Operation: OpOCR, Mode: "glyphs"}, errors.ErrCodeInvalidInput},
		{"region", Options{Operation: OpOCR, Select: []Region{{0, 0, 0, 10}}}, errors.ErrCodeInvalidInput},
		{"group", Options{Operation: OpOCR, Group: "bad\x00name"}, errors.ErrCodeInvalidLayer},
		{"format", Options{Operation: OpBleed, Format: "tiff"}, errors.ErrCodeInvalidFormat},
		{"operation", Options{Operation: "despeckle"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Operation: OpUpscale}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	logger, scale := opts.Logger, opts.Scale

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	if opts.Logger != logger || opts.Scale != scale {
		t.Error("defaults changed on second call")
	}
}
