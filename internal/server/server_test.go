package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/comictools/pkg/buildinfo"
	"github.com/matzehuels/comictools/pkg/config"
	"github.com/matzehuels/comictools/pkg/errors"
	pkgio "github.com/matzehuels/comictools/pkg/io"
	"github.com/matzehuels/comictools/pkg/pipeline"
)

func newTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	srv := New(pipeline.NewRunner(nil, nil, logger), cfg, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func pagePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(10 * x), G: uint8(10 * y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func post(t *testing.T, url string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/octet-stream", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorDetail {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, config.Default())

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Server"); got != buildinfo.ServerHeader() {
		t.Errorf("Server header = %q, want %q", got, buildinfo.ServerHeader())
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestFonts(t *testing.T) {
	ts := newTestServer(t, config.Default())

	resp, err := http.Get(ts.URL + "/v1/fonts")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		Fonts   []string `json:"fonts"`
		Default string   `json:"default"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Fonts) == 0 {
		t.Error("no fonts listed")
	}
	if body.Default != "Go" {
		t.Errorf("default = %q, want Go", body.Default)
	}
}

func TestBleedPNG(t *testing.T) {
	ts := newTestServer(t, config.Default())

	resp := post(t, ts.URL+"/v1/bleed?margin=3", pagePNG(t, 20, 10))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %+v", resp.StatusCode, decodeError(t, resp))
	}
	if got := resp.Header.Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", got)
	}
	if got := resp.Header.Get(HeaderCanvasSize); got != "26x16" {
		t.Errorf("%s = %q, want 26x16", HeaderCanvasSize, got)
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 26 || b.Dy() != 16 {
		t.Errorf("image size = %dx%d, want 26x16", b.Dx(), b.Dy())
	}
}

func TestBleedPerSideAndFormat(t *testing.T) {
	ts := newTestServer(t, config.Default())

	resp := post(t, ts.URL+"/v1/bleed?margin=0&left=4&top=2&format=json", pagePNG(t, 20, 10))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %+v", resp.StatusCode, decodeError(t, resp))
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	doc, format, err := pkgio.Decode(data)
	if err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if format != pkgio.FormatJSON {
		t.Errorf("format = %q, want json", format)
	}
	if doc.Width != 24 || doc.Height != 12 {
		t.Errorf("canvas = %dx%d, want 24x12", doc.Width, doc.Height)
	}
}

func TestUpscaleBuiltin(t *testing.T) {
	ts := newTestServer(t, config.Default())

	resp := post(t, ts.URL+"/v1/upscale?scale=2&engine=builtin", pagePNG(t, 5, 4))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %+v", resp.StatusCode, decodeError(t, resp))
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 10 || b.Dy() != 8 {
		t.Errorf("image size = %dx%d, want 10x8", b.Dx(), b.Dy())
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t, config.Default())
	page := pagePNG(t, 8, 8)

	tests := []struct {
		name   string
		path   string
		body   []byte
		status int
		code   errors.Code
	}{
		{"negative margin", "/v1/bleed?left=-1", page, http.StatusBadRequest, errors.ErrCodeInvalidMargins},
		{"margin over limit", "/v1/bleed?left=99999999", page, http.StatusBadRequest, errors.ErrCodeInvalidMargins},
		{"max int margin", "/v1/bleed?left=9223372036854775807", page, http.StatusBadRequest, errors.ErrCodeInvalidMargins},
		{"grown canvas too large", "/v1/bleed?margin=0&left=32000&right=32000", page, http.StatusBadRequest, errors.ErrCodeInvalidMargins},
		{"non-integer margin", "/v1/bleed?left=wide", page, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"empty body", "/v1/bleed", nil, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"garbage body", "/v1/bleed", []byte("not a page"), http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"unknown format", "/v1/bleed?format=gif", page, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"scale too big", "/v1/upscale?scale=9&engine=builtin", page, http.StatusBadRequest, errors.ErrCodeInvalidScale},
		{"unknown upscale engine", "/v1/upscale?engine=magic", page, http.StatusBadRequest, errors.ErrCodeUnsupported},
		{"unknown ocr engine", "/v1/ocr?engine=magic&select=0,0,4,4", page, http.StatusBadRequest, errors.ErrCodeUnsupported},
		{"bad region", "/v1/ocr?select=0,0,4", page, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad line_by_line", "/v1/ocr?line_by_line=maybe", page, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if got := decodeError(t, resp); got.Code != tt.code {
				t.Errorf("code = %s, want %s (%s)", got.Code, tt.code, got.Message)
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.MaxBodyBytes = 16
	ts := newTestServer(t, cfg)

	resp := post(t, ts.URL+"/v1/bleed", pagePNG(t, 32, 32))
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, config.Default())

	resp, err := http.Get(ts.URL + "/v1/bleed")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeToolNotFound, "no tesseract"), http.StatusServiceUnavailable},
		{errors.New(errors.ErrCodeToolFailed, "crashed"), http.StatusBadGateway},
		{errors.New(errors.ErrCodeLayerNotFound, "no Inks"), http.StatusNotFound},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestParseMarginsDefaults(t *testing.T) {
	cfg := config.Default()
	s := New(nil, cfg, log.New(io.Discard))

	req := httptest.NewRequest(http.MethodPost, "/v1/bleed?right=7", strings.NewReader(""))
	m, err := s.parseMargins(req.URL.Query())
	if err != nil {
		t.Fatal(err)
	}
	if m.Left != cfg.Bleed.Left || m.Right != 7 || m.Top != cfg.Bleed.Top {
		t.Errorf("margins = %+v, want config defaults with right=7", m)
	}
}
