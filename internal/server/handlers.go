package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/comictools/pkg/bleed"
	"github.com/matzehuels/comictools/pkg/buildinfo"
	"github.com/matzehuels/comictools/pkg/errors"
	"github.com/matzehuels/comictools/pkg/fonts"
	pkgio "github.com/matzehuels/comictools/pkg/io"
	"github.com/matzehuels/comictools/pkg/ocr"
	"github.com/matzehuels/comictools/pkg/pipeline"
	"github.com/matzehuels/comictools/pkg/upscale"
)

// Response headers describing the result of an operation.
const (
	HeaderCanvasSize = "X-Canvas-Size"
	HeaderCacheHits  = "X-Cache-Hits"
	HeaderTextLayers = "X-Text-Layers"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleFonts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"fonts":   fonts.Names(),
		"default": s.cfg.OCR.Font,
	})
}

// handleOperation runs op on the page in the request body.
func (s *Server) handleOperation(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := s.parseOptions(op, r.URL.Query())
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.writeError(w, r, readError(err))
			return
		}
		if len(body) == 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "request body is empty"))
			return
		}

		opts.Input = body
		opts.Logger = s.logger.With("request_id", middleware.GetReqID(r.Context()))

		res, err := s.runner.Execute(r.Context(), opts)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		h := w.Header()
		h.Set("Content-Type", res.Format.ContentType())
		h.Set("Content-Length", strconv.Itoa(len(res.Output)))
		h.Set(HeaderCanvasSize, fmt.Sprintf("%dx%d", res.Stats.Width, res.Stats.Height))
		h.Set(HeaderCacheHits, strconv.Itoa(res.Stats.CacheHits))
		if op == pipeline.OpOCR {
			h.Set(HeaderTextLayers, strconv.Itoa(res.Stats.TextLayers))
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Output)
	}
}

// parseOptions builds pipeline options for op from query parameters, with
// the configured defaults for everything not given.
func (s *Server) parseOptions(op string, q url.Values) (pipeline.Options, error) {
	opts := pipeline.Options{
		Operation: op,
		Format:    pkgio.Format(strings.ToLower(q.Get("format"))),
	}

	var err error
	switch op {
	case pipeline.OpBleed:
		opts.Margins, err = s.parseMargins(q)
	case pipeline.OpOCR:
		err = s.parseOCR(q, &opts)
	case pipeline.OpUpscale:
		err = s.parseUpscale(q, &opts)
	}
	return opts, err
}

func (s *Server) parseMargins(q url.Values) (bleed.Margins, error) {
	m := s.cfg.Bleed
	if q.Has("margin") {
		v, err := intParam(q, "margin", 0)
		if err != nil {
			return m, err
		}
		m = bleed.Uniform(v)
	}

	sides := []struct {
		name string
		dst  *int
	}{
		{"left", &m.Left},
		{"right", &m.Right},
		{"top", &m.Top},
		{"bottom", &m.Bottom},
	}
	for _, side := range sides {
		v, err := intParam(q, side.name, *side.dst)
		if err != nil {
			return m, err
		}
		*side.dst = v
	}
	return m, nil
}

func (s *Server) parseOCR(q url.Values, opts *pipeline.Options) error {
	cfg := s.cfg.OCR

	for _, sel := range q["select"] {
		region, err := pipeline.ParseRegion(sel)
		if err != nil {
			return err
		}
		opts.Select = append(opts.Select, region)
	}

	opts.Layer = q.Get("layer")
	opts.Font = stringParam(q, "font", cfg.Font)
	opts.Group = stringParam(q, "group", cfg.Group)
	opts.Mode = stringParam(q, "mode", cfg.Mode)
	opts.Languages = cfg.Languages
	if q.Has("lang") {
		opts.Languages = nil
		for _, v := range q["lang"] {
			opts.Languages = append(opts.Languages, strings.Split(v, ",")...)
		}
	}

	var err error
	if opts.LineByLine, err = boolParam(q, "line_by_line", cfg.LineByLine); err != nil {
		return err
	}
	opts.OCREngine, err = ocr.NewEngine(stringParam(q, "engine", cfg.Engine), s.cfg.Tools.Tesseract)
	return err
}

func (s *Server) parseUpscale(q url.Values, opts *pipeline.Options) error {
	cfg := s.cfg.Upscale

	var err error
	if opts.Scale, err = intParam(q, "scale", cfg.Scale); err != nil {
		return err
	}
	opts.UpscaleEngine, err = upscale.NewEngine(stringParam(q, "engine", cfg.Engine), s.cfg.Tools.RealESRGAN, cfg.Model)
	return err
}

func stringParam(q url.Values, name, def string) string {
	if v := q.Get(name); v != "" {
		return v
	}
	return def
}

func intParam(q url.Values, name string, def int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be an integer, got %q", name, v)
	}
	return n, nil
}

func boolParam(q url.Values, name string, def bool) (bool, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "%s must be a boolean, got %q", name, v)
	}
	return b, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
