// Package tool runs the external binaries comictools delegates to
// (tesseract, realesrgan-ncnn-vulkan, rsvg-convert).
//
// Binaries are resolved with [Resolve] before any document is touched, so a
// missing tool is reported as TOOL_NOT_FOUND up front. [Run] reports every
// invocation to the observability tool hooks and turns a non-zero exit into
// a TOOL_FAILED error carrying the tool's stderr.
package tool

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/comictools/pkg/errors"
	"github.com/matzehuels/comictools/pkg/observability"
)

// LookPath resolves executables. Tests replace it to simulate missing tools.
var LookPath = exec.LookPath

// Resolve returns the absolute path of the executable path (a bare name is
// searched in PATH).
func Resolve(path string) (string, error) {
	p, err := LookPath(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeToolNotFound, err, "could not find %s", path)
	}
	return p, nil
}

// Cmd describes one invocation.
type Cmd struct {
	Path  string
	Args  []string
	Stdin io.Reader
	Dir   string
}

// Run executes c and returns its stdout.
func Run(ctx context.Context, c Cmd) ([]byte, error) {
	name := strings.TrimSuffix(filepath.Base(c.Path), filepath.Ext(c.Path))
	hooks := observability.Tool()
	hooks.OnToolStart(ctx, name, c.Args)
	start := time.Now()

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdin = c.Stdin
	cmd.Dir = c.Dir
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	err := cmd.Run()
	hooks.OnToolComplete(ctx, name, time.Since(start), err)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(errBuf.String())
		if msg == "" {
			return nil, errors.Wrap(errors.ErrCodeToolFailed, err, "%s failed", name)
		}
		return nil, errors.Wrap(errors.ErrCodeToolFailed, err, "%s failed: %s", name, msg)
	}
	return out.Bytes(), nil
}
