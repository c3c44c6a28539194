package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/comictools/pkg/document"
	"github.com/matzehuels/comictools/pkg/errors"
	pkgio "github.com/matzehuels/comictools/pkg/io"
	"github.com/matzehuels/comictools/pkg/pipeline"
)

// runParams names the files an operation reads and writes.
type runParams struct {
	input  string
	output string // empty rewrites input in place
	done   string // success message
}

// runOperation reads input, runs opts.Operation through a pipeline runner
// and writes the result in the format given by the output extension.
func (c *CLI) runOperation(ctx context.Context, p runParams, opts pipeline.Options) error {
	output := p.output
	if output == "" {
		output = p.input
	}
	for _, path := range []string{p.input, output} {
		if err := errors.ValidatePath(path); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(p.input)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", p.input)
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Input = data
	opts.Format = pkgio.FormatFromPath(output)
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, opts.Operation)
	opts.Progress = spinner

	result, err := runner.Execute(ctx, opts)
	spinner.Stop()
	if err != nil {
		return err
	}

	if err := writeOutput(output, result.Output); err != nil {
		return err
	}

	printSuccess("%s", p.done)
	printFile(output)
	printStats(result.Stats)
	return nil
}

// loadDocument reads the document at path, choosing the format by extension.
func loadDocument(path string) (*document.Document, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	doc, err := pkgio.Load(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "load %s", path)
	}
	return doc, nil
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer out.Close()

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// trimExt strips the extension from path.
func trimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a diagram extension (.svg, .pdf, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return trimExt(input)
	}
	ext := filepath.Ext(output)
	if pipeline.ValidTreeFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
