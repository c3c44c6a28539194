package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/comictools/pkg/pipeline"
)

// treeCommand creates the tree command for drawing the layer hierarchy.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		detailed   bool
	)

	cmd := &cobra.Command{
		Use:   "tree [document]",
		Short: "Draw the layer tree of a document",
		Long: `Draw the layer tree of a document.

The canvas is the root; groups, pixel layers and text layers hang below it in
stacking order. With --detailed each node also shows offsets, size, font size
and opacity. SVG is rendered with Graphviz; PNG and PDF additionally need
rsvg-convert.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(formatsStr)
			if err := pipeline.ValidateTreeFormats(formats); err != nil {
				return err
			}
			return c.runTree(cmd.Context(), args[0], formats, output, detailed)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot (comma-separated)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show layer geometry in the nodes")

	return cmd
}

// runTree loads the document and writes one diagram per format.
func (c *CLI) runTree(ctx context.Context, input string, formats []string, output string, detailed bool) error {
	logger := loggerFromContext(ctx)

	doc, err := loadDocument(input)
	if err != nil {
		return err
	}
	logger.Debugf("Loaded document: %d×%d, %d layers", doc.Width, doc.Height, doc.LayerCount())

	p := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Rendering layer tree...")
	spinner.Start()

	artifacts, err := pipeline.RenderTree(ctx, doc, pipeline.TreeOptions{
		Formats:   formats,
		Detailed:  detailed,
		Converter: c.converter(),
	})
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return err
	}
	spinner.Stop()
	p.done("Rendered layer tree")

	base := basePath(output, input)
	printSuccess("Layer tree of %s", input)
	for _, format := range formats {
		path := base + "." + format
		if len(formats) == 1 && output != "" {
			path = output
		}
		if err := writeOutput(path, artifacts[format]); err != nil {
			return err
		}
		logger.Debugf("Generated %s: %d bytes", format, len(artifacts[format]))
		printFile(path)
	}
	return nil
}

// parseFormats parses a comma-separated format string into a slice.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	formats := strings.Split(s, ",")
	for i, f := range formats {
		formats[i] = strings.ToLower(strings.TrimSpace(f))
	}
	return formats
}
