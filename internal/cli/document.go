package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/comictools/pkg/errors"
	pkgio "github.com/matzehuels/comictools/pkg/io"
)

// newCommand creates the new command, which turns a PNG page into a
// layered document.
func (c *CLI) newCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "new [page.png]",
		Short: "Create a layered document from a PNG page",
		Long: `Create a layered document from a PNG page.

The page becomes the document's single "Background" pixel layer. The document
is written as JSON next to the PNG unless -o is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				output = trimExt(input) + ".json"
			}
			return c.convert(cmd, input, output, "Created document")
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output document (default: <page>.json)")
	return cmd
}

// exportCommand creates the export command, which flattens a document.
func (c *CLI) exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [document]",
		Short: "Flatten a document to PNG",
		Long: `Flatten a document to PNG.

Visible layers are composited bottom to top with their opacity; text layers
are rendered with their font. Use a .json output to re-save the document
instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				output = trimExt(input) + ".png"
			}
			return c.convert(cmd, input, output, "Exported")
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <document>.png)")
	return cmd
}

// convert loads input and saves it to output, choosing both formats by
// file extension.
func (c *CLI) convert(cmd *cobra.Command, input, output, done string) error {
	logger := loggerFromContext(cmd.Context())
	if err := errors.ValidatePath(output); err != nil {
		return err
	}

	p := newProgress(logger)
	doc, err := loadDocument(input)
	if err != nil {
		return err
	}
	if err := pkgio.Save(doc, output); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "save %s", output)
	}
	p.done("Converted " + input)

	printSuccess("%s", done)
	printFile(output)
	logger.Debug("document", "width", doc.Width, "height", doc.Height, "layers", doc.LayerCount())
	return nil
}
