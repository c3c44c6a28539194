package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/comictools/pkg/fonts"
	pkgio "github.com/matzehuels/comictools/pkg/io"
	"github.com/matzehuels/comictools/pkg/ocr"
	"github.com/matzehuels/comictools/pkg/pipeline"
)

// ocrOpts holds the command-line flags for the ocr command.
type ocrOpts struct {
	output     string
	layer      string
	pick       bool
	font       string
	group      string
	lineByLine bool
	mode       string
	languages  []string
	selections []string
	engine     string
}

// ocrCommand creates the ocr command.
func (c *CLI) ocrCommand() *cobra.Command {
	var opts ocrOpts

	cmd := &cobra.Command{
		Use:   "ocr [document]",
		Short: "Replace lettering with editable text layers",
		Long: `Replace lettering with editable text layers.

Each --select rectangle (x,y,w,h in canvas pixels) is one region; overlapping
rectangles merge into a single region. Every region is copied from the input
layer, recognised by the OCR engine and replaced by text layers whose font
size, letter spacing and line spacing are fitted to the recognised boxes.
The text layers and a white background layer go into the --group layer group.

A PNG input is written as a layered JSON document next to it unless -o is
given.`,
		Example: `  comictools ocr page.json --select 120,80,300,140 --select 600,900,240,120
  comictools ocr page.png --pick --mode lines --lang eng --lang deu`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOCR(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: rewrite the input, PNG input becomes JSON)")
	cmd.Flags().StringVar(&opts.layer, "layer", "", "layer to read pixels from (default: top-most pixel layer)")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose the input layer interactively")
	cmd.Flags().StringVar(&opts.font, "font", "", "font for the text layers")
	cmd.Flags().StringVar(&opts.group, "group", "", "layer group receiving the results")
	cmd.Flags().BoolVar(&opts.lineByLine, "line-by-line", false, "create one text layer per line")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "grouping: auto (default), words, lines, blocks")
	cmd.Flags().StringSliceVar(&opts.languages, "lang", nil, "recognition language(s), e.g. eng,deu")
	cmd.Flags().StringArrayVar(&opts.selections, "select", nil, "region x,y,w,h (repeatable)")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "OCR engine: "+fmt.Sprint(ocr.EngineNames()))

	_ = cmd.RegisterFlagCompletionFunc("font", fixedCompletion(fonts.Names()...))
	_ = cmd.RegisterFlagCompletionFunc("mode", fixedCompletion("auto", "words", "lines", "blocks"))
	_ = cmd.RegisterFlagCompletionFunc("engine", fixedCompletion(ocr.EngineNames()...))

	return cmd
}

// runOCR resolves defaults from the config and runs the OCR pipeline.
func (c *CLI) runOCR(cmd *cobra.Command, input string, opts ocrOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	regions := make([]pipeline.Region, 0, len(opts.selections))
	for _, s := range opts.selections {
		r, err := pipeline.ParseRegion(s)
		if err != nil {
			return err
		}
		regions = append(regions, r)
	}

	layer := opts.layer
	if opts.pick {
		picked, err := pickLayer(input)
		if err != nil {
			return err
		}
		if picked == "" {
			printDetail("No selection made")
			return nil
		}
		layer = picked
	}

	engine, err := c.ocrEngine(opts.engine)
	if err != nil {
		return err
	}
	logger.Debug("ocr engine", "name", engine.Name())

	output := opts.output
	if output == "" && pkgio.FormatFromPath(input) == pkgio.FormatPNG {
		output = trimExt(input) + ".json"
	}

	cfg := c.Config.OCR
	return c.runOperation(ctx, runParams{
		input:  input,
		output: output,
		done:   fmt.Sprintf("Recognised %d region(s)", len(regions)),
	}, pipeline.Options{
		Operation:  pipeline.OpOCR,
		Layer:      layer,
		Select:     regions,
		Font:       override(cmd, "font", opts.font, cfg.Font),
		Group:      override(cmd, "group", opts.group, cfg.Group),
		LineByLine: override(cmd, "line-by-line", opts.lineByLine, cfg.LineByLine),
		Mode:       override(cmd, "mode", opts.mode, cfg.Mode),
		Languages:  override(cmd, "lang", opts.languages, cfg.Languages),
		OCREngine:  engine,
	})
}

// pickLayer shows the pixel layers of the document at path and returns the
// chosen layer name, or "" when the user quit.
func pickLayer(path string) (string, error) {
	doc, err := loadDocument(path)
	if err != nil {
		return "", err
	}

	m := NewLayerListModel(doc)
	if !m.HasSelectable() {
		printError("No pixel layers in %s", path)
		return "", fmt.Errorf("no pixel layers in %s", path)
	}

	finalModel, err := tea.NewProgram(m).Run()
	if err != nil {
		return "", err
	}
	fm, ok := finalModel.(LayerListModel)
	if !ok || fm.Selected == nil {
		return "", nil
	}
	printInfo("Layer: %s", StyleHighlight.Render(fm.Selected.Name))
	return fm.Selected.Name, nil
}

// fixedCompletion completes a flag from a fixed list of values.
func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}
