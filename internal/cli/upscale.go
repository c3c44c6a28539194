package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/comictools/pkg/pipeline"
	"github.com/matzehuels/comictools/pkg/upscale"
)

// upscaleCommand creates the upscale command.
func (c *CLI) upscaleCommand() *cobra.Command {
	var (
		output string
		scale  int
		engine string
		model  string
	)

	cmd := &cobra.Command{
		Use:   "upscale [document]",
		Short: "Enlarge every layer by an integer factor",
		Long: `Enlarge every layer by an integer factor (2 to 4).

Pixel layers go through the upscaling engine: Real-ESRGAN by default, or the
built-in nearest-neighbour scaler with --engine builtin. Text layers keep
their text and have their box, font size and spacing scaled. The canvas is
resized to fit the scaled layers.

Engine results are cached by image content, so re-running on an unchanged
page is fast.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := override(cmd, "scale", scale, c.Config.Upscale.Scale)
			eng, err := c.upscaleEngine(engine, model)
			if err != nil {
				return err
			}

			return c.runOperation(cmd.Context(), runParams{
				input:  args[0],
				output: output,
				done:   fmt.Sprintf("Upscaled %d× with %s", s, eng.Name()),
			}, pipeline.Options{
				Operation:     pipeline.OpUpscale,
				Scale:         s,
				UpscaleEngine: eng,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: rewrite the input)")
	cmd.Flags().IntVarP(&scale, "scale", "s", upscale.DefaultScale, "scale factor (2-4)")
	cmd.Flags().StringVar(&engine, "engine", "", "upscale engine: realesrgan (default), builtin")
	cmd.Flags().StringVar(&model, "model", "", "Real-ESRGAN model name")

	_ = cmd.RegisterFlagCompletionFunc("engine", fixedCompletion(upscale.EngineRealESRGAN, upscale.EngineBuiltin))

	return cmd
}
