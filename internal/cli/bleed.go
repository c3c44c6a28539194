package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/comictools/pkg/bleed"
	"github.com/matzehuels/comictools/pkg/pipeline"
)

// bleedCommand creates the bleed command.
func (c *CLI) bleedCommand() *cobra.Command {
	var (
		output  string
		margins bleed.Margins
		all     int
	)

	cmd := &cobra.Command{
		Use:   "bleed [document]",
		Short: "Add mirrored print bleed around the page",
		Long: `Add mirrored print bleed around the page.

The canvas grows by the given margins on each side. Every layer that touches
a canvas edge gets the strip of pixels next to that edge mirrored into the new
margin, so artwork continues past the trim line. Existing guides move with the
canvas and trim guides are added at the old page edges.

Margins default to the [bleed] section of the config file (43 px each).
Use --all to set every side at once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := c.Config.Bleed
			if cmd.Flags().Changed("all") {
				m = bleed.Uniform(all)
			}
			m.Left = override(cmd, "left", margins.Left, m.Left)
			m.Right = override(cmd, "right", margins.Right, m.Right)
			m.Top = override(cmd, "top", margins.Top, m.Top)
			m.Bottom = override(cmd, "bottom", margins.Bottom, m.Bottom)

			return c.runOperation(cmd.Context(), runParams{
				input:  args[0],
				output: output,
				done:   fmt.Sprintf("Added bleed (left %d, right %d, top %d, bottom %d)", m.Left, m.Right, m.Top, m.Bottom),
			}, pipeline.Options{
				Operation: pipeline.OpBleed,
				Margins:   m,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: rewrite the input)")
	cmd.Flags().IntVar(&margins.Left, "left", 0, "left margin in pixels")
	cmd.Flags().IntVar(&margins.Right, "right", 0, "right margin in pixels")
	cmd.Flags().IntVar(&margins.Top, "top", 0, "top margin in pixels")
	cmd.Flags().IntVar(&margins.Bottom, "bottom", 0, "bottom margin in pixels")
	cmd.Flags().IntVar(&all, "all", 0, "margin in pixels for every side")

	return cmd
}
