package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/comictools/internal/server"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve bleed, OCR and upscale over HTTP",
		Long: `Serve bleed, OCR and upscale over HTTP.

POST a PNG page or a document JSON to /v1/bleed, /v1/ocr or /v1/upscale and
receive the result in the same format. Options are query parameters and
default to the config file. The server stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			addr = override(cmd, "addr", addr, c.Config.Server.Addr)

			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			printInfo("Listening on %s", StyleLink.Render("http://"+displayAddr(addr)))
			printKeyValue("cache", c.Config.Cache.Backend)
			printKeyValue("ocr", c.Config.OCR.Engine)
			printKeyValue("upscale", c.Config.Upscale.Engine)

			srv := server.New(runner, c.Config, c.Logger)
			if err := srv.ListenAndServe(ctx, addr); err != nil {
				return err
			}
			printSuccess("Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
