package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/agent-skills/internal/adapters/driving/api"
	"github.com/custodia-labs/agent-skills/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON API server",
	Long: `Serves the JSON API used by the web front end until interrupted.

The address defaults to the listen setting (localhost:8765). Use --open
to launch the browser once the server is listening.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr string
	serveOpen bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "open the browser after starting")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireSkills(); err != nil {
		return err
	}
	if err := requireProviders(); err != nil {
		return err
	}

	opts := api.Options{Skills: skillService, Providers: providerRegistry}
	addr := serveAddr
	if settings != nil {
		opts.RateLimit = settings.RateLimit
		opts.RateBurst = settings.RateBurst
		if addr == "" {
			addr = settings.Listen
		}
	}
	if addr == "" {
		addr = "localhost:8765"
	}

	server, err := api.New(opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := server.Start(ctx, addr); err != nil {
		return err
	}
	defer server.Close() //nolint:errcheck

	url := fmt.Sprintf("http://%s", server.Addr())
	cmd.Printf("API listening on %s (Ctrl+C to stop)\n", url)

	if serveOpen && browser != nil {
		if err := browser.Open(url); err != nil {
			logger.Warn("could not open browser: %v", err)
		}
	}

	<-ctx.Done()
	cmd.Println("Shutting down.")
	return nil
}
