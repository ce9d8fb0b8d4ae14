package cli

import (
	"github.com/spf13/cobra"

	"github.com/mark3labs/coreapi2swagger/internal/mcpserver"
)

// Version is reported to MCP clients. Overridden at build time via -ldflags.
var Version = "dev"

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the conversion as an MCP tool over stdio",
		Long:  "Start a Model Context Protocol server on stdin/stdout exposing the coreapi_to_swagger tool. Logs go to stderr.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), verbose)
			return mcpserver.Run(cmd.Context(), Version, logger)
		},
	}
}
