package cli

import (
	"fmt"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/morozRed/implscope/internal/server"
	"github.com/spf13/cobra"
)

func newMCPRunner(version string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(s.Config)
		fmt.Fprintf(os.Stderr, "implscope MCP server starting (root=%s backend=%s)\n", s.Root, s.Config.Backend)
		if err := mcpserver.ServeStdio(server.New(server.NewHandler(s, logger), version)); err != nil {
			return fmt.Errorf("mcp server error: %w", err)
		}
		return nil
	}
}
