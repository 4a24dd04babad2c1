package cli

import (
	"fmt"

	"github.com/morozRed/implscope/internal/implementation"
	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "implscope",
		Short: "Find the implementations of a type or method from a source position",
		Long: `implscope resolves the declaration under a cursor, asks a type hierarchy
backend for its relatives, and lists every subtype or overriding member in
depth-first order, one file:line:col-line:col range per line.

The default backend indexes Go sources in the current directory. Configure
an external analysis program in .implscope.yaml to cover other languages.`,
		SilenceUsage: true,
	}

	// Query Commands
	implementationsCmd := &cobra.Command{
		Use:     "implementations <file:line[:col]|file>",
		Aliases: []string{"impl"},
		Short:   "List implementations of the symbol at a position",
		Args:    cobra.ExactArgs(1),
		RunE:    RunImplementations,
	}
	addQueryFlags(implementationsCmd)

	hierarchyCmd := &cobra.Command{
		Use:   "hierarchy <file:line[:col]|file>",
		Short: "Print the raw type hierarchy and the anchor selected for a position",
		Args:  cobra.ExactArgs(1),
		RunE:  RunHierarchy,
	}
	addQueryFlags(hierarchyCmd)

	outlineCmd := &cobra.Command{
		Use:   "outline <file>",
		Short: "Print the declaration outline of a file",
		Args:  cobra.ExactArgs(1),
		RunE:  RunOutline,
	}
	outlineCmd.Flags().String("format", string(FormatText), "Output format: text|json")

	// Setup Commands
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write default .implscope.yaml and .implscopeignore files",
		RunE:  RunInit,
	}

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and hierarchy backend availability",
		RunE:  RunDoctor,
	}
	doctorCmd.Flags().String("format", string(FormatText), "Output format: text|json")
	doctorCmd.Flags().String("backend", "", "Hierarchy backend: local|command")

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the find_implementations tool over MCP stdio",
		RunE:  newMCPRunner(version),
	}
	addBackendFlags(mcpCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("implscope %s\n", version)
		},
	}

	rootCmd.AddCommand(
		implementationsCmd,
		hierarchyCmd,
		outlineCmd,
		initCmd,
		doctorCmd,
		mcpCmd,
		versionCmd,
	)

	return rootCmd
}

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().Int("offset", 0, "Byte offset of the cursor; the argument is then a plain file path")
	cmd.Flags().String("format", string(FormatText), "Output format: text|json")
	addBackendFlags(cmd)
}

func addBackendFlags(cmd *cobra.Command) {
	cmd.Flags().String("backend", "", "Hierarchy backend: local|command (default from .implscope.yaml)")
	cmd.Flags().Int("concurrency", implementation.DefaultConcurrency, "Parallel file loads when resolving locations")
	cmd.Flags().BoolP("verbose", "v", false, "Log debug output to stderr")
}
