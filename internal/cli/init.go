package cli

import (
	"fmt"
	"path/filepath"

	"github.com/morozRed/implscope/internal/config"
	"github.com/morozRed/implscope/internal/fileutil"
	"github.com/morozRed/implscope/internal/ignore"
	"github.com/spf13/cobra"
)

const defaultIgnoreFile = `# Paths implscope skips when indexing, gitignore style.
# generated/
`

func RunInit(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}

	data, err := config.Default().Marshal()
	if err != nil {
		return fmt.Errorf("failed to render default config: %w", err)
	}
	configPath := filepath.Join(rootPath, config.FileName)
	written, err := fileutil.WriteIfMissing(configPath, data, 0644)
	if err != nil {
		return err
	}
	if written {
		fmt.Printf("Wrote %s\n", config.FileName)
	} else {
		fmt.Printf("Kept existing %s\n", config.FileName)
	}

	ignorePath := filepath.Join(rootPath, ignore.IgnoreFile)
	written, err = fileutil.WriteIfMissing(ignorePath, []byte(defaultIgnoreFile), 0644)
	if err != nil {
		return err
	}
	if written {
		fmt.Printf("Wrote %s\n", ignore.IgnoreFile)
	}
	return nil
}
