package cli

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/morozRed/implscope/internal/config"
	"github.com/morozRed/implscope/internal/fileutil"
	"github.com/morozRed/implscope/internal/ignore"
	"github.com/morozRed/implscope/internal/lsp"
	"github.com/morozRed/implscope/internal/outline"
	"github.com/morozRed/implscope/internal/typeindex"
	"github.com/spf13/cobra"
)

var lookPath = exec.LookPath

type DoctorSummary struct {
	Mode         string            `json:"mode"`
	RootPath     string            `json:"root_path"`
	ConfigPath   string            `json:"config_path,omitempty"`
	Healthy      bool              `json:"healthy"`
	Backend      lsp.Capability    `json:"backend"`
	Servers      map[string]string `json:"servers,omitempty"`
	Outlines     []string          `json:"outline_languages"`
	IndexedTypes int               `json:"indexed_types"`
	IndexIssues  int               `json:"index_issues"`
	Missing      []string          `json:"missing,omitempty"`
	Suggestions  []string          `json:"suggestions,omitempty"`
}

func RunDoctor(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	format, err := ParseOutputFormat(cmd)
	if err != nil {
		return err
	}

	summary := DoctorSummary{
		Mode:     "doctor",
		RootPath: rootPath,
		Outlines: outline.NewDefaultRegistry().Languages(),
		Servers:  lsp.DetectServers(lookPath),
	}

	cfg, err := loadConfig(cmd, rootPath)
	if err != nil {
		summary.Missing = append(summary.Missing, "valid "+config.FileName)
		summary.Suggestions = append(summary.Suggestions, "fix "+config.FileName+": "+err.Error())
		cfg = config.Default()
	}
	summary.ConfigPath = cfg.Path()
	summary.Backend = lsp.ProbeBackendWithLookPath(cfg.Backend, cfg.Command, lookPath)
	if !summary.Backend.Available {
		summary.Missing = append(summary.Missing, "hierarchy backend ("+summary.Backend.Reason+")")
		if len(summary.Servers) > 0 {
			summary.Suggestions = append(summary.Suggestions, "configure command: in "+config.FileName+" for one of: "+strings.Join(serverNames(summary.Servers), ", "))
		} else {
			summary.Suggestions = append(summary.Suggestions, "set backend: local in "+config.FileName)
		}
	}

	if cfg.Backend == config.BackendLocal {
		rules, err := ignore.LoadRules(rootPath)
		if err != nil {
			return err
		}
		idx, err := typeindex.Build(commandContext(cmd), rootPath, typeindex.Options{Include: cfg.Include, Ignore: append(rules, cfg.Ignore...)})
		if err != nil {
			summary.Missing = append(summary.Missing, "readable workspace")
		} else {
			summary.IndexedTypes = idx.TypeCount()
			summary.IndexIssues = len(idx.Issues())
			if summary.IndexedTypes == 0 {
				summary.Missing = append(summary.Missing, "Go types to index")
			}
		}
	}
	if summary.ConfigPath == "" {
		summary.Suggestions = append(summary.Suggestions, "run implscope init")
	}

	sort.Strings(summary.Missing)
	sort.Strings(summary.Suggestions)
	summary.Healthy = len(summary.Missing) == 0

	if format == FormatJSON {
		return fileutil.PrintJSON(os.Stdout, summary)
	}

	status := "issues"
	if summary.Healthy {
		status = "ok"
	}
	fmt.Printf("doctor: %s\n", status)
	configPath := summary.ConfigPath
	if configPath == "" {
		configPath = "defaults"
	}
	fmt.Printf("config: %s\n", configPath)
	fmt.Printf("backend: %s available=%t", summary.Backend.Backend, summary.Backend.Available)
	if summary.Backend.Program != "" {
		fmt.Printf(" program=%s", summary.Backend.Program)
	}
	fmt.Println()
	if cfg.Backend == config.BackendLocal {
		fmt.Printf("index: types=%d issues=%d\n", summary.IndexedTypes, summary.IndexIssues)
	}
	fmt.Printf("outline: %s\n", strings.Join(summary.Outlines, ", "))
	if len(summary.Servers) > 0 {
		fmt.Printf("servers on PATH: %s\n", strings.Join(serverNames(summary.Servers), ", "))
	}
	if len(summary.Missing) > 0 {
		fmt.Printf("missing (%d): %s\n", len(summary.Missing), strings.Join(summary.Missing, ", "))
	}
	for _, suggestion := range summary.Suggestions {
		fmt.Printf("next: %s\n", suggestion)
	}
	return nil
}

func serverNames(servers map[string]string) []string {
	names := make([]string, 0, len(servers))
	for language, server := range servers {
		names = append(names, language+"="+server)
	}
	sort.Strings(names)
	return names
}
