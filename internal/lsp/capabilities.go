package lsp

import (
	"os/exec"

	"github.com/morozRed/implscope/internal/config"
)

type Capability struct {
	Backend   string   `json:"backend"`
	Program   string   `json:"program,omitempty"`
	Path      string   `json:"path,omitempty"`
	Available bool     `json:"available"`
	Reason    string   `json:"reason,omitempty"`
	Languages []string `json:"languages,omitempty"`
}

// localLanguages lists the languages the built-in structural index answers for.
var localLanguages = []string{"go"}

// commandServers are analysis programs doctor suggests when no command is configured.
var commandServers = map[string][]string{
	"dart":       {"dart"},
	"go":         {"gopls"},
	"python":     {"pyright-langserver", "pylsp"},
	"typescript": {"typescript-language-server"},
}

func ProbeBackend(backend string, command []string) Capability {
	return ProbeBackendWithLookPath(backend, command, exec.LookPath)
}

func ProbeBackendWithLookPath(backend string, command []string, lookPath func(file string) (string, error)) Capability {
	switch backend {
	case "", config.BackendLocal:
		return Capability{Backend: config.BackendLocal, Available: true, Languages: append([]string(nil), localLanguages...)}
	case config.BackendCommand:
		capability := Capability{Backend: config.BackendCommand}
		if len(command) == 0 || command[0] == "" {
			capability.Reason = "command_not_configured"
			return capability
		}
		capability.Program = command[0]
		path, err := lookPath(command[0])
		if err != nil {
			capability.Reason = "program_not_found"
			return capability
		}
		capability.Path = path
		capability.Available = true
		return capability
	default:
		return Capability{Backend: backend, Reason: "unknown_backend"}
	}
}

// DetectServers reports which known analysis programs are on PATH, by language.
func DetectServers(lookPath func(file string) (string, error)) map[string]string {
	found := make(map[string]string, len(commandServers))
	for language, servers := range commandServers {
		for _, server := range servers {
			if _, err := lookPath(server); err == nil {
				found[language] = server
				break
			}
		}
	}
	return found
}
