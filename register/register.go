// Package register adds this server to an MCP client configuration file,
// either per project (.mcp.json) or per user (~/.claude.json).
package register

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Scope selects which client configuration file is written.
type Scope string

const (
	ScopeProject Scope = "project"
	ScopeUser    Scope = "user"
)

// Options describes one registration.
type Options struct {
	Scope Scope
	// Directory is the project directory for ScopeProject; "" means ".".
	Directory  string
	ServerName string
	BinaryPath string
	// ServerArgs are forwarded to the server on every launch.
	ServerArgs []string
}

type mcpServerEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// DeriveServerName extracts a server name from a binary path by stripping .exe and -mcp suffixes.
func DeriveServerName(binaryPath string) string {
	name := filepath.Base(binaryPath)
	name = strings.TrimSuffix(name, ".exe")
	name = strings.TrimSuffix(name, "-mcp")
	return name
}

// NewCommand builds the "register" command with its project and user
// subcommands. Arguments after "--" are forwarded to the server.
func NewCommand(fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Add this server to an MCP client configuration",
		Long: `Add this server to an MCP client configuration.

Examples:
  notebrowser-mcp register project            # → ./.mcp.json
  notebrowser-mcp register project ~/notes    # → ~/notes/.mcp.json
  notebrowser-mcp register user               # → ~/.claude.json
  notebrowser-mcp register user -- --root ~/notes`,
	}
	cmd.AddCommand(newScopeCommand(fs, ScopeProject, "project [directory] [-- server flags]", cobra.MaximumNArgs(1)))
	cmd.AddCommand(newScopeCommand(fs, ScopeUser, "user [-- server flags]", cobra.NoArgs))
	return cmd
}

func newScopeCommand(fs afero.Fs, scope Scope, use string, positional cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Register in the %s MCP configuration", scope),
		Args: func(cmd *cobra.Command, args []string) error {
			own, _ := splitAtDash(cmd, args)
			return positional(cmd, own)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			own, serverArgs := splitAtDash(cmd, args)

			binaryPath, err := detectBinaryPath()
			if err != nil {
				return err
			}
			opts := Options{
				Scope:      scope,
				ServerName: DeriveServerName(binaryPath),
				BinaryPath: binaryPath,
				ServerArgs: serverArgs,
			}
			if len(own) > 0 {
				opts.Directory = own[0]
			}

			configPath, err := Register(fs, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %q in %s\n", opts.ServerName, configPath)
			return nil
		},
	}
}

// splitAtDash separates positional arguments from those after "--".
func splitAtDash(cmd *cobra.Command, args []string) (own, forwarded []string) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return args, nil
	}
	return args[:dash], args[dash:]
}

// Register writes the server entry and returns the configuration path.
func Register(fs afero.Fs, opts Options) (string, error) {
	if opts.Scope != ScopeProject && opts.Scope != ScopeUser {
		return "", fmt.Errorf("unknown scope %q (must be \"project\" or \"user\")", opts.Scope)
	}
	if opts.ServerName == "" {
		opts.ServerName = DeriveServerName(opts.BinaryPath)
	}

	configPath, err := resolveConfigPath(opts.Scope, opts.Directory)
	if err != nil {
		return "", fmt.Errorf("resolving config path: %w", err)
	}
	entry := buildEntry(opts.BinaryPath, opts.ServerArgs)
	if err := writeConfig(fs, configPath, opts.ServerName, entry); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return configPath, nil
}

func detectBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("getting executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", exe, err)
	}
	return resolved, nil
}

func resolveConfigPath(scope Scope, directory string) (string, error) {
	if scope == ScopeProject {
		if directory == "" {
			directory = "."
		}
		absDir, err := filepath.Abs(directory)
		if err != nil {
			return "", fmt.Errorf("resolving directory %s: %w", directory, err)
		}
		return filepath.Join(absDir, ".mcp.json"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".claude.json"), nil
}

func buildEntry(binaryPath string, serverArgs []string) mcpServerEntry {
	if runtime.GOOS == "windows" {
		args := append([]string{"/C", binaryPath}, serverArgs...)
		return mcpServerEntry{Command: "cmd", Args: args}
	}
	return mcpServerEntry{Command: binaryPath, Args: serverArgs}
}

// writeConfig adds or replaces the server entry, keeping every other key of
// an existing file. The file is replaced atomically through a temp file.
func writeConfig(fs afero.Fs, configPath string, serverName string, entry mcpServerEntry) error {
	config := map[string]interface{}{
		"mcpServers": map[string]interface{}{},
	}

	data, err := afero.ReadFile(fs, configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parsing existing config %s: %w", configPath, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("reading %s: %w", configPath, err)
	}

	servers, ok := config["mcpServers"]
	if !ok {
		servers = map[string]interface{}{}
		config["mcpServers"] = servers
	}
	serversMap, ok := servers.(map[string]interface{})
	if !ok {
		return fmt.Errorf("mcpServers in %s is not an object", configPath)
	}
	serversMap[serverName] = entry

	output, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	output = append(output, '\n')

	configDir := filepath.Dir(configPath)
	tmpFile, err := afero.TempFile(fs, configDir, ".mcp-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", configDir, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(output); err != nil {
		tmpFile.Close()
		fs.Remove(tmpPath)
		return fmt.Errorf("writing temp file %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}
	if err := fs.Rename(tmpPath, configPath); err != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("renaming %s to %s: %w", tmpPath, configPath, err)
	}
	return nil
}
