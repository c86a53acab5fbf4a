package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

const serverKey = "uiusage"

type agentMethod int

const (
	// methodCLI registers through the agent's own "mcp add" command.
	methodCLI agentMethod = iota
	// methodFile merges an entry into a JSON config file.
	methodFile
)

// agent describes how to detect and register with one MCP client.
type agent struct {
	id          string
	displayName string
	method      agentMethod
	binary      string
	dirMarkers  []string
	configPath  func() string
	serversKey  string
	needsScope  bool
	extraFields map[string]string
}

var agents = []agent{
	{id: "claude_code", displayName: "Claude Code", method: methodCLI, binary: "claude", needsScope: true},
	{id: "openai_codex", displayName: "OpenAI Codex", method: methodCLI, binary: "codex", needsScope: true},
	{
		id: "vscode_copilot", displayName: "VS Code Copilot", method: methodFile,
		dirMarkers:  []string{".vscode"},
		configPath:  func() string { return filepath.Join(".vscode", "mcp.json") },
		serversKey:  "servers",
		extraFields: map[string]string{"type": "stdio"},
	},
	{
		id: "cursor", displayName: "Cursor", method: methodFile,
		dirMarkers: []string{".cursor"},
		configPath: func() string { return filepath.Join(".cursor", "mcp.json") },
		serversKey: "mcpServers",
	},
	{
		id: "claude_desktop", displayName: "Claude Desktop", method: methodFile,
		configPath: claudeDesktopConfigPath,
		serversKey: "mcpServers",
	},
}

func claudeDesktopConfigPath() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Claude", "claude_desktop_config.json")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json")
	}
}

// detectedAgent is an agent found on this machine.
type detectedAgent struct {
	agent
	configured bool
	// config is the resolved file for file-based agents.
	config string
}

// setup registers the MCP server with detected agents. System access goes
// through the function fields so tests can fake it.
type setup struct {
	lookPath func(string) (string, error)
	stat     func(string) (os.FileInfo, error)
	run      func(ctx context.Context, name string, args ...string) error

	in   io.Reader
	out  io.Writer
	auto bool
	// serveArgs follow the binary name in the registered command.
	serveArgs []string
}

func newSetupCommand(g *globalOptions) *cobra.Command {
	var auto bool
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the MCP server with detected AI agents",
		Long: `Detect installed MCP clients (Claude Code, OpenAI Codex, VS Code Copilot,
Cursor, Claude Desktop) and register "uiusage serve" with each. The current
--config and --engine are passed on to the registered command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := serveArgs(g)
			if err != nil {
				return err
			}
			s := &setup{
				lookPath:  exec.LookPath,
				stat:      os.Stat,
				run:       runCommand(cmd.OutOrStdout(), cmd.ErrOrStderr()),
				in:        cmd.InOrStdin(),
				out:       cmd.OutOrStdout(),
				auto:      auto,
				serveArgs: args,
			}
			s.execute(cmd.Context())
			return nil
		},
	}
	cmd.Flags().BoolVar(&auto, "auto", false, "Configure every detected agent without prompting")
	return cmd
}

// serveArgs builds the registered command line. A config path is made
// absolute since agents start the server from their own directory.
func serveArgs(g *globalOptions) ([]string, error) {
	args := []string{"serve"}
	if g.configPath != "" {
		abs, err := filepath.Abs(g.configPath)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		args = append(args, "--config", abs)
	}
	if g.engine != "" && g.engine != engineRegex {
		args = append(args, "--engine", g.engine)
	}
	return args, nil
}

func runCommand(stdout, stderr io.Writer) func(ctx context.Context, name string, args ...string) error {
	return func(ctx context.Context, name string, args ...string) error {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		return cmd.Run()
	}
}

func (s *setup) detect() []detectedAgent {
	var detected []detectedAgent
	for _, a := range agents {
		switch a.method {
		case methodCLI:
			if _, err := s.lookPath(a.binary); err == nil {
				detected = append(detected, detectedAgent{agent: a, configured: hasServerEntry(".mcp.json", "mcpServers")})
			}
		case methodFile:
			path, ok := s.locate(a)
			if !ok {
				continue
			}
			detected = append(detected, detectedAgent{agent: a, config: path, configured: hasServerEntry(path, a.serversKey)})
		}
	}
	return detected
}

// locate finds a file-based agent by its directory markers, or by the
// parent directory of its config when it has none.
func (s *setup) locate(a agent) (string, bool) {
	for _, marker := range a.dirMarkers {
		if _, err := s.stat(marker); err == nil {
			return a.configPath(), true
		}
	}
	if len(a.dirMarkers) == 0 && a.configPath != nil {
		path := a.configPath()
		if _, err := s.stat(filepath.Dir(path)); err == nil {
			return path, true
		}
	}
	return "", false
}

func hasServerEntry(path, serversKey string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		return false
	}
	servers, ok := cfg[serversKey].(map[string]any)
	if !ok {
		return false
	}
	_, exists := servers[serverKey]
	return exists
}

func serverEntry(serveArgs []string, extra map[string]string) map[string]any {
	args := make([]any, len(serveArgs))
	for i, a := range serveArgs {
		args[i] = a
	}
	entry := map[string]any{"command": "uiusage", "args": args}
	for k, v := range extra {
		entry[k] = v
	}
	return entry
}

// mergeServerEntry adds the server under serversKey, keeping every other
// key. It returns nil when the server is already present.
func mergeServerEntry(existing []byte, serversKey string, serveArgs []string, extra map[string]string) ([]byte, error) {
	cfg := make(map[string]any)
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &cfg); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	servers, ok := cfg[serversKey].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	if _, exists := servers[serverKey]; exists {
		return nil, nil
	}
	servers[serverKey] = serverEntry(serveArgs, extra)
	cfg[serversKey] = servers

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func (s *setup) configureFile(a agent, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	merged, err := mergeServerEntry(existing, a.serversKey, s.serveArgs, a.extraFields)
	if err != nil {
		return err
	}
	if merged == nil {
		return nil
	}
	return os.WriteFile(path, merged, 0o644)
}

func (s *setup) configureCLI(ctx context.Context, a agent, scope string) error {
	args := []string{"mcp", "add"}
	if scope != "" {
		args = append(args, "--scope", scope)
	}
	args = append(args, serverKey, "--", "uiusage")
	args = append(args, s.serveArgs...)
	return s.run(ctx, a.binary, args...)
}

func (s *setup) execute(ctx context.Context) {
	detected := s.detect()
	if len(detected) == 0 {
		fmt.Fprintln(s.out, "No supported AI agents detected.")
		return
	}

	fmt.Fprintln(s.out, "Detected AI agents:")
	for _, d := range detected {
		if d.configured {
			fmt.Fprintf(s.out, "  * %s (already configured)\n", d.displayName)
		} else {
			fmt.Fprintf(s.out, "  * %s\n", d.displayName)
		}
	}
	fmt.Fprintln(s.out)

	// One reader for every prompt; separate scanners would each buffer
	// ahead and lose answers.
	answers := bufio.NewScanner(s.in)
	if !s.auto && !promptYesNo(answers, s.out, "Configure agents? [Y/n]") {
		return
	}

	for _, d := range detected {
		if d.configured {
			fmt.Fprintf(s.out, "\n%s: already configured, skipping\n", d.displayName)
			continue
		}
		s.configure(ctx, answers, d)
	}
}

func (s *setup) configure(ctx context.Context, answers *bufio.Scanner, d detectedAgent) {
	switch d.method {
	case methodCLI:
		scope := "project"
		if !s.auto && d.needsScope {
			scope = promptScope(answers, s.out, d.displayName)
			if scope == "" {
				fmt.Fprintln(s.out, "  skipped")
				return
			}
		}
		if err := s.configureCLI(ctx, d.agent, scope); err != nil {
			fmt.Fprintf(s.out, "  ! %s: failed: %v\n", d.displayName, err)
			return
		}
		fmt.Fprintf(s.out, "  + %s configured (scope: %s)\n", d.displayName, scope)

	case methodFile:
		if !s.auto && !promptYesNo(answers, s.out, fmt.Sprintf("\n%s: add to %s? [Y/n]", d.displayName, d.config)) {
			fmt.Fprintln(s.out, "  skipped")
			return
		}
		if err := s.configureFile(d.agent, d.config); err != nil {
			fmt.Fprintf(s.out, "  ! %s: failed: %v\n", d.displayName, err)
			return
		}
		fmt.Fprintf(s.out, "  + %s configured (%s)\n", d.displayName, d.config)
	}
}

// promptYesNo defaults to yes on an empty answer or EOF.
func promptYesNo(answers *bufio.Scanner, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s ", question)
	if !answers.Scan() {
		return true
	}
	answer := strings.TrimSpace(strings.ToLower(answers.Text()))
	return answer == "" || answer == "y" || answer == "yes"
}

// promptScope returns "project", "user", or "" to skip.
func promptScope(answers *bufio.Scanner, w io.Writer, agentName string) string {
	fmt.Fprintf(w, "\n%s: add the uiusage MCP server?\n", agentName)
	fmt.Fprintln(w, "  [1] Project scope (shared with team)")
	fmt.Fprintln(w, "  [2] User scope (personal, global)")
	fmt.Fprintln(w, "  [3] Skip")
	fmt.Fprint(w, "  > ")

	if !answers.Scan() {
		return "project"
	}
	switch strings.TrimSpace(answers.Text()) {
	case "1", "":
		return "project"
	case "2":
		return "user"
	default:
		return ""
	}
}
