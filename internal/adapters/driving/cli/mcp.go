package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/agent-skills/internal/adapters/driving/mcp"
)

var (
	mcpPort int
	mcpHost string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose skills to MCP clients",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run a Model Context Protocol server with the tools list_skills,
skill_status, install_skill and uninstall_skill, plus the providers and
skill resources.

Without --port the server speaks JSON-RPC on stdin/stdout, which is what
agent hosts expect when they launch it as a subprocess:

  {"mcpServers": {"agent-skills": {"command": "agent-skills", "args": ["mcp", "serve"]}}}

With --port it serves streamable HTTP on --host (loopback by default).`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 serves stdio)")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "127.0.0.1", "HTTP bind address")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if err := requireSkills(); err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{Skills: skillService, Providers: providerRegistry})
	if err != nil {
		return err
	}

	addr := ""
	if mcpPort > 0 {
		addr = net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
	}
	return server.Serve(cmd.Context(), addr)
}
