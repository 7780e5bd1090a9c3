package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/triumph-js/internal/mcp"
)

var mcpIndexFlag string

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for function lookups",
	Long: `Start the Model Context Protocol (MCP) server that lets editors and coding
assistants query an index built by "triumph-js index".

The MCP server:
- Opens the index read-only
- Provides lookups by key prefix, bare name or file via the triumph_lookup tool
- Communicates via stdio (standard MCP transport)

Example:
  triumph-js mcp -i index.sqlite`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveIndexPath(mcpIndexFlag)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "triumph-js MCP Server\n")
		fmt.Fprintf(os.Stderr, "Index: %s\n", dbPath)

		srv, err := mcp.NewLookupServer(dbPath, Version)
		if err != nil {
			return err
		}
		defer srv.Close()

		return srv.Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVarP(&mcpIndexFlag, "index", "i", "", "SQLite index to serve (default: storage.output from config)")
}
