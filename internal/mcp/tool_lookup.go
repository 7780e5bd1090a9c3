package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcputils "github.com/mvp-joe/triumph-js/internal/mcp-utils"
	"github.com/mvp-joe/triumph-js/internal/storage"
)

// LookupToolName is the name editors and agents call.
const LookupToolName = "triumph_lookup"

// MaxLookupLimit caps the limit argument of prefix and identifier lookups.
const MaxLookupLimit = 500

// ResourceLookup is the read side of the index used by the lookup tool.
// *storage.ResourceReader satisfies it.
type ResourceLookup interface {
	FindByKeyPrefix(prefix string, limit int) ([]*storage.StoredResource, error)
	FindByIdentifier(identifier string, limit int) ([]*storage.StoredResource, error)
	ListByFile(fullPath string) ([]*storage.StoredResource, error)
}

// LookupRequest represents the JSON request schema for the triumph_lookup MCP tool.
// Exactly one of Prefix, Identifier or File is set.
type LookupRequest struct {
	Prefix     string `json:"prefix,omitempty" jsonschema:"description=Key prefix such as Utils. or jQuery"`
	Identifier string `json:"identifier,omitempty" jsonschema:"description=Bare function name"`
	File       string `json:"file,omitempty" jsonschema:"description=Absolute path of an indexed file"`
	Limit      int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=500,default=50"`
}

// LookupResponse represents the JSON response schema for the triumph_lookup MCP tool.
type LookupResponse struct {
	Mode      string                    `json:"mode"` // "prefix", "identifier" or "file"
	Query     string                    `json:"query"`
	Resources []*storage.StoredResource `json:"resources"`
	Total     int                       `json:"total"`
	TookMs    int                       `json:"took_ms"`
}

// AddLookupTool registers the triumph_lookup tool with an MCP server.
func AddLookupTool(s *server.MCPServer, lookup ResourceLookup) {
	tool := mcp.NewTool(
		LookupToolName,
		mcp.WithDescription(`Look up JavaScript functions in a triumph-js index.

Give exactly one of:
- prefix: qualified key prefix, e.g. "Utils." lists every function of the Utils object
  (case-insensitive for ASCII letters, so "utils." matches too)
- identifier: bare function name, e.g. "trim" finds Utils.trim and App.trim
- file: absolute path of an indexed file, lists its functions in source order

Each result carries the key, signature, leading block comment, file and position.`),
		mcp.WithString("prefix",
			mcp.Description("Qualified key prefix; % and _ are literal, ASCII letters match case-insensitively")),
		mcp.WithString("identifier",
			mcp.Description("Bare function name")),
		mcp.WithString("file",
			mcp.Description("Absolute path of an indexed file")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results for prefix and identifier lookups (default: 50, max: 500)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createLookupHandler(lookup))
}

// createLookupHandler creates the handler function for the triumph_lookup tool.
// Bad arguments become tool errors; storage failures are returned as errors.
func createLookupHandler(lookup ResourceLookup) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		startTime := time.Now()

		if _, ok := request.Params.Arguments.(map[string]interface{}); !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		var args LookupRequest
		if err := mcputils.CoerceBindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		if args.Limit > MaxLookupLimit {
			args.Limit = MaxLookupLimit
		}

		response := &LookupResponse{}
		var err error
		switch {
		case countSet(args.Prefix, args.Identifier, args.File) != 1:
			return mcp.NewToolResultError("exactly one of prefix, identifier or file is required"), nil
		case args.Limit < 0:
			return mcp.NewToolResultError("limit cannot be negative"), nil
		case args.Prefix != "":
			response.Mode, response.Query = "prefix", args.Prefix
			response.Resources, err = lookup.FindByKeyPrefix(args.Prefix, args.Limit)
		case args.Identifier != "":
			response.Mode, response.Query = "identifier", args.Identifier
			response.Resources, err = lookup.FindByIdentifier(args.Identifier, args.Limit)
		default:
			response.Mode, response.Query = "file", args.File
			response.Resources, err = lookup.ListByFile(args.File)
		}
		if err != nil {
			return nil, fmt.Errorf("lookup failed: %w", err)
		}

		if response.Resources == nil {
			response.Resources = []*storage.StoredResource{}
		}
		response.Total = len(response.Resources)
		response.TookMs = int(time.Since(startTime).Milliseconds())

		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}

		// Return as text result (mcp-go convention)
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

func countSet(values ...string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}
