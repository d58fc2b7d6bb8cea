package ragserv

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/burrow/pkg/usecase/search"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server exposes memory and tool search as MCP tools so agent runtimes can
// retrieve context over stdio.
type Server struct {
	search *search.UseCase
	server *mcp.Server
}

type searchParams struct {
	Query    string  `json:"query"`
	Limit    int     `json:"limit,omitempty"`
	MinScore float64 `json:"min_score,omitempty"`
}

func searchSchema(queryDesc string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: queryDesc,
			},
			"limit": {
				Type:        "integer",
				Description: "Maximum number of results, default 5",
			},
			"min_score": {
				Type:        "number",
				Description: "Minimum cosine similarity in [0, 1], default 0",
			},
		},
		Required: []string{"query"},
	}
}

// New creates a new MCP search server
func New(searchUC *search.UseCase) *Server {
	x := &Server{
		search: searchUC,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "burrow",
			Version: "0.1.0",
		}, nil),
	}

	mcp.AddTool(x.server, &mcp.Tool{
		Name:        "memory_search",
		Description: "Search stored memories by semantic similarity",
		InputSchema: searchSchema("Free text query matched against stored memories"),
	}, x.memorySearch)

	mcp.AddTool(x.server, &mcp.Tool{
		Name:        "tool_search",
		Description: "Find the most relevant tools for a task description",
		InputSchema: searchSchema("Description of the task to find tools for"),
	}, x.toolSearch)

	return x
}

// Run serves MCP over stdio until the context is canceled
func (x *Server) Run(ctx context.Context) error {
	if err := x.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "mcp server terminated")
	}
	return nil
}

func (x *Server) memorySearch(ctx context.Context, req *mcp.CallToolRequest, params *searchParams) (*mcp.CallToolResult, any, error) {
	if params.Query == "" {
		return nil, nil, goerr.New("query is required")
	}

	result := x.search.Memories(ctx, &search.Input{
		Query:    params.Query,
		TopK:     params.Limit,
		MinScore: params.MinScore,
	})

	var lines []string
	for _, m := range result.Memories {
		lines = append(lines, fmt.Sprintf("[%.2f] %s", m.Score, m.Content))
	}

	text := fmt.Sprintf("status: %s", result.Status)
	if len(lines) > 0 {
		text += "\n" + strings.Join(lines, "\n")
	}

	structured := map[string]any{
		"status":   string(result.Status),
		"memories": result.Memories,
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, structured, nil
}

func (x *Server) toolSearch(ctx context.Context, req *mcp.CallToolRequest, params *searchParams) (*mcp.CallToolResult, any, error) {
	if params.Query == "" {
		return nil, nil, goerr.New("query is required")
	}

	result := x.search.Tools(ctx, &search.Input{
		Query:    params.Query,
		TopK:     params.Limit,
		MinScore: params.MinScore,
	})

	var lines []string
	for _, tool := range result.Tools {
		lines = append(lines, fmt.Sprintf("[%.2f] %s: %s", tool.Score, tool.DisplayName, tool.Description))
	}

	text := fmt.Sprintf("status: %s", result.Status)
	if len(lines) > 0 {
		text += "\n" + strings.Join(lines, "\n")
	}

	structured := map[string]any{
		"status": string(result.Status),
		"tools":  result.Tools,
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, structured, nil
}
