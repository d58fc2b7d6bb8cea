package catalog

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

// MCP discovers tool specs from connected MCP servers. Each server
// contributes its tool list; the server name becomes the capability code so
// a whole server's tools can be removed from the corpus at once.
type MCP struct {
	servers map[string]*mcpServer
}

type mcpServer struct {
	name    string
	session *mcp.ClientSession
	tools   []*mcp.Tool
}

// ServerConfig represents configuration for a single MCP server
type ServerConfig struct {
	Name      string            `yaml:"name"`
	Transport string            `yaml:"transport"` // "stdio" or "http"
	Command   []string          `yaml:"command,omitempty"`
	URL       string            `yaml:"url,omitempty"`
	Env       map[string]string `yaml:"env,omitempty"`
}

// mcpConfig represents the MCP configuration file structure
type mcpConfig struct {
	Servers []ServerConfig `yaml:"servers"`
}

// NewMCP creates an MCP catalog with no connections
func NewMCP() *MCP {
	return &MCP{servers: make(map[string]*mcpServer)}
}

// LoadMCP loads server configuration from a YAML file and connects to every
// listed server. Servers that fail to connect are skipped with a warning;
// (nil, nil) is returned when nothing connected so the caller can fall back
// to other catalog sources.
func LoadMCP(ctx context.Context, configPath string) (*MCP, error) {
	if configPath == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve config path", goerr.Value("path", configPath))
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read MCP config file", goerr.Value("path", absPath))
	}

	var cfg mcpConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse MCP config file", goerr.Value("path", absPath))
	}

	if len(cfg.Servers) == 0 {
		return nil, nil
	}

	logger := logging.From(ctx)
	client := NewMCP()
	for _, serverCfg := range cfg.Servers {
		if err := client.Connect(ctx, serverCfg); err != nil {
			logger.Warn("failed to connect to MCP server",
				"server", serverCfg.Name,
				"error", err,
			)
			continue
		}
		logger.Info("connected to MCP server", "server", serverCfg.Name)
	}

	if len(client.servers) == 0 {
		return nil, nil
	}
	return client, nil
}

// Connect connects to an MCP server with the given configuration
func (x *MCP) Connect(ctx context.Context, cfg ServerConfig) error {
	if _, exists := x.servers[cfg.Name]; exists {
		return goerr.New("server already connected", goerr.V("name", cfg.Name))
	}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "burrow",
		Version: "0.1.0",
	}, nil)

	var transport mcp.Transport
	var err error

	switch cfg.Transport {
	case "stdio":
		transport, err = createStdioTransport(cfg)
	case "http":
		transport, err = createHTTPTransport(cfg)
	default:
		return goerr.New("unsupported transport",
			goerr.V("transport", cfg.Transport),
			goerr.V("supported", []string{"stdio", "http"}))
	}

	if err != nil {
		return goerr.Wrap(err, "failed to create transport", goerr.V("server", cfg.Name))
	}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to connect to MCP server", goerr.V("server", cfg.Name))
	}

	toolsResult, err := session.ListTools(ctx, nil)
	if err != nil {
		_ = session.Close()
		return goerr.Wrap(err, "failed to list tools", goerr.V("server", cfg.Name))
	}

	x.servers[cfg.Name] = &mcpServer{
		name:    cfg.Name,
		session: session,
		tools:   toolsResult.Tools,
	}

	return nil
}

func createStdioTransport(cfg ServerConfig) (mcp.Transport, error) {
	if len(cfg.Command) == 0 {
		return nil, goerr.New("command is required for stdio transport")
	}

	cmd := exec.Command(cfg.Command[0], cfg.Command[1:]...)

	if len(cfg.Env) > 0 {
		env := cmd.Env
		for k, v := range cfg.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	return &mcp.CommandTransport{Command: cmd}, nil
}

func createHTTPTransport(cfg ServerConfig) (mcp.Transport, error) {
	if cfg.URL == "" {
		return nil, goerr.New("url is required for http transport")
	}

	return &mcp.StreamableClientTransport{
		Endpoint: cfg.URL,
	}, nil
}

// ListTools flattens every connected server's tool list into catalog specs.
// IDs are namespaced as "server/tool" to avoid collisions across servers.
func (x *MCP) ListTools(ctx context.Context) ([]model.ToolSpec, error) {
	var specs []model.ToolSpec
	for name, srv := range x.servers {
		for _, tool := range srv.tools {
			specs = append(specs, model.ToolSpec{
				ID:             name + "/" + tool.Name,
				DisplayName:    tool.Name,
				Description:    tool.Description,
				Category:       "mcp",
				CapabilityCode: name,
			})
		}
	}
	return specs, nil
}

// Close closes all MCP server connections
func (x *MCP) Close() error {
	for name, srv := range x.servers {
		if err := srv.session.Close(); err != nil {
			return goerr.Wrap(err, "failed to close session", goerr.V("server", name))
		}
	}
	x.servers = make(map[string]*mcpServer)
	return nil
}
