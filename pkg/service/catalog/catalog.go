package catalog

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/burrow/pkg/interfaces"
	"github.com/m-mizutani/burrow/pkg/model"
	"gopkg.in/yaml.v3"
)

// Static serves tool specs from a YAML file. Used for curated catalogs that
// are not discoverable over MCP.
type Static struct {
	specs []model.ToolSpec
}

type staticFile struct {
	Tools []model.ToolSpec `yaml:"tools"`
}

// LoadStatic reads a YAML catalog file
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read catalog file", goerr.Value("path", path))
	}

	var file staticFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse catalog file", goerr.Value("path", path))
	}

	for _, spec := range file.Tools {
		if spec.ID == "" {
			return nil, goerr.New("catalog entry without id", goerr.Value("path", path))
		}
	}

	return &Static{specs: file.Tools}, nil
}

func (x *Static) ListTools(ctx context.Context) ([]model.ToolSpec, error) {
	return x.specs, nil
}

// Multi concatenates several catalogs into one. Later sources win on ID
// collision.
type Multi struct {
	sources []interfaces.Catalog
}

// NewMulti combines the given catalogs
func NewMulti(sources ...interfaces.Catalog) *Multi {
	return &Multi{sources: sources}
}

func (x *Multi) ListTools(ctx context.Context) ([]model.ToolSpec, error) {
	merged := make(map[string]model.ToolSpec)
	var order []string

	for _, source := range x.sources {
		specs, err := source.ListTools(ctx)
		if err != nil {
			return nil, err
		}
		for _, spec := range specs {
			if _, ok := merged[spec.ID]; !ok {
				order = append(order, spec.ID)
			}
			merged[spec.ID] = spec
		}
	}

	result := make([]model.ToolSpec, 0, len(order))
	for _, id := range order {
		result = append(result, merged[id])
	}
	return result, nil
}
