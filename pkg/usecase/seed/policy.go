package seed

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/open-policy-agent/opa/v1/rego"
)

// Policy decides whether an event is worth embedding. The built-in decision
// table is fixed; operators can additionally force events through with Rego
// policies evaluated before the table.
type Policy struct {
	override *rego.PreparedEvalQuery
}

// NewPolicy creates a Policy with the built-in decision table only
func NewPolicy() *Policy {
	return &Policy{}
}

// LoadPolicy creates a Policy whose decisions can be overridden by Rego
// files in policyDir. An empty directory behaves like NewPolicy.
func LoadPolicy(ctx context.Context, policyDir string) (*Policy, error) {
	files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files")
	}

	if len(files) == 0 {
		return &Policy{}, nil
	}

	options := make([]func(*rego.Rego), 0, len(files)+1)
	options = append(options, rego.Query("data.embed"))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.Value("path", file))
		}
		options = append(options, rego.Module(file, string(data)))
	}

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare policy query")
	}

	return &Policy{override: &prepared}, nil
}

// ShouldEmbed evaluates the override policy, then the decision table. A Rego
// evaluation error falls back to the table rather than blocking ingestion.
func (p *Policy) ShouldEmbed(ctx context.Context, event *model.Event) bool {
	if p.override != nil {
		if forced, err := p.evalOverride(ctx, event); err == nil && forced {
			return true
		}
	}
	return Eligible(event)
}

func (p *Policy) evalOverride(ctx context.Context, event *model.Event) (bool, error) {
	rs, err := p.override.Eval(ctx, rego.EvalInput(event))
	if err != nil {
		return false, goerr.Wrap(err, "failed to evaluate embed policy")
	}

	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	data, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return false, nil
	}

	forced, _ := data["force"].(bool)
	return forced, nil
}

// Eligible is the built-in decision table, evaluated in order with first
// match winning. Pure function of the event.
func Eligible(event *model.Event) bool {
	if event == nil {
		return false
	}

	if event.Metadata.ShouldEmbed {
		return true
	}

	if event.Metadata.IsFinal || event.Metadata.IsArtifact {
		return true
	}

	switch event.Type {
	case model.EventIntentCreated, model.EventIntentUpdated:
		if event.PayloadString("status") == "completed" {
			return true
		}
		switch event.PayloadString("priority") {
		case "high", "critical":
			return true
		}

	case model.EventWorkflowStepCompleted:
		if b, ok := event.Payload["is_final_output"].(bool); ok && b {
			return true
		}
		if event.PayloadString("step_type") == "output" && event.PayloadString("status") == "completed" {
			return true
		}

	case model.EventMessageCreated:
		if event.Metadata.FromCompletedPlaybook || event.Metadata.IsArtifactOutput {
			return true
		}

	case model.EventPlanCreated:
		return true
	}

	return false
}
