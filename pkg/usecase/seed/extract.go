package seed

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/burrow/pkg/model"
)

// Extract produces the canonical embeddable text for an event. An empty
// result means the event has nothing to embed regardless of policy.
func Extract(event *model.Event) string {
	if event == nil {
		return ""
	}

	switch event.Type {
	case model.EventMessageCreated:
		return extractMessage(event)

	case model.EventIntentCreated, model.EventIntentUpdated:
		return joinNonEmpty("\n",
			event.PayloadString("title"),
			event.PayloadString("description"),
		)

	case model.EventProjectUpdated:
		return strings.TrimSpace(event.PayloadString("description"))

	case model.EventNoteUpdated:
		return joinNonEmpty("\n\n",
			event.PayloadString("title"),
			event.PayloadString("content", "body"),
		)

	case model.EventPlanCreated:
		return extractPlan(event)
	}

	return ""
}

// extractMessage prefers structured file-analysis text over the raw message
// body. When a file is attached but produced no text, the record still gets
// a "File: name" marker so the upload is searchable by name.
func extractMessage(event *model.Event) string {
	body, fileName := fileAnalysis(event)
	if body != "" {
		return body
	}
	if fileName != "" {
		return "File: " + fileName
	}

	return strings.TrimSpace(event.PayloadString("text", "content", "message"))
}

// fileAnalysis walks the known file-bearing payload structures and returns
// the best available text plus the file name, if any.
func fileAnalysis(event *model.Event) (body, fileName string) {
	fileName = event.Metadata.FileName

	for _, key := range []string{"analysis", "file_info"} {
		info, ok := event.Payload[key].(map[string]any)
		if !ok {
			continue
		}

		if fileName == "" {
			if name, ok := info["file_name"].(string); ok {
				fileName = name
			}
		}

		if body != "" {
			continue
		}
		for _, field := range []string{"extracted_text", "summary", "content"} {
			if s, ok := info[field].(string); ok && strings.TrimSpace(s) != "" {
				body = strings.TrimSpace(s)
				break
			}
		}
	}

	return body, fileName
}

// extractPlan renders a summary plus a numbered step list. When the payload
// carries neither, the whole payload is serialized as a last resort.
func extractPlan(event *model.Event) string {
	var parts []string

	if summary := strings.TrimSpace(event.PayloadString("summary")); summary != "" {
		parts = append(parts, summary)
	}

	if steps, ok := event.Payload["steps"].([]any); ok {
		for i, raw := range steps {
			step, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			name, _ := step["name"].(string)
			if name == "" {
				continue
			}
			line := fmt.Sprintf("%d. %s", i+1, name)
			if desc, ok := step["description"].(string); ok && desc != "" {
				line += ": " + desc
			}
			parts = append(parts, line)
		}
	}

	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}

	if len(event.Payload) == 0 {
		return ""
	}
	raw, err := json.Marshal(event.Payload)
	if err != nil {
		return ""
	}
	return string(raw)
}

func joinNonEmpty(sep string, values ...string) string {
	var parts []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
