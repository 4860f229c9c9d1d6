package memorysrv

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/memorai/memorai/pkg/memory"
)

// extractJSON strips code fences and surrounding prose from a model reply
func extractJSON(reply string) string {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func parseFacts(reply string) ([]string, error) {
	var out struct {
		Facts []string `json:"facts"`
	}
	if err := json.Unmarshal([]byte(extractJSON(reply)), &out); err != nil {
		return nil, fmt.Errorf("invalid facts JSON: %w", err)
	}
	facts := make([]string, 0, len(out.Facts))
	for _, f := range out.Facts {
		if f = strings.TrimSpace(f); f != "" {
			facts = append(facts, f)
		}
	}
	return facts, nil
}

// action is one decision returned by the update prompt
type action struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	Event     memory.Event `json:"event"`
	OldMemory string       `json:"old_memory,omitempty"`
}

func parseActions(reply string) ([]action, error) {
	var out struct {
		Memory []struct {
			ID        json.RawMessage `json:"id"`
			Text      string          `json:"text"`
			Event     string          `json:"event"`
			OldMemory string          `json:"old_memory"`
		} `json:"memory"`
	}
	if err := json.Unmarshal([]byte(extractJSON(reply)), &out); err != nil {
		return nil, fmt.Errorf("invalid memory actions JSON: %w", err)
	}

	actions := make([]action, 0, len(out.Memory))
	for _, m := range out.Memory {
		ev := memory.Event(strings.ToUpper(strings.TrimSpace(m.Event)))
		if !ev.IsValid() {
			continue
		}
		actions = append(actions, action{
			ID:        rawID(m.ID),
			Text:      strings.TrimSpace(m.Text),
			Event:     ev,
			OldMemory: m.OldMemory,
		})
	}
	return actions, nil
}

// rawID accepts ids emitted as strings or numbers
func rawID(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
