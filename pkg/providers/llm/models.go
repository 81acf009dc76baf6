package llm

import (
	"time"

	"github.com/asystent-radnego/common-go/pkg/models"
)

// modelEntry accepts both OpenAI style ({id, created, owned_by}) and
// Ollama style ({name, modified_at}) model objects
type modelEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Created    *int64 `json:"created"`
	OwnedBy    string `json:"owned_by"`
	ModifiedAt string `json:"modified_at"`
}

// modelsEnvelope tolerates both {data:[...]} and {models:[...]}
type modelsEnvelope struct {
	Data   []modelEntry `json:"data"`
	Models []modelEntry `json:"models"`
}

func (e modelsEnvelope) entries() []modelEntry {
	if len(e.Data) > 0 {
		return e.Data
	}
	return e.Models
}

// normalize converts the envelope to ModelInfo. owner fills in missing
// owned_by values and may be empty.
func (e modelsEnvelope) normalize(owner string) []models.ModelInfo {
	entries := e.entries()
	result := make([]models.ModelInfo, 0, len(entries))

	for _, m := range entries {
		id := m.ID
		if id == "" {
			id = m.Name
		}
		if id == "" {
			continue
		}

		name := m.Name
		if name == "" {
			name = id
		}

		info := models.ModelInfo{
			ID:      id,
			Name:    name,
			Created: m.Created,
			OwnedBy: m.OwnedBy,
		}
		if info.OwnedBy == "" {
			info.OwnedBy = owner
		}
		if info.Created == nil && m.ModifiedAt != "" {
			if ts, err := time.Parse(time.RFC3339Nano, m.ModifiedAt); err == nil {
				created := ts.Unix()
				info.Created = &created
			}
		}

		result = append(result, info)
	}

	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
