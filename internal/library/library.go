// Package library keeps the local catalog of model assets: checkpoints,
// LoRAs and textual inversion embeddings.
package library

import "fmt"

// Kind is the type of an asset.
type Kind string

const (
	KindCheckpoint Kind = "checkpoint"
	KindLora       Kind = "lora"
	KindEmbedding  Kind = "embedding"
)

// ParseKind parses a kind name. Plural forms are accepted.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "checkpoint", "checkpoints", "model", "models":
		return KindCheckpoint, nil
	case "lora", "loras":
		return KindLora, nil
	case "embedding", "embeddings":
		return KindEmbedding, nil
	default:
		return "", fmt.Errorf("unknown asset kind %q (want checkpoint, lora or embedding)", s)
	}
}

// Record is one asset known to the library.
type Record struct {
	ID                string  `json:"id"`
	Kind              Kind    `json:"kind"`
	Name              string  `json:"name"`
	Alias             string  `json:"alias,omitempty"`
	Path              string  `json:"path"`
	Dir               string  `json:"dir"`
	Filename          string  `json:"filename"`
	Triggers          string  `json:"triggers,omitempty"`
	PreferredStrength float64 `json:"preferred_strength,omitempty"`
	ContentHash       string  `json:"content_hash,omitempty"`
	RemoteID          string  `json:"remote_id,omitempty"`
	RemoteVersionID   string  `json:"remote_version_id,omitempty"`
	RemoteSource      string  `json:"remote_source,omitempty"`
	BaseModel         string  `json:"base_model,omitempty"`
	Description       string  `json:"description,omitempty"`
}

// CanonicalName is the name attachments are keyed by: the name, or the
// alias when the record has no name.
func (r Record) CanonicalName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Alias
}

// Strength returns the preferred strength, 1.0 when unset.
func (r Record) Strength() float64 {
	if r.PreferredStrength == 0 {
		return 1.0
	}
	return r.PreferredStrength
}
