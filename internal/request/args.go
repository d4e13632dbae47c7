package request

import (
	"fmt"
	"strconv"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/prompttag"
)

// Arg is one compiled command-line argument. A nil Value means the flag is
// emitted without a value.
type Arg struct {
	Flag  string `json:"flag"`
	Value any    `json:"value"`
}

// UsedNetwork records the identity of an attached asset at generation time.
// It is stored next to history and queue entries so reconstruction can
// resolve assets by hash even when their display name became ambiguous.
type UsedNetwork struct {
	Type            Kind    `json:"type"`
	OriginalName    string  `json:"original_name"`
	Strength        float64 `json:"strength"`
	ContentHash     string  `json:"content_hash,omitempty"`
	RemoteVersionID string  `json:"remote_version_id,omitempty"`
	Triggers        string  `json:"triggers,omitempty"`
	Target          Target  `json:"target,omitempty"`
}

// Metadata is the free-form provenance saved with a generation.
type Metadata struct {
	Seed         *int64        `json:"seed,omitempty"`
	TimeMS       *float64      `json:"time_ms,omitempty"`
	UsedNetworks []UsedNetwork `json:"used_networks,omitempty"`
}

// Networks returns the used networks of type kind, keyed by original name.
// The first record wins on duplicate names.
func (m *Metadata) Networks(kind Kind) map[string]UsedNetwork {
	out := make(map[string]UsedNetwork)
	if m == nil {
		return out
	}
	for _, n := range m.UsedNetworks {
		if n.Type != kind || n.OriginalName == "" {
			continue
		}
		if _, ok := out[n.OriginalName]; !ok {
			out[n.OriginalName] = n
		}
	}
	return out
}

// BuildMetadata describes the attachments of s. LoRA records carry trigger
// words, embedding records carry their target.
func BuildMetadata(s *State) *Metadata {
	m := &Metadata{}
	for name, a := range s.Loras.All() {
		m.UsedNetworks = append(m.UsedNetworks, UsedNetwork{
			Type:            KindLora,
			OriginalName:    name,
			Strength:        a.Strength,
			ContentHash:     a.ContentHash,
			RemoteVersionID: a.RemoteVersionID,
			Triggers:        a.Triggers,
		})
	}
	for name, a := range s.Embeddings.All() {
		m.UsedNetworks = append(m.UsedNetworks, UsedNetwork{
			Type:            KindEmbedding,
			OriginalName:    name,
			Strength:        a.Strength,
			ContentHash:     a.ContentHash,
			RemoteVersionID: a.RemoteVersionID,
			Target:          a.Target,
		})
	}
	return m
}

// FormatValue renders a parameter value as command-line text. nil renders empty.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return prompttag.FormatStrength(x)
	case float32:
		return prompttag.FormatStrength(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
