// Package preset handles saved generation requests.
package preset

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/identifier"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/library"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/request"
)

// namePattern validates preset names: alphanumeric, underscore, hyphen only.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateName checks if a preset name is valid.
// Valid names contain only alphanumeric characters, underscores, and hyphens.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name must contain only alphanumeric characters, underscores, and hyphens")
	}
	return nil
}

// Network is a LoRA or embedding attached by a preset.
type Network struct {
	Name            string         `yaml:"name"`
	Strength        float64        `yaml:"strength"`
	Dir             string         `yaml:"dir,omitempty"`
	Triggers        string         `yaml:"triggers,omitempty"`
	Hash            string         `yaml:"hash,omitempty"`
	RemoteVersionID string         `yaml:"remote_version_id,omitempty"`
	Target          request.Target `yaml:"target,omitempty"` // embeddings only
}

// AutoAppend holds per-kind trigger auto-append switches.
type AutoAppend struct {
	Lora      bool `yaml:"lora"`
	Embedding bool `yaml:"embedding"`
}

// Preset is a saved request.
type Preset struct {
	Name           string            `yaml:"name"` // Required, used as identifier
	Model          string            `yaml:"model,omitempty"`
	Prompt         string            `yaml:"prompt,omitempty"`
	NegativePrompt string            `yaml:"negative_prompt,omitempty"`
	Params         []request.Default `yaml:"params,omitempty"`
	Loras          []Network         `yaml:"loras,omitempty"`
	Embeddings     []Network         `yaml:"embeddings,omitempty"`
	AutoAppend     *AutoAppend       `yaml:"auto_append_triggers,omitempty"`
}

// Validate checks the preset content. The name is checked by ValidateName.
func (p *Preset) Validate() error {
	if p.Model != "" && !strings.HasPrefix(p.Model, "f:") {
		id, err := identifier.Parse(p.Model)
		if err != nil {
			return fmt.Errorf("model: %w", err)
		}
		if !id.IsAsset() {
			return fmt.Errorf("model must be a file (f:) or library reference (h:, r:, n:), got %q", p.Model)
		}
	}
	for i, d := range p.Params {
		if !strings.HasPrefix(d.Flag, "-") {
			return fmt.Errorf("params[%d]: flag %q must start with '-'", i, d.Flag)
		}
	}
	if err := validateNetworks("loras", p.Loras); err != nil {
		return err
	}
	if err := validateNetworks("embeddings", p.Embeddings); err != nil {
		return err
	}
	for _, n := range p.Embeddings {
		switch n.Target {
		case "", request.TargetPositive, request.TargetNegative:
		default:
			return fmt.Errorf("embeddings: %s: target must be positive or negative, got %q", n.Name, n.Target)
		}
	}
	return nil
}

func validateNetworks(field string, nets []Network) error {
	seen := make(map[string]bool, len(nets))
	for i, n := range nets {
		if strings.TrimSpace(n.Name) == "" {
			return fmt.Errorf("%s[%d]: name is required", field, i)
		}
		if seen[n.Name] {
			return fmt.Errorf("%s: duplicate name %q", field, n.Name)
		}
		seen[n.Name] = true
		if math.IsNaN(n.Strength) || math.IsInf(n.Strength, 0) {
			return fmt.Errorf("%s: %s: strength must be finite", field, n.Name)
		}
	}
	return nil
}

func (n Network) attachment() request.Attachment {
	return request.Attachment{
		Strength:        n.Strength,
		Dir:             n.Dir,
		Triggers:        n.Triggers,
		ContentHash:     n.Hash,
		RemoteVersionID: n.RemoteVersionID,
		Target:          n.Target,
	}
}

func network(name string, a request.Attachment) Network {
	return Network{
		Name:            name,
		Strength:        a.Strength,
		Dir:             a.Dir,
		Triggers:        a.Triggers,
		Hash:            a.ContentHash,
		RemoteVersionID: a.RemoteVersionID,
		Target:          a.Target,
	}
}

// State converts the preset into a request. Disabled params are left out.
func (p *Preset) State() *request.State {
	s := request.New()
	s.ModelID = p.Model
	s.Prompt = p.Prompt
	s.NegativePrompt = p.NegativePrompt
	for _, d := range p.Params {
		s.SetParameter(d.Flag, d.Value, d.IsEnabled())
	}
	for _, n := range p.Loras {
		s.SetLora(n.Name, n.attachment())
	}
	for _, n := range p.Embeddings {
		s.SetEmbedding(n.Name, n.attachment())
	}
	if p.AutoAppend != nil {
		s.SetAutoAppend(request.KindLora, p.AutoAppend.Lora)
		s.SetAutoAppend(request.KindEmbedding, p.AutoAppend.Embedding)
	}
	return s
}

// FromState captures a request as a preset.
func FromState(name string, s *request.State) *Preset {
	p := &Preset{
		Name:           name,
		Model:          s.ModelID,
		Prompt:         s.Prompt,
		NegativePrompt: s.NegativePrompt,
		AutoAppend: &AutoAppend{
			Lora:      s.ShouldAutoAppend(request.KindLora),
			Embedding: s.ShouldAutoAppend(request.KindEmbedding),
		},
	}
	for flag, v := range s.Parameters.All() {
		p.Params = append(p.Params, request.Default{Flag: flag, Value: v})
	}
	for name, a := range s.Loras.All() {
		p.Loras = append(p.Loras, network(name, a))
	}
	for name, a := range s.Embeddings.All() {
		p.Embeddings = append(p.Embeddings, network(name, a))
	}
	return p
}

// ModelResolver finds checkpoints in the library. *library.Index implements it.
type ModelResolver interface {
	FindBestMatch(hash, remoteVersionID, name string) (library.Record, bool)
}

// ResolveModel returns the checkpoint file the preset's model field points
// at. File references are returned as paths; library references are looked
// up in resolver.
func ResolveModel(p *Preset, resolver ModelResolver) (string, error) {
	if p.Model == "" {
		return "", fmt.Errorf("preset %s has no model", p.Name)
	}
	id, err := identifier.Parse(p.Model)
	if err != nil {
		return "", fmt.Errorf("invalid model field in preset: %w", err)
	}
	if id.Type == identifier.TypeFilePath {
		return id.Value, nil
	}
	if !id.IsAsset() {
		return "", fmt.Errorf("invalid model field in preset: %s", id)
	}
	rec, ok := resolver.FindBestMatch(id.Lookup())
	if !ok {
		return "", fmt.Errorf("model %s not found in library", id)
	}
	return rec.Path, nil
}
