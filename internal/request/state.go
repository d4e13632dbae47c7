// Package request holds the structured generation request edited by the panel.
package request

import (
	"reflect"
	"sort"
)

// Kind is the type of network asset attached to a request.
type Kind string

const (
	KindLora      Kind = "lora"
	KindEmbedding Kind = "embedding"
)

// Target is the prompt an embedding token belongs to.
type Target string

const (
	TargetPositive Target = "positive"
	TargetNegative Target = "negative"
)

// Attachment is a LoRA or embedding reference held by a request.
// Target is only meaningful for embeddings.
type Attachment struct {
	Strength        float64
	Dir             string
	Triggers        string
	ContentHash     string
	RemoteVersionID string
	// OriginalName is the name as it appeared in prompt text, when the
	// attachment was reconstructed under a different canonical name.
	OriginalName string
	Target       Target
}

// IsGhost reports whether the attachment points at no local directory.
func (a Attachment) IsGhost() bool {
	return a.Dir == ""
}

// State is the mutable working request.
//
// Loras and Embeddings are keyed by canonical library name and keep
// insertion order, which is the order compiled prompts are emitted in.
type State struct {
	ModelID        string
	Prompt         string
	NegativePrompt string
	Parameters     Ordered[any]
	Loras          Ordered[Attachment]
	Embeddings     Ordered[Attachment]
	AutoAppend     map[Kind]bool
}

// New returns an empty state with trigger auto-append disabled.
func New() *State {
	return &State{AutoAppend: map[Kind]bool{KindLora: false, KindEmbedding: false}}
}

// Classifier answers the flag questions state mutations need.
// *catalog.Catalog implements it.
type Classifier interface {
	IsPromptFlag(flag string) bool
	IsNegativePromptFlag(flag string) bool
	IsExcluded(flag string) bool
	IsPersistent(flag string) bool
}

// ShouldAutoAppend reports whether trigger words of kind are appended to prompts.
func (s *State) ShouldAutoAppend(kind Kind) bool {
	return s.AutoAppend[kind]
}

// SetAutoAppend toggles trigger auto-append for kind.
func (s *State) SetAutoAppend(kind Kind, on bool) {
	if s.AutoAppend == nil {
		s.AutoAppend = make(map[Kind]bool)
	}
	s.AutoAppend[kind] = on
}

// SetPrompt replaces the positive prompt.
func (s *State) SetPrompt(text string) bool {
	if s.Prompt == text {
		return false
	}
	s.Prompt = text
	return true
}

// SetNegativePrompt replaces the negative prompt.
func (s *State) SetNegativePrompt(text string) bool {
	if s.NegativePrompt == text {
		return false
	}
	s.NegativePrompt = text
	return true
}

// SetParameter stores value under flag, or removes flag when enabled is false.
// It reports whether the state changed.
func (s *State) SetParameter(flag string, value any, enabled bool) bool {
	current, ok := s.Parameters.Get(flag)
	if !enabled {
		if !ok {
			return false
		}
		s.Parameters.Delete(flag)
		return true
	}
	if ok && reflect.DeepEqual(current, value) {
		return false
	}
	s.Parameters.Set(flag, value)
	return true
}

// SetLora attaches or updates a LoRA. It reports whether the state changed.
func (s *State) SetLora(name string, a Attachment) bool {
	return setAttachment(&s.Loras, name, a)
}

// RemoveLora detaches a LoRA.
func (s *State) RemoveLora(name string) bool {
	return removeAttachment(&s.Loras, name)
}

// SetEmbedding attaches or updates an embedding. An empty target means positive.
func (s *State) SetEmbedding(name string, a Attachment) bool {
	if a.Target == "" {
		a.Target = TargetPositive
	}
	return setAttachment(&s.Embeddings, name, a)
}

// RemoveEmbedding detaches an embedding.
func (s *State) RemoveEmbedding(name string) bool {
	return removeAttachment(&s.Embeddings, name)
}

func setAttachment(m *Ordered[Attachment], name string, a Attachment) bool {
	if cur, ok := m.Get(name); ok && cur == a {
		return false
	}
	m.Set(name, a)
	return true
}

func removeAttachment(m *Ordered[Attachment], name string) bool {
	if !m.Has(name) {
		return false
	}
	m.Delete(name)
	return true
}

// Default is a per-model parameter default. A nil Enabled means enabled.
type Default struct {
	Flag    string `yaml:"flag" json:"flag"`
	Value   any    `yaml:"value" json:"value"`
	Enabled *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// IsEnabled reports whether the default is active.
func (d Default) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// Param is one entry of the active configuration after applying defaults.
type Param struct {
	Flag    string
	Value   any
	Enabled bool
}

// dropTransient removes every parameter that is not persistent.
func (s *State) dropTransient(cls Classifier) {
	for _, flag := range s.Parameters.Keys() {
		if !cls.IsPersistent(flag) {
			s.Parameters.Delete(flag)
		}
	}
}

// ApplyModelDefaults resets the request for a newly selected model.
//
// Attachments and non-persistent parameters are cleared. Prompt defaults
// replace the prompts, excluded flags are skipped, and every other default
// becomes a parameter. The applied configuration is returned sorted by flag.
func (s *State) ApplyModelDefaults(defaults []Default, cls Classifier) []Param {
	s.dropTransient(cls)
	s.Loras.Clear()
	s.Embeddings.Clear()

	var active []Param
	for _, d := range defaults {
		switch {
		case cls.IsPromptFlag(d.Flag):
			s.SetPrompt(FormatValue(d.Value))
			continue
		case cls.IsNegativePromptFlag(d.Flag):
			s.SetNegativePrompt(FormatValue(d.Value))
			continue
		case cls.IsExcluded(d.Flag):
			continue
		}
		s.SetParameter(d.Flag, d.Value, d.IsEnabled())
		active = append(active, Param{Flag: d.Flag, Value: d.Value, Enabled: d.IsEnabled()})
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Flag < active[j].Flag })
	return active
}

// Restore replaces the request with other. Persistent parameters of the
// current state survive unless other sets them too. Auto-append settings
// are kept.
func (s *State) Restore(other *State, cls Classifier) {
	s.dropTransient(cls)
	for flag, v := range other.Parameters.All() {
		s.Parameters.Set(flag, v)
	}
	if other.ModelID != "" {
		s.ModelID = other.ModelID
	}
	s.Prompt = other.Prompt
	s.NegativePrompt = other.NegativePrompt
	s.Loras = other.Loras.Clone()
	s.Embeddings = other.Embeddings.Clone()
}

// Clone returns an independent copy of the state.
func (s *State) Clone() *State {
	c := &State{
		ModelID:        s.ModelID,
		Prompt:         s.Prompt,
		NegativePrompt: s.NegativePrompt,
		Parameters:     s.Parameters.Clone(),
		Loras:          s.Loras.Clone(),
		Embeddings:     s.Embeddings.Clone(),
		AutoAppend:     make(map[Kind]bool, len(s.AutoAppend)),
	}
	for k, v := range s.AutoAppend {
		c.AutoAppend[k] = v
	}
	return c
}
