package preset

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/library"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/request"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "portrait", false},
		{"with hyphen and underscore", "sdxl_portrait-v2", false},
		{"empty", "", true},
		{"space", "my preset", true},
		{"slash", "a/b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestPreset_Validate(t *testing.T) {
	tests := []struct {
		name    string
		preset  Preset
		wantErr string
	}{
		{
			name:   "file model",
			preset: Preset{Name: "a", Model: "f:./model.safetensors"},
		},
		{
			name:   "library model",
			preset: Preset{Name: "a", Model: "n:SDXL Base"},
		},
		{
			name:   "no model",
			preset: Preset{Name: "a"},
		},
		{
			name:    "preset reference as model",
			preset:  Preset{Name: "a", Model: "p:other"},
			wantErr: "model must be a file",
		},
		{
			name:    "bare model",
			preset:  Preset{Name: "a", Model: "model.safetensors"},
			wantErr: "model:",
		},
		{
			name:    "param without dash",
			preset:  Preset{Name: "a", Params: []request.Default{{Flag: "steps", Value: 20}}},
			wantErr: "must start with '-'",
		},
		{
			name:    "unnamed lora",
			preset:  Preset{Name: "a", Loras: []Network{{Strength: 1}}},
			wantErr: "loras[0]: name is required",
		},
		{
			name:    "duplicate embedding",
			preset:  Preset{Name: "a", Embeddings: []Network{{Name: "e"}, {Name: "e"}}},
			wantErr: "duplicate name",
		},
		{
			name:    "bad target",
			preset:  Preset{Name: "a", Embeddings: []Network{{Name: "e", Target: "sideways"}}},
			wantErr: "target must be positive or negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.preset.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestPreset_State(t *testing.T) {
	// Arrange
	off := false
	p := &Preset{
		Name:           "portrait",
		Model:          "n:sdxl",
		Prompt:         "a cat",
		NegativePrompt: "blurry",
		Params: []request.Default{
			{Flag: "--steps", Value: 30},
			{Flag: "--cfg-scale", Value: 7.5, Enabled: &off},
			{Flag: "--vae-tiling", Value: true},
		},
		Loras:      []Network{{Name: "style_x", Strength: 0.8, Dir: "/loras", Hash: "h1"}},
		Embeddings: []Network{{Name: "bad_hands", Strength: 1, Target: request.TargetNegative}, {Name: "good", Strength: 1.1}},
		AutoAppend: &AutoAppend{Lora: true},
	}

	// Act
	s := p.State()

	// Assert
	if s.ModelID != "n:sdxl" || s.Prompt != "a cat" || s.NegativePrompt != "blurry" {
		t.Errorf("model/prompts = %q/%q/%q", s.ModelID, s.Prompt, s.NegativePrompt)
	}
	if diff := cmp.Diff([]string{"--steps", "--vae-tiling"}, s.Parameters.Keys()); diff != "" {
		t.Errorf("parameters mismatch (-want +got):\n%s", diff)
	}
	lora, _ := s.Loras.Get("style_x")
	if diff := cmp.Diff(request.Attachment{Strength: 0.8, Dir: "/loras", ContentHash: "h1"}, lora); diff != "" {
		t.Errorf("lora mismatch (-want +got):\n%s", diff)
	}
	good, _ := s.Embeddings.Get("good")
	if good.Target != request.TargetPositive {
		t.Errorf("embedding without target = %q, want positive", good.Target)
	}
	if !s.ShouldAutoAppend(request.KindLora) || s.ShouldAutoAppend(request.KindEmbedding) {
		t.Errorf("auto append = %v", s.AutoAppend)
	}
}

func TestFromState_RoundTrip(t *testing.T) {
	s := request.New()
	s.ModelID = "f:/m/sdxl.safetensors"
	s.Prompt = "portrait"
	s.Parameters.Set("--steps", 20)
	s.SetLora("style_x", request.Attachment{Strength: 1.2, Dir: "/loras", Triggers: "photoreal", RemoteVersionID: "77"})
	s.SetEmbedding("bad_hands", request.Attachment{Strength: 1, Dir: "/emb", Target: request.TargetNegative})
	s.SetAutoAppend(request.KindEmbedding, true)

	p := FromState("saved", s)
	back := p.State()

	if p.Name != "saved" {
		t.Errorf("Name = %q", p.Name)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("captured preset is invalid: %v", err)
	}
	if diff := cmp.Diff(s.Loras.Keys(), back.Loras.Keys()); diff != "" {
		t.Errorf("lora keys mismatch (-want +got):\n%s", diff)
	}
	for name, want := range s.Loras.All() {
		got, _ := back.Loras.Get(name)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("lora %s mismatch (-want +got):\n%s", name, diff)
		}
	}
	emb, _ := back.Embeddings.Get("bad_hands")
	if emb.Target != request.TargetNegative || emb.Dir != "/emb" {
		t.Errorf("embedding = %+v", emb)
	}
	if v, _ := back.Parameters.Get("--steps"); v != 20 {
		t.Errorf("--steps = %#v", v)
	}
	if !back.ShouldAutoAppend(request.KindEmbedding) {
		t.Error("auto append lost")
	}
}

type fakeResolver map[string]library.Record

func (f fakeResolver) FindBestMatch(hash, remoteVersionID, name string) (library.Record, bool) {
	for _, key := range []string{hash, remoteVersionID, name} {
		if r, ok := f[key]; ok && key != "" {
			return r, true
		}
	}
	return library.Record{}, false
}

func TestResolveModel(t *testing.T) {
	resolver := fakeResolver{
		"sdxl": {Name: "sdxl", Path: "/models/sdxl.safetensors"},
		"abc":  {Name: "hashed", Path: "/models/hashed.gguf"},
	}

	tests := []struct {
		name    string
		model   string
		want    string
		wantErr bool
	}{
		{"file", "f:/m/a.safetensors", "/m/a.safetensors", false},
		{"name", "n:sdxl", "/models/sdxl.safetensors", false},
		{"hash", "h:ABC", "/models/hashed.gguf", false},
		{"unknown name", "n:nope", "", true},
		{"preset reference", "p:other", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveModel(&Preset{Name: "x", Model: tt.model}, resolver)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveModel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveModel() = %q, want %q", got, tt.want)
			}
		})
	}
}
